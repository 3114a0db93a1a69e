package verify

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/safe"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/elfmodel"
)

// ExprRule is a profile rule written as a CEL expression that must evaluate
// to true. Expressions see the model through these functions:
//
//	symbol(name)      unique symbol as {name, addr, size, type, bind, shndx}
//	section(name)     section as {name, addr, size, end, align, type, flags,
//	                  allocatable, writable, executable}
//	has_symbol(name)  bool
//	has_section(name) bool
//	symbol_count(name) int
//	attr(tag)         build attribute value, int or string
//
// and the variable header with class, data, machine, type, entry and flags.
// Addresses and sizes are ints.
type ExprRule struct {
	name string
	desc string
	expr string
	ast  *cel.Ast
}

// CompileExpr parses and type-checks expr.
func CompileExpr(name, description, expr string) (*ExprRule, error) {
	env, err := exprEnv(&elfmodel.Model{})
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("rule %s: %w", name, iss.Err())
	}
	if out := ast.OutputType(); !reflect.DeepEqual(out, cel.BoolType) && !reflect.DeepEqual(out, cel.DynType) {
		return nil, fmt.Errorf("rule %s: expression has type %s, want bool", name, out)
	}
	if description == "" {
		description = expr
	}
	return &ExprRule{name: name, desc: description, expr: expr, ast: ast}, nil
}

func (r *ExprRule) Name() string        { return r.name }
func (r *ExprRule) Description() string { return r.desc }

// Expr returns the expression source.
func (r *ExprRule) Expr() string { return r.expr }

func (r *ExprRule) Check(ctx context.Context, m *elfmodel.Model) error {
	env, err := exprEnv(m)
	if err != nil {
		return err
	}
	prg, err := env.Program(r.ast)
	if err != nil {
		return fmt.Errorf("plan %q: %w", r.expr, err)
	}
	out, _, err := prg.ContextEval(ctx, map[string]any{"header": headerValue(m.Header)})
	if err != nil {
		return err
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return fmt.Errorf("%s evaluated to %v, want bool", r.expr, out.Value())
	}
	if !ok {
		return fmt.Errorf("%s is false", r.expr)
	}
	return nil
}

func exprEnv(m *elfmodel.Model) (*cel.Env, error) {
	record := cel.MapType(cel.StringType, cel.DynType)
	return cel.NewEnv(
		cel.Variable("header", record),
		cel.Function("symbol",
			cel.Overload("symbol_string", []*cel.Type{cel.StringType}, record,
				cel.UnaryBinding(stringArg(func(name string) ref.Val {
					sym, err := m.RequireUniqueSymbol(name)
					if err != nil {
						return types.NewErr("%v", err)
					}
					return recordValue(map[string]any{
						"name":  sym.Name,
						"type":  sym.Type,
						"bind":  sym.Bind,
						"shndx": sym.Shndx.String(),
					}, map[string]uint64{
						"addr": sym.Addr,
						"size": sym.Size,
					})
				})))),
		cel.Function("section",
			cel.Overload("section_string", []*cel.Type{cel.StringType}, record,
				cel.UnaryBinding(stringArg(func(name string) ref.Val {
					sec, err := m.RequireSection(name)
					if err != nil {
						return types.NewErr("%v", err)
					}
					return recordValue(map[string]any{
						"name":        sec.Name,
						"type":        sec.Type,
						"flags":       sec.FlagsString,
						"allocatable": sec.IsAllocatable(),
						"writable":    sec.IsWritable(),
						"executable":  sec.IsExecutable(),
					}, map[string]uint64{
						"addr":  sec.Addr,
						"size":  sec.Size,
						"end":   sec.End(),
						"align": sec.Align,
					})
				})))),
		cel.Function("has_symbol",
			cel.Overload("has_symbol_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(stringArg(func(name string) ref.Val {
					return types.Bool(m.HasSymbol(name))
				})))),
		cel.Function("has_section",
			cel.Overload("has_section_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(stringArg(func(name string) ref.Val {
					return types.Bool(m.HasSection(name))
				})))),
		cel.Function("symbol_count",
			cel.Overload("symbol_count_string", []*cel.Type{cel.StringType}, cel.IntType,
				cel.UnaryBinding(stringArg(func(name string) ref.Val {
					return types.Int(len(m.SymbolsNamed(name)))
				})))),
		cel.Function("attr",
			cel.Overload("attr_string", []*cel.Type{cel.StringType}, cel.DynType,
				cel.UnaryBinding(stringArg(func(tag string) ref.Val {
					v, ok := m.Attributes.Tags[tag]
					if !ok {
						return types.NewErr("attribute %s does not exist in ELF", tag)
					}
					if s, isStr := v.Str(); isStr {
						return types.String(s)
					}
					i, _ := v.Int()
					n, clamped := safe.Int64(i)
					if clamped {
						return types.NewErr("attribute %s = %d is out of range", tag, i)
					}
					return types.Int(n)
				})))),
	)
}

func stringArg(fn func(string) ref.Val) func(ref.Val) ref.Val {
	return func(arg ref.Val) ref.Val {
		s, ok := arg.(types.String)
		if !ok {
			return types.MaybeNoSuchOverloadErr(arg)
		}
		return fn(string(s))
	}
}

// recordValue converts a record to a CEL map. Unsigned fields become ints.
func recordValue(fields map[string]any, unsigned map[string]uint64) ref.Val {
	for k, v := range unsigned {
		n, clamped := safe.Int64(v)
		if clamped {
			return types.NewErr("%s = %d is out of range", k, v)
		}
		fields[k] = n
	}
	return types.DefaultTypeAdapter.NativeToValue(fields)
}

func headerValue(h elfmodel.Header) map[string]any {
	entry, _ := safe.Int64(h.Entry)
	return map[string]any{
		"class":   h.Class,
		"data":    h.Data,
		"machine": h.Machine,
		"type":    h.Type,
		"entry":   entry,
		"flags":   int64(h.Flags),
	}
}
