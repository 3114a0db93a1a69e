package elfmodel

import (
	"strings"

	"github.com/samber/lo"
)

// CppRuntimePrefixes mark symbols pulled in by C++ support code: static
// destructor registration and mangled names.
var CppRuntimePrefixes = []string{"__cxa_atexit", "__dso_handle", "_Z"}

// HasCppRuntime reports whether any retained symbol indicates C++ runtime
// support. No built-in rule depends on it.
func (m *Model) HasCppRuntime() bool {
	return len(m.SymbolsWithPrefix(CppRuntimePrefixes...)) > 0
}

// SymbolsWithPrefix returns retained symbol names starting with any of the
// prefixes, in order of first appearance.
func (m *Model) SymbolsWithPrefix(prefixes ...string) []string {
	return lo.Filter(m.symbolOrder, func(name string, _ int) bool {
		return lo.SomeBy(prefixes, func(p string) bool {
			return strings.HasPrefix(name, p)
		})
	})
}
