package elfmodel

import (
	"slices"
)

// RequireUniqueSymbol returns the only symbol with the given name.
// It fails with *NotFoundError when there is none and *NotUniqueError when
// there are several.
func (m *Model) RequireUniqueSymbol(name string) (Symbol, error) {
	syms := m.symbols[name]
	switch len(syms) {
	case 0:
		return Symbol{}, &NotFoundError{Kind: "symbol", Name: name}
	case 1:
		return syms[0], nil
	default:
		return Symbol{}, &NotUniqueError{Name: name, Count: len(syms)}
	}
}

// RequireSection returns the named section or *NotFoundError.
func (m *Model) RequireSection(name string) (Section, error) {
	sec, ok := m.sections[name]
	if !ok {
		return Section{}, &NotFoundError{Kind: "section", Name: name}
	}
	return sec, nil
}

// HasSymbol reports whether at least one retained symbol has the name.
func (m *Model) HasSymbol(name string) bool {
	return len(m.symbols[name]) > 0
}

// HasSection reports whether a retained section has the name.
func (m *Model) HasSection(name string) bool {
	_, ok := m.sections[name]
	return ok
}

// Section returns the named section.
func (m *Model) Section(name string) (Section, bool) {
	sec, ok := m.sections[name]
	return sec, ok
}

// SymbolsNamed returns a copy of every retained symbol with the name, in
// symbol table order.
func (m *Model) SymbolsNamed(name string) []Symbol {
	return slices.Clone(m.symbols[name])
}

// SectionNames returns retained section names in order of first appearance.
func (m *Model) SectionNames() []string {
	return slices.Clone(m.sectionOrder)
}

// SymbolNames returns retained symbol names in order of first appearance.
func (m *Model) SymbolNames() []string {
	return slices.Clone(m.symbolOrder)
}

// SectionsInOrder returns every retained section in section table order.
// Unlike Section and SectionNames, a repeated name appears once per
// occurrence.
func (m *Model) SectionsInOrder() []Section {
	return slices.Clone(m.sectionList)
}

// SymbolsInOrder returns every retained symbol grouped by name, names in
// order of first appearance.
func (m *Model) SymbolsInOrder() []Symbol {
	var out []Symbol
	for _, name := range m.symbolOrder {
		out = append(out, m.symbols[name]...)
	}
	return out
}
