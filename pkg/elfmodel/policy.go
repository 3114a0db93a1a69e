package elfmodel

import (
	"debug/elf"
	"strings"
)

// SymbolClass is the bucket a raw symbol falls into. Exactly one applies.
type SymbolClass int

const (
	SymbolRetained SymbolClass = iota
	SymbolUndefined
	SymbolMarkerType
	SymbolReservedPrefix
	SymbolUntyped
)

func (c SymbolClass) String() string {
	switch c {
	case SymbolRetained:
		return "retained"
	case SymbolUndefined:
		return "undefined-index"
	case SymbolMarkerType:
		return "marker-type"
	case SymbolReservedPrefix:
		return "reserved-prefix"
	case SymbolUntyped:
		return "untyped"
	}
	return "unknown"
}

// SectionClass is the bucket a raw section falls into. Exactly one applies.
type SectionClass int

const (
	SectionAllocatable SectionClass = iota
	SectionVendorAttributes
	SectionMetadata
)

func (c SectionClass) String() string {
	switch c {
	case SectionAllocatable:
		return "allocatable"
	case SectionVendorAttributes:
		return "vendor-attributes"
	case SectionMetadata:
		return "metadata"
	}
	return "unknown"
}

// Retained reports whether the section is kept in the model.
func (c SectionClass) Retained() bool {
	return c != SectionMetadata
}

const (
	// AttributesSection is the build-attributes section of the ARM EABI.
	AttributesSection = ".ARM.attributes"
	// MappingSymbolPrefix starts the ARM mapping symbols ($a, $t, $d, $x).
	MappingSymbolPrefix = "$"
)

// Policy decides which raw records become part of the model.
// The zero value is the default policy.
type Policy struct {
	// DropUntyped also drops STT_NOTYPE symbols. Linker-script symbols such as
	// __init_array_start or __StackLimit are untyped and the init array and
	// heap/stack checks need them, so untyped symbols are retained by default
	// even though they carry no type information.
	DropUntyped bool
}

// ClassifySymbol buckets a raw symbol. It is pure and total.
func (p Policy) ClassifySymbol(sym elf.Symbol) SymbolClass {
	typ := elf.ST_TYPE(sym.Info)
	switch {
	case sym.Section == elf.SHN_UNDEF:
		return SymbolUndefined
	case typ == elf.STT_FILE || typ == elf.STT_SECTION:
		return SymbolMarkerType
	case strings.HasPrefix(sym.Name, MappingSymbolPrefix):
		return SymbolReservedPrefix
	case p.DropUntyped && typ == elf.STT_NOTYPE:
		return SymbolUntyped
	}
	return SymbolRetained
}

// ClassifySection buckets a raw section header. It is pure and total.
func (p Policy) ClassifySection(hdr elf.SectionHeader) SectionClass {
	switch {
	case hdr.Flags&elf.SHF_ALLOC != 0:
		return SectionAllocatable
	case strings.HasPrefix(hdr.Name, AttributesSection):
		return SectionVendorAttributes
	}
	return SectionMetadata
}
