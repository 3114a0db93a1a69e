package elfmodel

import (
	"debug/elf"
	"encoding/json"
	"strconv"
)

// SectionIndex is a symbol's st_shndx. Reserved indices render symbolically.
type SectionIndex uint16

func (i SectionIndex) String() string {
	switch elf.SectionIndex(i) {
	case elf.SHN_UNDEF:
		return "SHN_UNDEF"
	case elf.SHN_ABS:
		return "SHN_ABS"
	case elf.SHN_COMMON:
		return "SHN_COMMON"
	case elf.SHN_XINDEX:
		return "SHN_XINDEX"
	}
	return strconv.Itoa(int(i))
}

// IsUndefined reports SHN_UNDEF.
func (i SectionIndex) IsUndefined() bool {
	return elf.SectionIndex(i) == elf.SHN_UNDEF
}

// IsReserved reports indices in the SHN_LORESERVE..SHN_HIRESERVE range.
func (i SectionIndex) IsReserved() bool {
	return elf.SectionIndex(i) >= elf.SHN_LORESERVE
}

func (i SectionIndex) MarshalJSON() ([]byte, error) {
	if i.IsUndefined() || i.IsReserved() {
		return json.Marshal(i.String())
	}
	return json.Marshal(uint16(i))
}

// Symbol is a detached .symtab entry. Names are not unique in a symbol table.
type Symbol struct {
	Name  string       `json:"name"`
	Type  string       `json:"type"`
	Bind  string       `json:"bind"`
	Shndx SectionIndex `json:"shndx"`
	Addr  uint64       `json:"addr"`
	Size  uint64       `json:"size"`
}

// IsFunction reports STT_FUNC.
func (s Symbol) IsFunction() bool {
	return s.Type == elf.STT_FUNC.String()
}

// IsObject reports STT_OBJECT.
func (s Symbol) IsObject() bool {
	return s.Type == elf.STT_OBJECT.String()
}

// IsGlobal reports STB_GLOBAL or STB_WEAK binding.
func (s Symbol) IsGlobal() bool {
	return s.Bind == elf.STB_GLOBAL.String() || s.Bind == elf.STB_WEAK.String()
}

func symbolFrom(raw elf.Symbol) Symbol {
	return Symbol{
		Name:  raw.Name,
		Type:  elf.ST_TYPE(raw.Info).String(),
		Bind:  elf.ST_BIND(raw.Info).String(),
		Shndx: SectionIndex(raw.Section),
		Addr:  raw.Value,
		Size:  raw.Size,
	}
}
