package elfmodel

import (
	"debug/elf"
	"strings"
)

// Section is a detached section header.
type Section struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Flags       uint64 `json:"flags"`
	FlagsString string `json:"flags_string"`
	Addr        uint64 `json:"addr"`
	Size        uint64 `json:"size"`
	Align       uint64 `json:"align"`
}

// IsAllocatable reports whether the section occupies memory at run time.
func (s Section) IsAllocatable() bool {
	return s.Flags&uint64(elf.SHF_ALLOC) != 0
}

// IsWritable reports whether the section is writable at run time.
func (s Section) IsWritable() bool {
	return s.Flags&uint64(elf.SHF_WRITE) != 0
}

// IsExecutable reports whether the section contains instructions.
func (s Section) IsExecutable() bool {
	return s.Flags&uint64(elf.SHF_EXECINSTR) != 0
}

// End returns the first address past the section.
func (s Section) End() uint64 {
	return s.Addr + s.Size
}

// Processor-specific section types for EM_ARM, which debug/elf leaves unnamed.
var armSectionTypes = map[elf.SectionType]string{
	0x70000001: "SHT_ARM_EXIDX",
	0x70000002: "SHT_ARM_PREEMPTMAP",
	0x70000003: "SHT_ARM_ATTRIBUTES",
	0x70000004: "SHT_ARM_DEBUGOVERLAY",
	0x70000005: "SHT_ARM_OVERLAYSECTION",
}

func sectionTypeName(t elf.SectionType, machine elf.Machine) string {
	if machine == elf.EM_ARM {
		if name, ok := armSectionTypes[t]; ok {
			return name
		}
	}
	return t.String()
}

const (
	shfARMPurecode = 0x20000000
	shfExclude     = 0x80000000
	shfMaskOS      = 0x0ff00000
	shfMaskProc    = 0xf0000000
)

var flagLetters = []struct {
	bit    uint64
	letter byte
}{
	{uint64(elf.SHF_WRITE), 'W'},
	{uint64(elf.SHF_ALLOC), 'A'},
	{uint64(elf.SHF_EXECINSTR), 'X'},
	{uint64(elf.SHF_MERGE), 'M'},
	{uint64(elf.SHF_STRINGS), 'S'},
	{uint64(elf.SHF_INFO_LINK), 'I'},
	{uint64(elf.SHF_LINK_ORDER), 'L'},
	{uint64(elf.SHF_OS_NONCONFORMING), 'O'},
	{uint64(elf.SHF_GROUP), 'G'},
	{uint64(elf.SHF_TLS), 'T'},
	{uint64(elf.SHF_COMPRESSED), 'C'},
	{shfExclude, 'E'},
	{shfARMPurecode, 'y'},
}

// DescribeFlags renders section flags the way readelf prints them, e.g. "WA"
// or "AX". Remaining OS- or processor-specific bits show as 'o' and 'p'.
func DescribeFlags(flags uint64) string {
	var b strings.Builder
	rest := flags
	for _, f := range flagLetters {
		if flags&f.bit != 0 {
			b.WriteByte(f.letter)
			rest &^= f.bit
		}
	}
	if rest&shfMaskOS != 0 {
		b.WriteByte('o')
	}
	if rest&shfMaskProc != 0 {
		b.WriteByte('p')
	}
	return b.String()
}

func sectionFrom(raw *elf.Section, machine elf.Machine) Section {
	flags := uint64(raw.Flags)
	return Section{
		Name:        raw.Name,
		Type:        sectionTypeName(raw.Type, machine),
		Flags:       flags,
		FlagsString: DescribeFlags(flags),
		Addr:        raw.Addr,
		Size:        raw.Size,
		Align:       raw.Addralign,
	}
}
