package testutil

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

const elf32HeaderSize = 52

// SectionSpec describes a section written by ELFBuilder.
type SectionSpec struct {
	Name  string
	Type  elf.SectionType
	Flags elf.SectionFlag
	Addr  uint32
	Align uint32
	// Data is the file contents; nil with a non-zero Size writes zeros.
	Data []byte
	// Size is used when Data is nil, e.g. for SHT_NOBITS.
	Size uint32
}

// SymbolSpec describes a .symtab entry written by ELFBuilder.
type SymbolSpec struct {
	Name    string
	Value   uint32
	Size    uint32
	Type    elf.SymType
	Bind    elf.SymBind
	Section string // section name; empty means Shndx is used as is
	Shndx   elf.SectionIndex
}

// ELFBuilder writes small ELF32 images for tests.
type ELFBuilder struct {
	order      binary.ByteOrder
	machine    elf.Machine
	flags      uint32
	entry      uint32
	sections   []SectionSpec
	symbols    []SymbolSpec
	attributes []byte
	noSymtab   bool
}

// NewELFBuilder returns a builder for a little-endian EM_ARM executable with
// EABI version 5 soft-float flags.
func NewELFBuilder() *ELFBuilder {
	return &ELFBuilder{
		order:   binary.LittleEndian,
		machine: elf.EM_ARM,
		flags:   0x05000200,
	}
}

// ByteOrder sets the data encoding.
func (b *ELFBuilder) ByteOrder(order binary.ByteOrder) *ELFBuilder {
	b.order = order
	return b
}

// Machine sets e_machine.
func (b *ELFBuilder) Machine(m elf.Machine) *ELFBuilder {
	b.machine = m
	return b
}

// Flags sets e_flags.
func (b *ELFBuilder) Flags(flags uint32) *ELFBuilder {
	b.flags = flags
	return b
}

// Entry sets e_entry.
func (b *ELFBuilder) Entry(entry uint32) *ELFBuilder {
	b.entry = entry
	return b
}

// Section appends a section.
func (b *ELFBuilder) Section(s SectionSpec) *ELFBuilder {
	b.sections = append(b.sections, s)
	return b
}

// Symbol appends a symbol table entry.
func (b *ELFBuilder) Symbol(s SymbolSpec) *ELFBuilder {
	b.symbols = append(b.symbols, s)
	return b
}

// UpdateSection applies fn to every section with the name.
func (b *ELFBuilder) UpdateSection(name string, fn func(*SectionSpec)) *ELFBuilder {
	for i := range b.sections {
		if b.sections[i].Name == name {
			fn(&b.sections[i])
		}
	}
	return b
}

// UpdateSymbol applies fn to every symbol with the name.
func (b *ELFBuilder) UpdateSymbol(name string, fn func(*SymbolSpec)) *ELFBuilder {
	for i := range b.symbols {
		if b.symbols[i].Name == name {
			fn(&b.symbols[i])
		}
	}
	return b
}

// RemoveSymbol drops every symbol with the name.
func (b *ELFBuilder) RemoveSymbol(name string) *ELFBuilder {
	b.symbols = slices.DeleteFunc(b.symbols, func(s SymbolSpec) bool { return s.Name == name })
	return b
}

// RemoveSection drops the section and the symbols defined in it.
func (b *ELFBuilder) RemoveSection(name string) *ELFBuilder {
	b.sections = slices.DeleteFunc(b.sections, func(s SectionSpec) bool { return s.Name == name })
	b.symbols = slices.DeleteFunc(b.symbols, func(s SymbolSpec) bool { return s.Section == name })
	return b
}

// Attributes sets the contents of the .ARM.attributes section. Nil omits it.
func (b *ELFBuilder) Attributes(data []byte) *ELFBuilder {
	b.attributes = data
	return b
}

// WithoutSymtab omits .symtab and .strtab.
func (b *ELFBuilder) WithoutSymtab() *ELFBuilder {
	b.noSymtab = true
	return b
}

type outSection struct {
	name    string
	typ     elf.SectionType
	flags   elf.SectionFlag
	addr    uint32
	align   uint32
	data    []byte
	size    uint32
	link    uint32
	info    uint32
	entsize uint32
}

// Bytes renders the image.
func (b *ELFBuilder) Bytes() ([]byte, error) {
	secs := []outSection{{}}
	index := make(map[string]int)
	for _, s := range b.sections {
		data := s.Data
		size := s.Size
		if data == nil && s.Type != elf.SHT_NOBITS {
			data = make([]byte, size)
		}
		if data != nil {
			size = uint32(len(data))
		}
		index[s.Name] = len(secs)
		secs = append(secs, outSection{
			name: s.Name, typ: s.Type, flags: s.Flags, addr: s.Addr,
			align: s.Align, data: data, size: size,
		})
	}

	if b.attributes != nil {
		index[".ARM.attributes"] = len(secs)
		secs = append(secs, outSection{
			name: ".ARM.attributes", typ: 0x70000003, align: 1,
			data: b.attributes, size: uint32(len(b.attributes)),
		})
	}

	if !b.noSymtab {
		symtab, strtab, locals, err := b.symbolTable(index)
		if err != nil {
			return nil, err
		}
		symIdx := len(secs)
		secs = append(secs,
			outSection{
				name: ".symtab", typ: elf.SHT_SYMTAB, align: 4, data: symtab,
				size: uint32(len(symtab)), link: uint32(symIdx + 1), info: locals, entsize: elf.Sym32Size,
			},
			outSection{name: ".strtab", typ: elf.SHT_STRTAB, align: 1, data: strtab, size: uint32(len(strtab))},
		)
	}

	shstrndx := len(secs)
	secs = append(secs, outSection{name: ".shstrtab", typ: elf.SHT_STRTAB, align: 1})
	shstrtab, nameOff := stringTable(sectionNames(secs))
	secs[shstrndx].data = shstrtab
	secs[shstrndx].size = uint32(len(shstrtab))

	var body bytes.Buffer
	body.Write(make([]byte, elf32HeaderSize))
	offsets := make([]uint32, len(secs))
	for i, s := range secs {
		if i == 0 || s.typ == elf.SHT_NOBITS {
			continue
		}
		pad(&body, s.align)
		offsets[i] = uint32(body.Len())
		body.Write(s.data)
	}
	pad(&body, 4)
	shoff := uint32(body.Len())

	for i, s := range secs {
		sh := elf.Section32{
			Name:      nameOff[s.name],
			Type:      uint32(s.typ),
			Flags:     uint32(s.flags),
			Addr:      s.addr,
			Off:       offsets[i],
			Size:      s.size,
			Link:      s.link,
			Info:      s.info,
			Addralign: s.align,
			Entsize:   s.entsize,
		}
		if i == 0 {
			sh = elf.Section32{}
		}
		if err := binary.Write(&body, b.order, &sh); err != nil {
			return nil, err
		}
	}

	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(b.machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     b.entry,
		Shoff:     shoff,
		Flags:     b.flags,
		Ehsize:    elf32HeaderSize,
		Phentsize: 32,
		Shentsize: 40,
		Shnum:     uint16(len(secs)),
		Shstrndx:  uint16(shstrndx),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	if b.order == binary.BigEndian {
		hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	}
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var head bytes.Buffer
	if err := binary.Write(&head, b.order, &hdr); err != nil {
		return nil, err
	}

	out := body.Bytes()
	copy(out, head.Bytes())
	return out, nil
}

// Write renders the image into a temporary file and returns its path.
func (b *ELFBuilder) Write(t *testing.T) string {
	t.Helper()
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("render ELF fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "firmware.elf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write ELF fixture: %v", err)
	}
	return path
}

func (b *ELFBuilder) symbolTable(index map[string]int) (symtab, strtab []byte, locals uint32, err error) {
	names := make([]string, 0, len(b.symbols))
	for _, s := range b.symbols {
		names = append(names, s.Name)
	}
	strtab, nameOff := stringTable(names)

	var buf bytes.Buffer
	if err := binary.Write(&buf, b.order, &elf.Sym32{}); err != nil {
		return nil, nil, 0, err
	}
	locals = 1
	leading := true
	for _, s := range b.symbols {
		shndx := uint16(s.Shndx)
		if s.Section != "" {
			i, ok := index[s.Section]
			if !ok {
				return nil, nil, 0, fmt.Errorf("symbol %s: unknown section %s", s.Name, s.Section)
			}
			shndx = uint16(i)
		}
		if leading && s.Bind == elf.STB_LOCAL {
			locals++
		} else {
			leading = false
		}
		sym := elf.Sym32{
			Name:  nameOff[s.Name],
			Value: s.Value,
			Size:  s.Size,
			Info:  elf.ST_INFO(s.Bind, s.Type),
			Shndx: shndx,
		}
		if err := binary.Write(&buf, b.order, &sym); err != nil {
			return nil, nil, 0, err
		}
	}
	return buf.Bytes(), strtab, locals, nil
}

func sectionNames(secs []outSection) []string {
	names := make([]string, 0, len(secs))
	for _, s := range secs[1:] {
		names = append(names, s.name)
	}
	return names
}

// stringTable builds an ELF string table with a leading NUL. Repeated names
// share one entry.
func stringTable(names []string) ([]byte, map[string]uint32) {
	buf := []byte{0}
	off := map[string]uint32{"": 0}
	for _, n := range names {
		if _, ok := off[n]; ok {
			continue
		}
		off[n] = uint32(len(buf))
		buf = append(buf, n...)
		buf = append(buf, 0)
	}
	return buf, off
}

func pad(buf *bytes.Buffer, align uint32) {
	if align <= 1 {
		return
	}
	for uint32(buf.Len())%align != 0 {
		buf.WriteByte(0)
	}
}
