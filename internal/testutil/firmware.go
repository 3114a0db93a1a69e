package testutil

import (
	"debug/elf"
	"encoding/binary"
)

// Attr is one build attribute for AttributesBlob.
type Attr struct {
	Tag uint64
	Int uint64
	Str string
	// IsString encodes Str as NTBS instead of Int as ULEB128.
	IsString bool
}

// ULEB returns an integer attribute.
func ULEB(tag, v uint64) Attr {
	return Attr{Tag: tag, Int: v}
}

// NTBS returns a string attribute.
func NTBS(tag uint64, s string) Attr {
	return Attr{Tag: tag, Str: s, IsString: true}
}

// AttributesBlob encodes a .ARM.attributes section with one vendor
// subsection holding one Tag_File scope.
func AttributesBlob(order binary.ByteOrder, vendor string, attrs ...Attr) []byte {
	var body []byte
	for _, a := range attrs {
		body = binary.AppendUvarint(body, a.Tag)
		if a.IsString {
			body = append(body, a.Str...)
			body = append(body, 0)
		} else {
			body = binary.AppendUvarint(body, a.Int)
		}
	}
	return AttributesSection(order, VendorSubsection(order, vendor, FileScope(order, body)))
}

// FileScope wraps encoded attributes into a Tag_File sub-subsection.
func FileScope(order binary.ByteOrder, encoded []byte) []byte {
	out := []byte{1, 0, 0, 0, 0}
	order.PutUint32(out[1:], uint32(len(encoded)+5))
	return append(out, encoded...)
}

// VendorSubsection wraps sub-subsections into a vendor subsection.
func VendorSubsection(order binary.ByteOrder, vendor string, scopes ...[]byte) []byte {
	out := make([]byte, 4, 64)
	out = append(out, vendor...)
	out = append(out, 0)
	for _, s := range scopes {
		out = append(out, s...)
	}
	order.PutUint32(out, uint32(len(out)))
	return out
}

// AttributesSection prefixes subsections with the format version 'A'.
func AttributesSection(order binary.ByteOrder, subsections ...[]byte) []byte {
	out := []byte{'A'}
	for _, s := range subsections {
		out = append(out, s...)
	}
	return out
}

// KL25Z layout of the fixture image.
const (
	FlashConfigAddr = 0x0000_0400
	TextAddr        = 0x0000_0410
	InitArrayAddr   = 0x0000_2000
	InitArraySize   = 40
	FiniArrayAddr   = InitArrayAddr + InitArraySize
	FiniArraySize   = 4
	DataAddr        = 0x1fff_f000
	BssAddr         = 0x1fff_f100
	HeapAddr        = 0x1fff_f400
	HeapSize        = 0x400
	StackLimit      = 0x2000_2c00
	StackTop        = 0x2000_3000
)

// KL25ZAttributes returns the build attributes GCC emits for -mcpu=cortex-m0plus.
func KL25ZAttributes() []byte {
	return AttributesBlob(binary.LittleEndian, "aeabi",
		NTBS(5, "cortex-m0plus"),
		ULEB(6, 0x0C),
		ULEB(7, 'M'),
		ULEB(9, 1),
		ULEB(17, 1),
		ULEB(20, 1),
		ULEB(21, 1),
		ULEB(23, 3),
		ULEB(24, 1),
		ULEB(25, 1),
		ULEB(26, 1),
		ULEB(30, 6),
		ULEB(34, 0),
		ULEB(18, 4),
	)
}

// KL25ZImage returns a builder for a well-formed FRDM-KL25Z firmware image:
// vector table at 0, flash configuration at 0x400, init/fini arrays, heap
// below the stack, a boot marker, plus the usual records the model drops
// (file and section symbols, mapping symbols, undefined references, debug
// sections).
func KL25ZImage() *ELFBuilder {
	wax := elf.SHF_ALLOC | elf.SHF_EXECINSTR
	wa := elf.SHF_WRITE | elf.SHF_ALLOC

	b := NewELFBuilder().
		Entry(TextAddr+1).
		Attributes(KL25ZAttributes()).
		Section(SectionSpec{Name: ".isr_vector", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC, Addr: 0, Align: 4, Size: 192}).
		Section(SectionSpec{Name: ".FlashConfig", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC, Addr: FlashConfigAddr, Align: 4, Size: 16}).
		Section(SectionSpec{Name: ".text", Type: elf.SHT_PROGBITS, Flags: wax, Addr: TextAddr, Align: 4, Size: 0x200}).
		Section(SectionSpec{Name: ".init_array", Type: elf.SHT_INIT_ARRAY, Flags: wa, Addr: InitArrayAddr, Align: 4, Size: InitArraySize}).
		Section(SectionSpec{Name: ".fini_array", Type: elf.SHT_FINI_ARRAY, Flags: wa, Addr: FiniArrayAddr, Align: 4, Size: FiniArraySize}).
		Section(SectionSpec{Name: ".data", Type: elf.SHT_PROGBITS, Flags: wa, Addr: DataAddr, Align: 4, Size: 0x20}).
		Section(SectionSpec{Name: ".bss", Type: elf.SHT_NOBITS, Flags: wa, Addr: BssAddr, Align: 4, Size: 0x100}).
		Section(SectionSpec{Name: ".heap", Type: elf.SHT_NOBITS, Flags: wa, Addr: HeapAddr, Align: 8, Size: HeapSize}).
		Section(SectionSpec{Name: ".stack_dummy", Type: elf.SHT_NOBITS, Flags: wa, Addr: StackLimit, Align: 8, Size: StackTop - StackLimit}).
		Section(SectionSpec{Name: ".comment", Type: elf.SHT_PROGBITS, Flags: elf.SHF_MERGE | elf.SHF_STRINGS, Align: 1, Data: []byte("GCC: (Arm GNU Toolchain 13.2) 13.2.1\x00")}).
		Section(SectionSpec{Name: ".debug_info", Type: elf.SHT_PROGBITS, Align: 1, Size: 64})

	return b.
		Symbol(SymbolSpec{Name: "startup_MKL25Z4.S", Type: elf.STT_FILE, Bind: elf.STB_LOCAL, Shndx: elf.SHN_ABS}).
		Symbol(SymbolSpec{Name: "", Type: elf.STT_SECTION, Bind: elf.STB_LOCAL, Section: ".text", Value: TextAddr}).
		Symbol(SymbolSpec{Name: "$t", Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL, Section: ".text", Value: TextAddr}).
		Symbol(SymbolSpec{Name: "$d", Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL, Section: ".isr_vector", Value: 0}).
		Symbol(SymbolSpec{Name: "counter", Type: elf.STT_OBJECT, Bind: elf.STB_LOCAL, Section: ".bss", Value: BssAddr, Size: 4}).
		Symbol(SymbolSpec{Name: "counter", Type: elf.STT_OBJECT, Bind: elf.STB_LOCAL, Section: ".bss", Value: BssAddr + 4, Size: 4}).
		Symbol(SymbolSpec{Name: "__init_array_start", Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL, Section: ".init_array", Value: InitArrayAddr}).
		Symbol(SymbolSpec{Name: "__init_array_end", Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL, Section: ".init_array", Value: InitArrayAddr + InitArraySize}).
		Symbol(SymbolSpec{Name: "__fini_array_start", Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL, Section: ".fini_array", Value: FiniArrayAddr}).
		Symbol(SymbolSpec{Name: "__fini_array_end", Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL, Section: ".fini_array", Value: FiniArrayAddr + FiniArraySize}).
		Symbol(SymbolSpec{Name: "__isr_vector", Type: elf.STT_OBJECT, Bind: elf.STB_GLOBAL, Section: ".isr_vector", Value: 0, Size: 192}).
		Symbol(SymbolSpec{Name: "__FlashConfig", Type: elf.STT_OBJECT, Bind: elf.STB_GLOBAL, Section: ".FlashConfig", Value: FlashConfigAddr, Size: 16}).
		Symbol(SymbolSpec{Name: "Reset_Handler", Type: elf.STT_FUNC, Bind: elf.STB_GLOBAL, Section: ".text", Value: TextAddr + 1, Size: 0x40}).
		Symbol(SymbolSpec{Name: "main", Type: elf.STT_FUNC, Bind: elf.STB_GLOBAL, Section: ".text", Value: TextAddr + 0x41, Size: 0x20}).
		Symbol(SymbolSpec{Name: "__libc_init_array", Type: elf.STT_FUNC, Bind: elf.STB_GLOBAL, Section: ".text", Value: TextAddr + 0x61, Size: 0x48}).
		Symbol(SymbolSpec{Name: "__boot_marker", Type: elf.STT_OBJECT, Bind: elf.STB_GLOBAL, Section: ".data", Value: DataAddr, Size: 4}).
		Symbol(SymbolSpec{Name: "__HeapBase", Type: elf.STT_NOTYPE, Bind: elf.STB_GLOBAL, Section: ".heap", Value: HeapAddr}).
		Symbol(SymbolSpec{Name: "__HeapLimit", Type: elf.STT_NOTYPE, Bind: elf.STB_GLOBAL, Section: ".heap", Value: HeapAddr + HeapSize}).
		Symbol(SymbolSpec{Name: "__StackLimit", Type: elf.STT_NOTYPE, Bind: elf.STB_GLOBAL, Section: ".stack_dummy", Value: StackLimit}).
		Symbol(SymbolSpec{Name: "__StackTop", Type: elf.STT_NOTYPE, Bind: elf.STB_GLOBAL, Shndx: elf.SHN_ABS, Value: StackTop}).
		Symbol(SymbolSpec{Name: "__deregister_frame_info", Type: elf.STT_NOTYPE, Bind: elf.STB_WEAK, Shndx: elf.SHN_UNDEF})
}
