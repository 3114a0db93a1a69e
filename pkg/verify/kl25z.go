package verify

import (
	"debug/elf"
	"fmt"

	"github.com/samber/lo"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/elfmodel"
)

// KL25Z memory map and toolchain expectations.
const (
	// VectorTableSize is 16 core exceptions plus 32 IRQs, one word each.
	VectorTableSize = 48 * 4
	// FlashConfigAddr is where the flash controller reads its protection
	// bytes after reset.
	FlashConfigAddr = 0x0000_0400
	FlashConfigSize = 16
	SectionAlign    = 4
)

// Symbol names the runtime bootstrap depends on.
const (
	SymbolVectorTable     = "__isr_vector"
	SymbolFlashConfig     = "__FlashConfig"
	SymbolResetHandler    = "Reset_Handler"
	SymbolInitArrayStart  = "__init_array_start"
	SymbolInitArrayEnd    = "__init_array_end"
	SymbolFiniArrayStart  = "__fini_array_start"
	SymbolFiniArrayEnd    = "__fini_array_end"
	SymbolLibcInitArray   = "__libc_init_array"
	SymbolHeapLimit       = "__HeapLimit"
	SymbolStackLimit      = "__StackLimit"
	SymbolBootMarker      = "__boot_marker"
	SectionVectorTable    = ".isr_vector"
	SectionFlashConfig    = ".FlashConfig"
	SectionInitArray      = ".init_array"
	SectionFiniArray      = ".fini_array"
	thumbISAUseThumb1Only = 1
)

// ExitSymbols are linked in only when the image can return from main or call
// exit, which is when destructors registered in .fini_array can run.
var ExitSymbols = []string{
	"__libc_fini_array",
	"exit",
	"_exit",
	"__call_exitprocs",
	"__register_exitproc",
	"__aeabi_atexit",
}

// KL25ZRules returns the built-in checks for FRDM-KL25Z firmware in the order
// they are reported.
func KL25ZRules() []Rule {
	return []Rule{
		NewRule("elf-header", "ELF is 32-bit little-endian ARM", checkHeader),
		NewRule("cpu-arch", "built for ARMv6S-M (Cortex-M0+)", checkCPUArch),
		NewRule("thumb-isa", "uses 16-bit Thumb instructions only", checkThumbISA),
		NewRule("isr-vector-symbol", "__isr_vector is a 192-byte object at 0x0", checkVectorTableSymbol),
		NewRule("isr-vector-section", ".isr_vector is loaded at 0x0", checkVectorTableSection),
		NewRule("flash-config-symbol", "__FlashConfig is a 16-byte object at 0x400", checkFlashConfigSymbol),
		NewRule("flash-config-section", ".FlashConfig is loaded at 0x400", checkFlashConfigSection),
		NewRule("reset-handler", "Reset_Handler is a function", checkResetHandler),
		NewRule("init-array", "constructor table is consistent and run by libc", checkInitArray),
		NewRule("fini-array", "destructor table is consistent when the image can exit", checkFiniArray),
		NewRule("heap-below-stack", "heap ends at or below the stack limit", checkHeapBelowStack),
		NewRule("boot-marker", "__boot_marker is present", checkBootMarker),
	}
}

func checkHeader(m *elfmodel.Model) error {
	e := expect("ELF header")
	e.str("class", m.Header.Class, elf.ELFCLASS32.String())
	e.str("data", m.Header.Data, elf.ELFDATA2LSB.String())
	e.str("machine", m.Header.Machine, elf.EM_ARM.String())
	return e.err()
}

func checkCPUArch(m *elfmodel.Model) error {
	e := expect(elfmodel.AttributesSection)
	expectIntAttr(e, m.Attributes, "TAG_CPU_ARCH", elfmodel.CPUArchV6SM)
	expectIntAttr(e, m.Attributes, "TAG_CPU_ARCH_PROFILE", elfmodel.ProfileMicro)
	return e.err()
}

func checkThumbISA(m *elfmodel.Model) error {
	e := expect(elfmodel.AttributesSection)
	expectIntAttr(e, m.Attributes, "TAG_THUMB_ISA_USE", thumbISAUseThumb1Only)
	return e.err()
}

func expectIntAttr(e *expectations, attrs elfmodel.Attributes, tag string, want uint64) {
	got, ok := attrs.Int(tag)
	if !ok {
		e.failf("%s missing", tag)
		return
	}
	if got != want {
		e.failf("%s = %s, want %s", tag, elfmodel.IntValue(got), elfmodel.IntValue(want))
	}
}

func checkVectorTableSymbol(m *elfmodel.Model) error {
	return checkObjectSymbol(m, SymbolVectorTable, 0, VectorTableSize)
}

func checkVectorTableSection(m *elfmodel.Model) error {
	return checkLoadedSection(m, SectionVectorTable, 0, VectorTableSize)
}

func checkFlashConfigSymbol(m *elfmodel.Model) error {
	return checkObjectSymbol(m, SymbolFlashConfig, FlashConfigAddr, FlashConfigSize)
}

func checkFlashConfigSection(m *elfmodel.Model) error {
	return checkLoadedSection(m, SectionFlashConfig, FlashConfigAddr, FlashConfigSize)
}

func checkObjectSymbol(m *elfmodel.Model, name string, addr, size uint64) error {
	sym, err := m.RequireUniqueSymbol(name)
	if err != nil {
		return err
	}
	e := expect(name)
	e.addr("addr", sym.Addr, addr)
	e.size("size", sym.Size, size)
	e.str("type", sym.Type, elf.STT_OBJECT.String())
	return e.err()
}

func checkLoadedSection(m *elfmodel.Model, name string, addr, size uint64) error {
	sec, err := m.RequireSection(name)
	if err != nil {
		return err
	}
	e := expect(name)
	e.addr("addr", sec.Addr, addr)
	e.size("size", sec.Size, size)
	e.str("type", sec.Type, elf.SHT_PROGBITS.String())
	e.that(sec.IsAllocatable(), "not allocatable (flags %q)", sec.FlagsString)
	e.size("align", sec.Align, SectionAlign)
	return e.err()
}

func checkResetHandler(m *elfmodel.Model) error {
	sym, err := m.RequireUniqueSymbol(SymbolResetHandler)
	if err != nil {
		return err
	}
	e := expect(SymbolResetHandler)
	e.str("type", sym.Type, elf.STT_FUNC.String())
	return e.err()
}

func checkInitArray(m *elfmodel.Model) error {
	sec, err := m.RequireSection(SectionInitArray)
	if err != nil {
		return err
	}
	if err := checkArrayBounds(m, sec, SymbolInitArrayStart, SymbolInitArrayEnd); err != nil {
		return err
	}
	if !m.HasSymbol(SymbolLibcInitArray) {
		return fmt.Errorf("%s missing, constructors in %s never run", SymbolLibcInitArray, SectionInitArray)
	}
	return nil
}

func checkFiniArray(m *elfmodel.Model) error {
	sec, err := m.RequireSection(SectionFiniArray)
	if err != nil {
		return err
	}
	e := expect(SectionFiniArray)
	e.that(sec.IsAllocatable() && sec.IsWritable(), "not allocatable and writable (flags %q)", sec.FlagsString)
	e.that(sec.Align%SectionAlign == 0, "align = %d, want a multiple of %d", sec.Align, SectionAlign)
	if err := e.err(); err != nil {
		return err
	}

	if sec.Size == 0 || !CanExit(m) {
		return nil
	}
	return checkArrayBounds(m, sec, SymbolFiniArrayStart, SymbolFiniArrayEnd)
}

// CanExit reports whether the image links any of ExitSymbols.
func CanExit(m *elfmodel.Model) bool {
	return lo.SomeBy(ExitSymbols, m.HasSymbol)
}

func checkArrayBounds(m *elfmodel.Model, sec elfmodel.Section, startName, endName string) error {
	start, err := m.RequireUniqueSymbol(startName)
	if err != nil {
		return err
	}
	end, err := m.RequireUniqueSymbol(endName)
	if err != nil {
		return err
	}
	if end.Addr < start.Addr {
		return fmt.Errorf("%s (%#010x) is below %s (%#010x)", endName, end.Addr, startName, start.Addr)
	}
	if span := end.Addr - start.Addr; span != sec.Size {
		return fmt.Errorf("%s - %s = %d, %s size is %d", endName, startName, span, sec.Name, sec.Size)
	}
	return nil
}

func checkHeapBelowStack(m *elfmodel.Model) error {
	heap, err := m.RequireUniqueSymbol(SymbolHeapLimit)
	if err != nil {
		return err
	}
	stack, err := m.RequireUniqueSymbol(SymbolStackLimit)
	if err != nil {
		return err
	}
	if heap.Addr > stack.Addr {
		return fmt.Errorf("%s (%#010x) overlaps the stack, %s is %#010x",
			SymbolHeapLimit, heap.Addr, SymbolStackLimit, stack.Addr)
	}
	return nil
}

func checkBootMarker(m *elfmodel.Model) error {
	if !m.HasSymbol(SymbolBootMarker) {
		return &elfmodel.NotFoundError{Kind: "symbol", Name: SymbolBootMarker}
	}
	return nil
}
