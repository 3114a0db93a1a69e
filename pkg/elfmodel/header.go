package elfmodel

import (
	"debug/elf"
)

// Header is the detached ELF file header.
// Class, Data and Machine carry the gABI names (ELFCLASS32, ELFDATA2LSB, EM_ARM).
type Header struct {
	Class   string `json:"class"`
	Data    string `json:"data"`
	Machine string `json:"machine"`
	Type    string `json:"type"`
	Entry   uint64 `json:"entry"`
	Flags   uint32 `json:"flags"`
}

func headerFrom(fh elf.FileHeader, flags uint32) Header {
	return Header{
		Class:   fh.Class.String(),
		Data:    fh.Data.String(),
		Machine: fh.Machine.String(),
		Type:    fh.Type.String(),
		Entry:   fh.Entry,
		Flags:   flags,
	}
}

// Is32Bit reports an ELFCLASS32 image.
func (h Header) Is32Bit() bool {
	return h.Class == elf.ELFCLASS32.String()
}

// IsLittleEndian reports an ELFDATA2LSB image.
func (h Header) IsLittleEndian() bool {
	return h.Data == elf.ELFDATA2LSB.String()
}

// ARM EABI e_flags fields.
const (
	EFARMEABIMask     = 0xff000000
	EFARMABIFloatHard = 0x00000400
	EFARMABIFloatSoft = 0x00000200
)

// EABIVersion returns the EABI version encoded in the top byte of the ARM
// e_flags (5 for current toolchains).
func (h Header) EABIVersion() uint32 {
	return (h.Flags & EFARMEABIMask) >> 24
}
