package elfmodel

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/safe"
)

// Reader gives raw access to an open ELF image. Every record it hands out is
// only valid until Close; Build drains it into a Model before closing.
type Reader struct {
	path string
	file *os.File
	size int64
	elf  *elf.File
}

// Open validates path and decodes the ELF container around it.
// Path problems are reported as *ConfigError before any parsing happens.
func Open(path string) (*Reader, error) {
	f, info, err := safe.OpenRegular(path, nil)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		_ = f.Close()
		return nil, &StructuralError{Path: path, Component: "ELF header", Err: err}
	}

	return &Reader{
		path: path,
		file: f,
		size: info.Size(),
		elf:  ef,
	}, nil
}

// Path returns the path the reader was opened with.
func (r *Reader) Path() string {
	return r.path
}

// FileHeader returns the decoded identification and header fields.
func (r *Reader) FileHeader() elf.FileHeader {
	return r.elf.FileHeader
}

// ByteOrder returns the byte order declared in the ELF identification.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.elf.ByteOrder
}

// Flags reads e_flags, which debug/elf does not expose.
func (r *Reader) Flags() (uint32, error) {
	var off int64
	switch r.elf.Class {
	case elf.ELFCLASS32:
		off = 36
	case elf.ELFCLASS64:
		off = 48
	default:
		return 0, fmt.Errorf("unknown ELF class %v", r.elf.Class)
	}

	var buf [4]byte
	if _, err := r.file.ReadAt(buf[:], off); err != nil {
		return 0, fmt.Errorf("read e_flags: %w", err)
	}
	return r.elf.ByteOrder.Uint32(buf[:]), nil
}

// Sections returns the raw section table in file order.
func (r *Reader) Sections() []*elf.Section {
	return r.elf.Sections
}

// Symbols returns the raw .symtab entries in table order, without the null
// entry at index 0.
func (r *Reader) Symbols() ([]elf.Symbol, error) {
	syms, err := r.elf.Symbols()
	if err != nil {
		return nil, err
	}
	return syms, nil
}

// SectionData returns the contents of the named section. The boolean is false
// when the section is absent.
func (r *Reader) SectionData(name string) ([]byte, bool, error) {
	sec := r.elf.Section(name)
	if sec == nil {
		return nil, false, nil
	}
	data, err := sec.Data()
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

// Digest returns the xxh3 hash of the whole file.
func (r *Reader) Digest() (uint64, error) {
	h := xxh3.New()
	if _, err := io.Copy(h, io.NewSectionReader(r.file, 0, r.size)); err != nil {
		return 0, fmt.Errorf("hash firmware: %w", err)
	}
	return h.Sum64(), nil
}

// Close releases the file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}
