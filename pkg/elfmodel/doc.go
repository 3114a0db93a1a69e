// Package elfmodel decodes firmware ELF images into a detached, read-only model.
//
// Build opens the image, decodes the header, the .ARM.attributes build
// attributes, the symbol table and the section table, and closes the file
// again before returning. The resulting Model owns all of its data and can be
// queried concurrently by verification rules:
//
//	m, err := elfmodel.Build("build/firmware.elf", elfmodel.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	isr, err := m.RequireSection(".isr_vector")
//
// Not every record of the image is kept. The classification Policy drops
// undefined symbols, file and section marker symbols and ARM mapping symbols
// ($a, $t, $d), and keeps only sections that are loaded into memory plus the
// build-attributes section. Symbol names may repeat, so SymbolsNamed returns
// all entries of a name and RequireUniqueSymbol makes uniqueness an explicit
// check.
package elfmodel
