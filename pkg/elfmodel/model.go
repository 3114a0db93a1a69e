package elfmodel

import (
	"maps"

	"github.com/rs/zerolog"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/errors"
)

// Model is the detached structure of one firmware image. It is built once by
// Build, never re-reads the file and has no mutating methods, so it is safe
// for concurrent readers. Sections and symbols are reached through the query
// methods, which return copies. Attributes is shared and must be treated as
// read-only.
type Model struct {
	Path       string
	Digest     uint64
	Header     Header
	Attributes Attributes

	// sections holds the retained sections by name. A repeated name keeps the
	// last section in table order.
	sections map[string]Section
	// symbols holds the retained symbols by name in table order.
	symbols map[string][]Symbol
	stats   BuildStats

	// sectionList keeps every retained section in table order, duplicates
	// included.
	sectionList  []Section
	sectionOrder []string
	symbolOrder  []string
}

// BuildStats counts raw records per classification bucket.
type BuildStats struct {
	Symbols  map[SymbolClass]int
	Sections map[SectionClass]int
}

// Stats returns the raw record counts per classification bucket.
func (m *Model) Stats() BuildStats {
	return BuildStats{
		Symbols:  maps.Clone(m.stats.Symbols),
		Sections: maps.Clone(m.stats.Sections),
	}
}

type buildOptions struct {
	logger zerolog.Logger
	policy Policy
}

// Option configures Build.
type Option func(*buildOptions)

// WithLogger sets the logger used during the build pass.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// WithPolicy replaces the default classification policy.
func WithPolicy(p Policy) Option {
	return func(o *buildOptions) {
		o.policy = p
	}
}

// Build opens the ELF image at path, decodes it completely into a Model and
// closes the file before returning, also on failure.
//
// Errors are *ConfigError for an unusable path and *StructuralError for a
// missing symbol table, missing or malformed .ARM.attributes, or a
// truncated record. No partial Model is returned.
func Build(path string, opts ...Option) (*Model, error) {
	o := buildOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With().Str("component", "elfmodel").Str("firmware", path).Logger()

	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer errors.DeferClose(logger, r, "failed to close firmware image")

	m, err := convert(r, o.policy, logger)
	if err != nil {
		return nil, withPath(err, path)
	}

	logger.Debug().
		Str("machine", m.Header.Machine).
		Int("sections", len(m.sectionList)).
		Int("symbols", len(m.symbolOrder)).
		Int("attributes", len(m.Attributes.Tags)).
		Msg("Built firmware model")

	return m, nil
}

func convert(r *Reader, policy Policy, logger zerolog.Logger) (*Model, error) {
	m := &Model{
		Path:     r.Path(),
		sections: make(map[string]Section),
		symbols:  make(map[string][]Symbol),
		stats: BuildStats{
			Symbols:  make(map[SymbolClass]int),
			Sections: make(map[SectionClass]int),
		},
	}

	flags, err := r.Flags()
	if err != nil {
		return nil, &StructuralError{Component: "ELF header", Err: err}
	}
	fh := r.FileHeader()
	m.Header = headerFrom(fh, flags)

	digest, err := r.Digest()
	if err != nil {
		return nil, &StructuralError{Component: "file contents", Err: err}
	}
	m.Digest = digest

	data, found, err := r.SectionData(AttributesSection)
	switch {
	case !found:
		return nil, structural("build attributes", "no %s section", AttributesSection)
	case err != nil:
		return nil, &StructuralError{Component: "build attributes", Err: err}
	}
	m.Attributes, err = DecodeAttributes(data, r.ByteOrder())
	if err != nil {
		return nil, &StructuralError{Component: "build attributes", Err: err}
	}

	rawSyms, err := r.Symbols()
	if err != nil {
		return nil, &StructuralError{Component: "symbol table", Err: err}
	}
	for _, raw := range rawSyms {
		class := policy.ClassifySymbol(raw)
		m.stats.Symbols[class]++
		if class != SymbolRetained {
			logger.Trace().Str("symbol", raw.Name).Stringer("class", class).Msg("Dropped symbol")
			continue
		}
		if _, seen := m.symbols[raw.Name]; !seen {
			m.symbolOrder = append(m.symbolOrder, raw.Name)
		}
		m.symbols[raw.Name] = append(m.symbols[raw.Name], symbolFrom(raw))
	}

	for _, raw := range r.Sections() {
		class := policy.ClassifySection(raw.SectionHeader)
		m.stats.Sections[class]++
		if !class.Retained() {
			logger.Trace().Str("section", raw.Name).Msg("Dropped section")
			continue
		}
		sec := sectionFrom(raw, fh.Machine)
		if _, seen := m.sections[raw.Name]; seen {
			logger.Warn().Str("section", raw.Name).Msg("Duplicate section name, lookups return the later one")
		} else {
			m.sectionOrder = append(m.sectionOrder, raw.Name)
		}
		m.sections[raw.Name] = sec
		m.sectionList = append(m.sectionList, sec)
	}

	return m, nil
}
