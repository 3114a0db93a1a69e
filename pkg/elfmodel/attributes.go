package elfmodel

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/dennwc/varint"
)

// AttrKind tells which field of an AttrValue is set.
type AttrKind int

const (
	AttrInt AttrKind = iota
	AttrString
)

func (k AttrKind) String() string {
	if k == AttrString {
		return "string"
	}
	return "int"
}

// AttrValue is a build attribute value: a ULEB128 integer or a string,
// depending on the tag. Callers assert the kind they expect.
type AttrValue struct {
	kind AttrKind
	i    uint64
	s    string
}

// IntValue returns an integer attribute value.
func IntValue(v uint64) AttrValue {
	return AttrValue{kind: AttrInt, i: v}
}

// StringValue returns a string attribute value.
func StringValue(s string) AttrValue {
	return AttrValue{kind: AttrString, s: s}
}

// Kind returns the value kind.
func (v AttrValue) Kind() AttrKind {
	return v.kind
}

// Int returns the integer value; ok is false for string values.
func (v AttrValue) Int() (uint64, bool) {
	return v.i, v.kind == AttrInt
}

// Str returns the string value; ok is false for integer values.
func (v AttrValue) Str() (string, bool) {
	return v.s, v.kind == AttrString
}

func (v AttrValue) String() string {
	if v.kind == AttrString {
		return strconv.Quote(v.s)
	}
	return fmt.Sprintf("0x%02x", v.i)
}

// Interface returns the value as uint64 or string.
func (v AttrValue) Interface() any {
	if v.kind == AttrString {
		return v.s
	}
	return v.i
}

func (v AttrValue) MarshalJSON() ([]byte, error) {
	if v.kind == AttrString {
		return []byte(strconv.Quote(v.s)), nil
	}
	return []byte(strconv.FormatUint(v.i, 10)), nil
}

// Attribute is one decoded tag/value pair in file order.
type Attribute struct {
	Vendor string    `json:"vendor"`
	Scope  string    `json:"scope"`
	Tag    string    `json:"tag"`
	Value  AttrValue `json:"value"`
	// Extra holds the vendor name of TAG_COMPATIBILITY.
	Extra string `json:"extra,omitempty"`
}

// Attributes is the flattened aeabi build-attribute set. Tags maps each tag
// to its last occurrence; Entries keeps every attribute in section order.
type Attributes struct {
	Tags    map[string]AttrValue `json:"tags"`
	Entries []Attribute          `json:"entries"`
}

// Int returns an integer tag value.
func (a Attributes) Int(tag string) (uint64, bool) {
	v, ok := a.Tags[tag]
	if !ok {
		return 0, false
	}
	return v.Int()
}

// Str returns a string tag value.
func (a Attributes) Str(tag string) (string, bool) {
	v, ok := a.Tags[tag]
	if !ok {
		return "", false
	}
	return v.Str()
}

const (
	attrFormatVersion = 'A'
	aeabiVendor       = "aeabi"
)

var (
	errTruncated = errors.New("truncated")
	errNoAeabi   = errors.New("no aeabi subsection")
)

// DecodeAttributes parses the contents of a .ARM.attributes section.
// Subsections of vendors other than "aeabi" are skipped; a section without an
// "aeabi" subsection is an error.
func DecodeAttributes(data []byte, order binary.ByteOrder) (Attributes, error) {
	attrs := Attributes{Tags: make(map[string]AttrValue)}

	if len(data) == 0 {
		return attrs, errors.New("empty attributes section")
	}
	if data[0] != attrFormatVersion {
		return attrs, fmt.Errorf("unsupported format version %q", data[0])
	}

	seen := false
	rest := data[1:]
	for len(rest) > 0 {
		if len(rest) < 4 {
			return attrs, fmt.Errorf("subsection length: %w", errTruncated)
		}
		length := order.Uint32(rest)
		if length < 4 || uint64(length) > uint64(len(rest)) {
			return attrs, fmt.Errorf("subsection length %d out of range (%d bytes left)", length, len(rest))
		}
		sub := rest[4:length]
		rest = rest[length:]

		vendor, body, err := readNTBS(sub)
		if err != nil {
			return attrs, fmt.Errorf("vendor name: %w", err)
		}
		if vendor != aeabiVendor {
			continue
		}
		if err := decodeVendorSubsection(&attrs, vendor, body, order); err != nil {
			return attrs, fmt.Errorf("%s subsection: %w", vendor, err)
		}
		seen = true
	}

	if !seen {
		return attrs, errNoAeabi
	}
	return attrs, nil
}

func decodeVendorSubsection(attrs *Attributes, vendor string, data []byte, order binary.ByteOrder) error {
	for len(data) > 0 {
		scope, n, err := readULEB(data)
		if err != nil {
			return fmt.Errorf("scope tag: %w", err)
		}
		if len(data) < n+4 {
			return fmt.Errorf("scope size: %w", errTruncated)
		}
		size := order.Uint32(data[n:])
		if uint64(size) < uint64(n+4) || uint64(size) > uint64(len(data)) {
			return fmt.Errorf("scope size %d out of range (%d bytes left)", size, len(data))
		}
		body := data[n+4 : size]
		data = data[size:]

		switch scope {
		case TagFile:
		case TagSection, TagSymbol:
			// Zero-terminated list of section or symbol indices.
			for {
				idx, m, err := readULEB(body)
				if err != nil {
					return fmt.Errorf("%s index list: %w", TagName(scope), err)
				}
				body = body[m:]
				if idx == 0 {
					break
				}
			}
		default:
			return fmt.Errorf("unknown scope tag %d", scope)
		}

		if err := decodeAttributeList(attrs, vendor, TagName(scope), body); err != nil {
			return err
		}
	}
	return nil
}

func decodeAttributeList(attrs *Attributes, vendor, scope string, data []byte) error {
	for len(data) > 0 {
		tag, n, err := readULEB(data)
		if err != nil {
			return fmt.Errorf("attribute tag: %w", err)
		}
		data = data[n:]

		attr := Attribute{Vendor: vendor, Scope: scope, Tag: TagName(tag)}
		switch {
		case tag == tagCompatibility:
			flag, m, err := readULEB(data)
			if err != nil {
				return fmt.Errorf("%s flag: %w", attr.Tag, err)
			}
			name, tail, err := readNTBS(data[m:])
			if err != nil {
				return fmt.Errorf("%s vendor: %w", attr.Tag, err)
			}
			attr.Value, attr.Extra, data = IntValue(flag), name, tail

		case tag == tagAlsoCompatibleWith:
			value, tail, err := readAlsoCompatibleWith(data)
			if err != nil {
				return fmt.Errorf("%s: %w", attr.Tag, err)
			}
			attr.Value, data = StringValue(value), tail

		case tagIsString(tag):
			s, tail, err := readNTBS(data)
			if err != nil {
				return fmt.Errorf("%s: %w", attr.Tag, err)
			}
			attr.Value, data = StringValue(s), tail

		default:
			v, m, err := readULEB(data)
			if err != nil {
				return fmt.Errorf("%s: %w", attr.Tag, err)
			}
			attr.Value, data = IntValue(v), data[m:]
		}

		attrs.Entries = append(attrs.Entries, attr)
		attrs.Tags[attr.Tag] = attr.Value
	}
	return nil
}

// readAlsoCompatibleWith decodes the nested tag/value pair of
// Tag_also_compatible_with and renders it as "TAG_X=value".
func readAlsoCompatibleWith(data []byte) (string, []byte, error) {
	tag, n, err := readULEB(data)
	if err != nil {
		return "", nil, err
	}
	data = data[n:]

	if tagIsString(tag) {
		s, tail, err := readNTBS(data)
		if err != nil {
			return "", nil, err
		}
		return TagName(tag) + "=" + s, tail, nil
	}

	v, m, err := readULEB(data)
	if err != nil {
		return "", nil, err
	}
	data = data[m:]
	// The pair is wrapped in an NTBS, so an integer value is followed by NUL.
	if len(data) == 0 || data[0] != 0 {
		return "", nil, fmt.Errorf("missing terminator: %w", errTruncated)
	}
	return fmt.Sprintf("%s=%d", TagName(tag), v), data[1:], nil
}

func readULEB(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, errTruncated
	}
	v, n := varint.Uvarint(data)
	if n == 0 {
		return 0, 0, errTruncated
	}
	if n < 0 {
		return 0, 0, errors.New("ULEB128 overflows 64 bits")
	}
	return v, n, nil
}

func readNTBS(data []byte) (string, []byte, error) {
	i := bytes.IndexByte(data, 0)
	if i < 0 {
		return "", nil, fmt.Errorf("unterminated string: %w", errTruncated)
	}
	return string(data[:i]), data[i+1:], nil
}
