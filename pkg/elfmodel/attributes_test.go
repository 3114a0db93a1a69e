package elfmodel

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/testutil"
)

func TestDecodeAttributes_CortexM0Plus(t *testing.T) {
	attrs, err := DecodeAttributes(testutil.KL25ZAttributes(), binary.LittleEndian)
	require.NoError(t, err)

	arch, ok := attrs.Int("TAG_CPU_ARCH")
	require.True(t, ok)
	assert.Equal(t, uint64(CPUArchV6SM), arch)

	profile, ok := attrs.Int("TAG_CPU_ARCH_PROFILE")
	require.True(t, ok)
	assert.Equal(t, uint64(ProfileMicro), profile)

	thumb, ok := attrs.Int("TAG_THUMB_ISA_USE")
	require.True(t, ok)
	assert.Equal(t, uint64(1), thumb)

	name, ok := attrs.Str("TAG_CPU_NAME")
	require.True(t, ok)
	assert.Equal(t, "cortex-m0plus", name)

	// Kinds are never coerced.
	_, ok = attrs.Str("TAG_CPU_ARCH")
	assert.False(t, ok)
	_, ok = attrs.Int("TAG_CPU_NAME")
	assert.False(t, ok)

	require.Len(t, attrs.Entries, 14)
	assert.Equal(t, "TAG_CPU_NAME", attrs.Entries[0].Tag)
	assert.Equal(t, "aeabi", attrs.Entries[0].Vendor)
	assert.Equal(t, "TAG_FILE", attrs.Entries[0].Scope)
}

func TestDecodeAttributes_BigEndian(t *testing.T) {
	blob := testutil.AttributesBlob(binary.BigEndian, "aeabi", testutil.ULEB(6, 10), testutil.ULEB(7, 'A'))

	attrs, err := DecodeAttributes(blob, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, IntValue(10), attrs.Tags["TAG_CPU_ARCH"])
	assert.Equal(t, IntValue('A'), attrs.Tags["TAG_CPU_ARCH_PROFILE"])
}

func TestDecodeAttributes_DuplicateTagLastWins(t *testing.T) {
	blob := testutil.AttributesBlob(binary.LittleEndian, "aeabi",
		testutil.ULEB(6, 0x0B),
		testutil.ULEB(6, 0x0C),
	)

	attrs, err := DecodeAttributes(blob, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, IntValue(0x0C), attrs.Tags["TAG_CPU_ARCH"])
	require.Len(t, attrs.Entries, 2)
	assert.Equal(t, IntValue(0x0B), attrs.Entries[0].Value)
}

func TestDecodeAttributes_SkipsOtherVendors(t *testing.T) {
	le := binary.LittleEndian
	gnu := testutil.VendorSubsection(le, "gnu", testutil.FileScope(le, []byte{6, 0x7f}))
	aeabi := testutil.VendorSubsection(le, "aeabi", testutil.FileScope(le, []byte{6, 0x0C}))

	attrs, err := DecodeAttributes(testutil.AttributesSection(le, gnu, aeabi), le)
	require.NoError(t, err)
	assert.Equal(t, map[string]AttrValue{"TAG_CPU_ARCH": IntValue(0x0C)}, attrs.Tags)
}

func TestDecodeAttributes_SectionScope(t *testing.T) {
	le := binary.LittleEndian
	// Tag_Section applying to sections 4 and 5, then Tag_ABI_PCS_wchar_t.
	body := []byte{4, 5, 0, 18, 2}
	scope := []byte{TagSection, 0, 0, 0, 0}
	le.PutUint32(scope[1:], uint32(len(body)+5))
	scope = append(scope, body...)

	attrs, err := DecodeAttributes(testutil.AttributesSection(le, testutil.VendorSubsection(le, "aeabi", scope)), le)
	require.NoError(t, err)
	require.Len(t, attrs.Entries, 1)
	assert.Equal(t, "TAG_SECTION", attrs.Entries[0].Scope)
	assert.Equal(t, IntValue(2), attrs.Tags["TAG_ABI_PCS_WCHAR_T"])
}

func TestDecodeAttributes_SpecialEncodings(t *testing.T) {
	le := binary.LittleEndian
	var body []byte
	body = append(body, 32, 1)                    // Tag_compatibility, flag 1
	body = append(body, "gnu\x00"...)             // ...vendor name
	body = append(body, 65, 6, 0x0C, 0)           // Tag_also_compatible_with: Tag_CPU_arch=12
	body = append(body, 67, '2', '.', '0', '9', 0) // Tag_conformance
	body = append(body, 0x80, 0x01, 7)            // unknown even tag 128, ULEB 7
	body = append(body, 0x81, 0x01, 'x', 0)       // unknown odd tag 129, NTBS

	blob := testutil.AttributesSection(le, testutil.VendorSubsection(le, "aeabi", testutil.FileScope(le, body)))
	attrs, err := DecodeAttributes(blob, le)
	require.NoError(t, err)

	assert.Equal(t, IntValue(1), attrs.Tags["TAG_COMPATIBILITY"])
	assert.Equal(t, "gnu", attrs.Entries[0].Extra)
	assert.Equal(t, StringValue("TAG_CPU_ARCH=12"), attrs.Tags["TAG_ALSO_COMPATIBLE_WITH"])
	assert.Equal(t, StringValue("2.09"), attrs.Tags["TAG_CONFORMANCE"])
	assert.Equal(t, IntValue(7), attrs.Tags["TAG_128"])
	assert.Equal(t, StringValue("x"), attrs.Tags["TAG_129"])
}

func TestDecodeAttributes_Malformed(t *testing.T) {
	le := binary.LittleEndian
	valid := testutil.KL25ZAttributes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"wrong version", append([]byte{'B'}, valid[1:]...)},
		{"truncated subsection length", []byte{'A', 0x10, 0x00}},
		{"subsection longer than section", valid[:len(valid)-3]},
		{"unterminated vendor", []byte{'A', 9, 0, 0, 0, 'a', 'e', 'a', 'b'}},
		{"version only", []byte{'A'}},
		{"other vendors only", testutil.AttributesBlob(le, "gnu", testutil.ULEB(6, 0x0C))},
		{"unknown scope", testutil.AttributesSection(le, testutil.VendorSubsection(le, "aeabi", []byte{9, 5, 0, 0, 0}))},
		{"truncated value", testutil.AttributesSection(le, testutil.VendorSubsection(le, "aeabi", testutil.FileScope(le, []byte{6})))},
		{"unterminated string", testutil.AttributesSection(le, testutil.VendorSubsection(le, "aeabi", testutil.FileScope(le, []byte{5, 'c', 'm'})))},
		{"unterminated index list", testutil.AttributesSection(le, testutil.VendorSubsection(le, "aeabi", []byte{TagSymbol, 7, 0, 0, 0, 3, 4}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAttributes(tt.data, le)
			assert.Error(t, err)
		})
	}
}

func TestAttrValue(t *testing.T) {
	i := IntValue(0x4D)
	assert.Equal(t, AttrInt, i.Kind())
	assert.Equal(t, "0x4d", i.String())
	assert.Equal(t, uint64(0x4D), i.Interface())

	s := StringValue("cortex-m0plus")
	assert.Equal(t, AttrString, s.Kind())
	assert.Equal(t, `"cortex-m0plus"`, s.String())
	assert.Equal(t, "cortex-m0plus", s.Interface())

	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"cortex-m0plus"`, string(b))
	b, err = i.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `77`, string(b))
}

func TestTagName(t *testing.T) {
	assert.Equal(t, "TAG_CPU_ARCH", TagName(6))
	assert.Equal(t, "TAG_DIV_USE", TagName(44))
	assert.Equal(t, "TAG_99", TagName(99))
}
