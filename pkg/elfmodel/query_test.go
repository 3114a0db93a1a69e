package elfmodel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/testutil"
)

func TestRequireUniqueSymbol(t *testing.T) {
	m := buildFixture(t, testutil.KL25ZImage())

	t.Run("unique", func(t *testing.T) {
		sym, err := m.RequireUniqueSymbol("__isr_vector")
		require.NoError(t, err)
		assert.Equal(t, "__isr_vector", sym.Name)
		assert.Equal(t, uint64(0), sym.Addr)
		assert.Equal(t, uint64(192), sym.Size)
		assert.True(t, sym.IsObject())
		assert.True(t, sym.IsGlobal())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := m.RequireUniqueSymbol("__does_not_exist")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrNotUnique)

		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "symbol", nf.Kind)
		assert.Equal(t, "symbol '__does_not_exist' does not exist in ELF", err.Error())
	})

	t.Run("repeated", func(t *testing.T) {
		_, err := m.RequireUniqueSymbol("counter")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotUnique)
		assert.NotErrorIs(t, err, ErrNotFound)

		var nu *NotUniqueError
		require.ErrorAs(t, err, &nu)
		assert.Equal(t, 2, nu.Count)
		assert.Equal(t, "symbol 'counter' is not uniquely named (2 entries)", err.Error())
	})

	t.Run("dropped records are not found", func(t *testing.T) {
		for _, name := range []string{"$t", "__deregister_frame_info", "startup_MKL25Z4.S"} {
			_, err := m.RequireUniqueSymbol(name)
			assert.ErrorIs(t, err, ErrNotFound, name)
		}
	})
}

func TestRequireSection(t *testing.T) {
	m := buildFixture(t, testutil.KL25ZImage())

	sec, err := m.RequireSection(".FlashConfig")
	require.NoError(t, err)
	assert.Equal(t, uint64(testutil.FlashConfigAddr), sec.Addr)
	assert.Equal(t, uint64(16), sec.Size)
	assert.Equal(t, uint64(testutil.FlashConfigAddr+16), sec.End())

	_, err = m.RequireSection(".debug_info")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "section", nf.Kind)
	assert.Equal(t, "section '.debug_info' does not exist in ELF", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSymbolsNamed(t *testing.T) {
	m := buildFixture(t, testutil.KL25ZImage())

	syms := m.SymbolsNamed("counter")
	require.Len(t, syms, 2)
	assert.Equal(t, uint64(testutil.BssAddr), syms[0].Addr)
	assert.Equal(t, uint64(testutil.BssAddr+4), syms[1].Addr)

	// The returned slice is a copy.
	syms[0].Addr = 0xdead
	assert.Equal(t, uint64(testutil.BssAddr), m.SymbolsNamed("counter")[0].Addr)

	assert.Empty(t, m.SymbolsNamed("nothing"))
}

func TestSectionLookup(t *testing.T) {
	m := buildFixture(t, testutil.KL25ZImage())

	sec, ok := m.Section(".heap")
	require.True(t, ok)
	assert.Equal(t, uint64(testutil.HeapSize), sec.Size)
	assert.Equal(t, "SHT_NOBITS", sec.Type)

	_, ok = m.Section(".symtab")
	assert.False(t, ok)
}

func TestOrderedViews(t *testing.T) {
	m := buildFixture(t, testutil.KL25ZImage())

	names := m.SymbolNames()
	require.NotEmpty(t, names)
	assert.Equal(t, "counter", names[0])
	assert.Equal(t, "__StackTop", names[len(names)-1])
	assert.Len(t, names, 15)

	all := m.SymbolsInOrder()
	assert.Len(t, all, 16)
	assert.Equal(t, "counter", all[0].Name)
	assert.Equal(t, "counter", all[1].Name)

	secs := m.SectionsInOrder()
	require.Len(t, secs, 10)
	assert.Equal(t, ".isr_vector", secs[0].Name)
	assert.Equal(t, ".ARM.attributes", secs[len(secs)-1].Name)

	// Callers get copies of the order slices.
	names[0] = "mutated"
	assert.Equal(t, "counter", m.SymbolNames()[0])
}
