package intern

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sameStorage(a, b string) bool {
	return unsafe.StringData(a) == unsafe.StringData(b)
}

func TestIntern(t *testing.T) {
	t.Run("equal content returns the same instance", func(t *testing.T) {
		in := New(ClassName, 4)
		first := in.Intern(strings.Clone("com.example.Foo"))
		second := in.Intern(strings.Clone("com.example.Foo"))

		assert.Equal(t, first, second)
		assert.True(t, sameStorage(first, second), "expected identical storage")
		assert.Equal(t, 1, in.Size())
		assert.Equal(t, 2, in.Lookups())
	})

	t.Run("bytes and strings share the pool", func(t *testing.T) {
		in := New(Description, 4)
		s := in.Intern("(I)V")
		b := in.InternBytes([]byte("(I)V"))

		assert.True(t, sameStorage(s, b))
		assert.Equal(t, 1, in.Size())
	})

	t.Run("empty string is not stored", func(t *testing.T) {
		in := New(FieldName, 4)
		assert.Equal(t, "", in.Intern(""))
		assert.Equal(t, "", in.InternBytes(nil))
		assert.Equal(t, 0, in.Size())
	})

	t.Run("lookup does not insert", func(t *testing.T) {
		in := New(MethodName, 4)
		_, ok := in.Lookup("run")
		assert.False(t, ok)
		assert.Equal(t, 0, in.Size())

		interned := in.Intern("run")
		got, ok := in.Lookup(strings.Clone("run"))
		require.True(t, ok)
		assert.True(t, sameStorage(interned, got))
	})
}

func TestTables(t *testing.T) {
	tables := NewTables()

	// The same text interned in two categories lives in two pools.
	cls := tables.ClassNames().Intern("value")
	fld := tables.FieldNames().Intern("value")
	assert.Equal(t, cls, fld)
	assert.Equal(t, 1, tables.ClassNames().Size())
	assert.Equal(t, 1, tables.FieldNames().Size())
	assert.Equal(t, 0, tables.MethodNames().Size())

	for _, c := range []Category{ClassName, PackageName, FieldName, MethodName, Description} {
		assert.Equal(t, c, tables.Table(c).Category(), c.String())
	}

	stats := tables.Stats()
	require.Len(t, stats, 5)
	assert.Equal(t, ClassName, stats[0].Category)
	assert.Equal(t, 1, stats[0].Size)
	assert.Equal(t, Description, stats[4].Category)
}
