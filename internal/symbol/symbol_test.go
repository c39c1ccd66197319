package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterner_Sequential(t *testing.T) {
	in := NewInterner()

	assert.Equal(t, ID(0), in.Intern("biolink:Gene"))
	assert.Equal(t, ID(1), in.Intern("biolink:Protein"))
	assert.Equal(t, ID(0), in.Intern("biolink:Gene"))
	assert.Equal(t, 2, in.Len())
}

func TestTable_Lookup(t *testing.T) {
	in := NewInterner()
	in.Intern("biolink:treats")
	in.Intern("biolink:interacts_with")
	tbl := in.Freeze()

	assert.Equal(t, ID(1), tbl.Lookup("biolink:interacts_with"))
	assert.Equal(t, Unknown, tbl.Lookup("biolink:never_seen"))

	name, ok := tbl.Name(0)
	require.True(t, ok)
	assert.Equal(t, "biolink:treats", name)

	_, ok = tbl.Name(Unknown)
	assert.False(t, ok)
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_LookupAllCollapsesUnknown(t *testing.T) {
	in := NewInterner()
	in.Intern("a")
	tbl := in.Freeze()

	ids := tbl.LookupAll([]string{"x", "a", "y", "a"})
	assert.Equal(t, []ID{Unknown, 0}, ids)
}

func TestTable_NilIsEmpty(t *testing.T) {
	var tbl *Table
	assert.Equal(t, Unknown, tbl.Lookup("a"))
	assert.Equal(t, 0, tbl.Len())
}
