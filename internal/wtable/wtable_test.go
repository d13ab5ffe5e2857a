package wtable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTable_ExactGetSetDel(t *testing.T) {
	tbl := New()

	_, found := tbl.Get("io/read")
	require.False(t, found)

	tbl.Set("io/read", 42)

	v, found := tbl.Get("io/read")
	require.True(t, found)
	require.Equal(t, 42, v)

	require.True(t, tbl.Del("io/read"))

	_, found = tbl.Get("io/read")
	require.False(t, found)
}

func TestTable_WildcardMatch(t *testing.T) {
	tbl := New()
	tbl.Set("a/b/*", 7)

	v, found := tbl.Get("a/b/x")
	require.True(t, found)
	require.Equal(t, 7, v)

	v, found = tbl.Get("a/b/x/y")
	require.True(t, found)
	require.Equal(t, 7, v)

	_, found = tbl.Get("a/c")
	require.False(t, found)
}

func TestTable_ExactShadowsWildcard(t *testing.T) {
	tbl := New()
	tbl.Set("a/*", 1)
	tbl.Set("a/b", 2)

	v, found := tbl.Get("a/b")
	require.True(t, found)
	require.Equal(t, 2, v)

	v, found = tbl.Get("a/other")
	require.True(t, found)
	require.Equal(t, 1, v)
}

func TestTable_WildcardSetReplacesExistingEntry(t *testing.T) {
	tbl := New()
	tbl.Set("x/*", 1)
	tbl.Set("x/*", 2)

	v, found := tbl.Get("x/y")
	require.True(t, found)
	require.Equal(t, 2, v)
}

func TestTable_DeleteWildcard(t *testing.T) {
	tbl := New()
	tbl.Set("p/*", 1)

	require.True(t, tbl.Del("p/*"))
	require.False(t, tbl.Del("p/*"))

	_, found := tbl.Get("p/x")
	require.False(t, found)
}

func TestTable_MutationInvalidatesCachedNegative(t *testing.T) {
	tbl := New()

	// Cache a negative result for "net/connect".
	_, found := tbl.Get("net/connect")
	require.False(t, found)

	tbl.Set("net/*", 5)

	v, found := tbl.Get("net/connect")
	require.True(t, found, "stale negative cache entry must not survive a wildcard mutation")
	require.Equal(t, 5, v)
}

func TestTable_MutationInvalidatesCachedPositive(t *testing.T) {
	tbl := New()
	tbl.Set("net/*", 5)

	v, found := tbl.Get("net/connect")
	require.True(t, found)
	require.Equal(t, 5, v)

	tbl.Del("net/*")

	_, found = tbl.Get("net/connect")
	require.False(t, found, "stale positive cache entry must not survive a wildcard mutation")
}

func TestTable_ManyWildcardsGrowAndShrink(t *testing.T) {
	tbl := New()

	for i := range 100 {
		tbl.Set(fmt.Sprintf("p%d/*", i), i)
	}

	require.Equal(t, 100, tbl.wildLen)

	for i := range 90 {
		tbl.Del(fmt.Sprintf("p%d/*", i))
	}

	require.Equal(t, 10, tbl.wildLen)
	require.Less(t, len(tbl.wild), 100)
}

func TestTable_EntriesSnapshot(t *testing.T) {
	tbl := New()
	tbl.Set("exact", 1)
	tbl.Set("wild/*", 2)

	var exactSeen, wildSeen []string

	tbl.Entries(
		func(key string, value any) { exactSeen = append(exactSeen, key) },
		func(key string, value any) { wildSeen = append(wildSeen, key) },
	)

	require.Equal(t, []string{"exact"}, exactSeen)
	require.Equal(t, []string{"wild/*"}, wildSeen)
}
