package feed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID     string
	Status string
	Text   string
}

func itemID(i item) string { return i.ID }

func newItems(n int) []item {
	out := make([]item, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, item{ID: fmt.Sprintf("i%d", i)})
	}
	return out
}

// TestPushKeepsNewestFirst tests that the most recent insert is always at the head
func TestPushKeepsNewestFirst(t *testing.T) {
	f := New[item](5, itemID)

	for i := 1; i <= 3; i++ {
		f.Push(item{ID: fmt.Sprintf("i%d", i)})
		snap := f.Snapshot()
		assert.Equal(t, fmt.Sprintf("i%d", i), snap[0].ID)
	}

	ids := []string{}
	for _, it := range f.Snapshot() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"i3", "i2", "i1"}, ids)
}

// TestCapacityInvariant tests the capacity bound across several view capacities
func TestCapacityInvariant(t *testing.T) {
	for _, capacity := range []int{10, 20, 100} {
		t.Run(fmt.Sprintf("capacity %d", capacity), func(t *testing.T) {
			f := New[item](capacity, itemID)
			for i := 0; i < capacity*2; i++ {
				f.Push(item{ID: fmt.Sprintf("i%d", i)})
				assert.LessOrEqual(t, f.Len(), capacity)
			}
			assert.Equal(t, capacity, f.Len())
		})
	}
}

// TestCapacityKeepsMostRecent tests that 150 inserts into a 100 record feed keep the 100 most recent
func TestCapacityKeepsMostRecent(t *testing.T) {
	f := New[item](100, itemID)

	var evictedTotal int
	for i := 1; i <= 150; i++ {
		evictedTotal += len(f.Push(item{ID: fmt.Sprintf("i%d", i)}))
	}

	snap := f.Snapshot()
	require.Len(t, snap, 100)
	assert.Equal(t, 50, evictedTotal)
	for idx, it := range snap {
		assert.Equal(t, fmt.Sprintf("i%d", 150-idx), it.ID)
	}
}

// TestPushReturnsEvicted tests that the evicted tail is reported
func TestPushReturnsEvicted(t *testing.T) {
	f := New[item](2, itemID, item{ID: "b"}, item{ID: "a"})

	evicted := f.Push(item{ID: "c"})

	require.Len(t, evicted, 1)
	assert.Equal(t, "a", evicted[0].ID)
}

// TestNewTruncatesSeed tests that an oversized seed is cut to capacity, keeping the newest
func TestNewTruncatesSeed(t *testing.T) {
	f := New[item](3, itemID, newItems(5)...)

	snap := f.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "i5", snap[0].ID)
	assert.Equal(t, "i3", snap[2].ID)
}

// TestDeleteIsIdempotent tests that deleting twice yields the same feed as deleting once
func TestDeleteIsIdempotent(t *testing.T) {
	once := New[item](10, itemID, newItems(5)...)
	twice := New[item](10, itemID, newItems(5)...)

	assert.True(t, once.Delete("i3"))
	assert.True(t, twice.Delete("i3"))
	assert.False(t, twice.Delete("i3"))

	assert.Equal(t, once.Snapshot(), twice.Snapshot())
	assert.Equal(t, 4, twice.Len())
}

// TestDeleteUnknownID tests that deleting a missing id leaves the feed untouched
func TestDeleteUnknownID(t *testing.T) {
	f := New[item](10, itemID, newItems(3)...)
	before := f.Snapshot()

	assert.False(t, f.Delete("missing"))
	assert.Equal(t, before, f.Snapshot())
}

// TestUpdateInPlace tests in-place mutation and the missing id case
func TestUpdateInPlace(t *testing.T) {
	f := New[item](10, itemID, item{ID: "a", Status: "new"}, item{ID: "b", Status: "new"})

	ok := f.Update("b", func(it *item) { it.Status = "resolved" })
	require.True(t, ok)

	got, found := f.Get("b")
	require.True(t, found)
	assert.Equal(t, "resolved", got.Status)
	assert.Equal(t, "b", f.Snapshot()[1].ID, "update must not reorder the feed")

	assert.False(t, f.Update("zzz", func(it *item) { it.Status = "x" }))
}

// TestFilterIsPureProjection tests that filtering never changes the feed
func TestFilterIsPureProjection(t *testing.T) {
	f := New[item](10, itemID,
		item{ID: "3", Status: "new", Text: "Brute Force"},
		item{ID: "2", Status: "resolved", Text: "Port scan"},
		item{ID: "1", Status: "new", Text: "Phishing"},
	)
	before := f.Snapshot()

	tests := []struct {
		name string
		pred Predicate[item]
		want []string
	}{
		{
			name: "always true",
			pred: func(item) bool { return true },
			want: []string{"3", "2", "1"},
		},
		{
			name: "nil predicate",
			pred: nil,
			want: []string{"3", "2", "1"},
		},
		{
			name: "status equality",
			pred: Equals("new", func(i item) string { return i.Status }),
			want: []string{"3", "1"},
		},
		{
			name: "all keyword disables equality",
			pred: Equals("all", func(i item) string { return i.Status }),
			want: []string{"3", "2", "1"},
		},
		{
			name: "case-insensitive search",
			pred: Contains("brute", func(i item) string { return i.Text }),
			want: []string{"3"},
		},
		{
			name: "exact search is case-sensitive",
			pred: ContainsExact("brute", func(i item) string { return i.Text }),
			want: []string{},
		},
		{
			name: "equality and search combined",
			pred: All(
				Equals("new", func(i item) string { return i.Status }),
				Contains("PHISH", func(i item) string { return i.Text }),
			),
			want: []string{"1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, it := range f.Filter(tt.pred) {
				got = append(got, it.ID)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, before, f.Snapshot())
		})
	}
}

// TestAnyPredicate tests OR composition, including the all-nil case
func TestAnyPredicate(t *testing.T) {
	assert.Nil(t, Any[item](nil, nil))

	p := Any(
		Contains("scan", func(i item) string { return i.Text }),
		ContainsExact("9", func(i item) string { return i.ID }),
	)
	assert.True(t, p(item{ID: "1", Text: "Port Scan"}))
	assert.True(t, p(item{ID: "9", Text: "other"}))
	assert.False(t, p(item{ID: "1", Text: "other"}))
}

// TestCountBy tests category tallies
func TestCountBy(t *testing.T) {
	items := []item{{Status: "new"}, {Status: "new"}, {Status: "resolved"}}

	counts := CountBy(items, func(i item) string { return i.Status })

	assert.Equal(t, map[string]int{"new": 2, "resolved": 1}, counts)
}
