package grid

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func expectedMaxOrder(idx *ColumnIndex) int {
	max := EmptyMaxOrder
	for _, column := range idx.Columns() {
		if column.Order > max {
			max = column.Order
		}
	}
	return max
}

func TestColumnIndexMaxOrderTracksRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	idx := NewColumnIndex()
	require.Equal(t, EmptyMaxOrder, idx.MaxOrder())

	var ids []string
	for step := 0; step < 500; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			id := fmt.Sprintf("col-%d", step)
			idx.Add(Column{ID: id, Origin: Origins()[rng.Intn(4)], Order: rng.Intn(200) - 50})
			ids = append(ids, id)
		case op == 1:
			id := ids[rng.Intn(len(ids))]
			idx.Update(id, ColumnPatch{Order: ptr(rng.Intn(200) - 50)})
		default:
			i := rng.Intn(len(ids))
			idx.Remove(ids[i])
			ids = append(ids[:i], ids[i+1:]...)
		}
		require.Equal(t, expectedMaxOrder(idx), idx.MaxOrder(), "step %d", step)
	}
}

func TestColumnIndexUpdateMovesOriginBucket(t *testing.T) {
	idx := NewColumnIndex(
		Column{ID: "sku", Origin: OriginGrid, Order: 10},
		Column{ID: "name", Origin: OriginGrid, Order: 20},
	)

	require.True(t, idx.Update("sku", ColumnPatch{Origin: ptr(OriginCollection)}))

	assert.Equal(t, []string{"name"}, idx.IDsByOrigin(OriginGrid))
	assert.Equal(t, []string{"sku"}, idx.IDsByOrigin(OriginCollection))
	assert.False(t, idx.Update("missing", ColumnPatch{}))
}

func TestColumnIndexOriginBucketsPartitionColumns(t *testing.T) {
	columns := []Column{
		{ID: "a", Origin: OriginGrid, Order: 30},
		{ID: "b", Origin: OriginCollection, Order: 10},
		{ID: AttributeColumnIDPrefix + "1", Origin: OriginAttribute, Index: "color", Order: 20},
		{ID: CustomColumnIDPrefix + "1", Origin: OriginCustom, Index: "catalog/thumb", Order: 40},
		{ID: "", Origin: OriginGrid},
	}
	idx := NewColumnIndex(columns...)

	seen := map[string]int{}
	for _, origin := range Origins() {
		for _, id := range idx.IDsByOrigin(origin) {
			seen[id]++
			column, ok := idx.Get(id)
			require.True(t, ok)
			assert.Equal(t, origin, column.Origin)
		}
	}
	assert.Len(t, seen, 4)
	for id, count := range seen {
		assert.Equal(t, 1, count, "column %s", id)
	}
	assert.Equal(t, 40, idx.MaxOrder())
	assert.Equal(t, 50, idx.NextOrder())
}

func TestColumnIndexSortedIsStable(t *testing.T) {
	idx := NewColumnIndex(
		Column{ID: "c", Origin: OriginGrid, Order: 20, Visible: true},
		Column{ID: "a", Origin: OriginGrid, Order: 10, Visible: true},
		Column{ID: "b", Origin: OriginGrid, Order: 10},
		Column{ID: "m", Origin: OriginGrid, Order: 5, Missing: true, Visible: true},
		Column{ID: AttributeColumnIDPrefix + "2", Origin: OriginAttribute, Order: 1, Visible: true},
	)

	ids := func(columns []*Column) []string {
		out := make([]string, 0, len(columns))
		for _, c := range columns {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{AttributeColumnIDPrefix + "2", "m", "a", "b", "c"}, ids(idx.Sorted(AllColumns())))

	visible := AllColumns()
	visible.OnlyVisible = true
	visible.IncludeMissing = false
	visible.IncludeAttribute = false
	assert.Equal(t, []string{"a", "c"}, ids(idx.Sorted(visible)))

	missingOnly := AllColumns()
	missingOnly.IncludeValid = false
	assert.Equal(t, []string{"m"}, ids(idx.Sorted(missingOnly)))
}

func TestColumnIndexResolveIndexFromCode(t *testing.T) {
	idx := NewColumnIndex(
		Column{ID: AttributeColumnIDPrefix + "3", Origin: OriginAttribute, Index: "color", Order: 30},
		Column{ID: AttributeColumnIDPrefix + "1", Origin: OriginAttribute, Index: "color", Order: 10},
		Column{ID: AttributeColumnIDPrefix + "2", Origin: OriginAttribute, Index: "size", Order: 20},
		Column{ID: CustomColumnIDPrefix + "7", Origin: OriginCustom, Index: "catalog/thumb", Order: 40},
		Column{ID: "sku", Origin: OriginGrid, Index: "sku_index", Order: 50},
		Column{ID: "qty", Origin: OriginCollection, Index: "qty", Order: 60},
	)

	cases := []struct {
		name     string
		code     string
		origin   Origin
		position int
		want     string
		found    bool
	}{
		{"attribute first", "color", OriginAttribute, 1, AttributeColumnAlias + "1", true},
		{"attribute second", "color", OriginAttribute, 2, AttributeColumnAlias + "3", true},
		{"attribute beyond count", "color", OriginAttribute, 9, AttributeColumnAlias + "1", true},
		{"attribute below one", "color", OriginAttribute, 0, AttributeColumnAlias + "1", true},
		{"attribute no match", "weight", OriginAttribute, 1, "", false},
		{"custom", "catalog/thumb", OriginCustom, 1, CustomColumnAlias + "7", true},
		{"grid literal id", "sku", OriginGrid, 0, "sku_index", true},
		{"grid wrong origin", "qty", OriginGrid, 0, "", false},
		{"collection", "qty", OriginCollection, 0, "qty", true},
		{"unknown origin", "sku", Origin("other"), 0, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := idx.ResolveIndexFromCode(tc.code, tc.origin, tc.position)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestColumnIndexOutOfRangePositionMatchesFirst(t *testing.T) {
	idx := NewColumnIndex(
		Column{ID: CustomColumnIDPrefix + "1", Origin: OriginCustom, Index: "x", Order: 20},
		Column{ID: CustomColumnIDPrefix + "2", Origin: OriginCustom, Index: "x", Order: 10},
	)
	first, _ := idx.ResolveIndexFromCode("x", OriginCustom, 1)
	for _, position := range []int{-1, 0, 3, 100} {
		got, ok := idx.ResolveIndexFromCode("x", OriginCustom, position)
		assert.True(t, ok)
		assert.Equal(t, first, got)
	}
}
