package grid

import (
	"math"
	"slices"
	"strings"
)

// EmptyMaxOrder is the max order reported by an index without columns.
const EmptyMaxOrder = math.MinInt

// ColumnFilter selects which columns Sorted returns. The zero value keeps
// nothing; use AllColumns as a starting point.
type ColumnFilter struct {
	IncludeValid     bool
	IncludeMissing   bool
	IncludeAttribute bool
	IncludeCustom    bool
	OnlyVisible      bool
}

// AllColumns keeps every column.
func AllColumns() ColumnFilter {
	return ColumnFilter{
		IncludeValid:     true,
		IncludeMissing:   true,
		IncludeAttribute: true,
		IncludeCustom:    true,
	}
}

func (f ColumnFilter) keep(c *Column) bool {
	switch {
	case f.OnlyVisible && !c.Visible:
		return false
	case !f.IncludeMissing && c.Missing:
		return false
	case !f.IncludeValid && !c.Missing:
		return false
	case !f.IncludeAttribute && c.IsAttribute():
		return false
	case !f.IncludeCustom && c.IsCustom():
		return false
	}
	return true
}

// ColumnIndex keeps the columns of one grid profile partitioned by origin.
type ColumnIndex struct {
	columns  map[string]*Column
	order    []string
	byOrigin map[Origin][]string
	maxOrder int
}

// NewColumnIndex builds an index from columns, skipping entries without ID.
func NewColumnIndex(columns ...Column) *ColumnIndex {
	idx := &ColumnIndex{
		columns:  make(map[string]*Column, len(columns)),
		byOrigin: make(map[Origin][]string, 4),
		maxOrder: EmptyMaxOrder,
	}
	for _, origin := range Origins() {
		idx.byOrigin[origin] = nil
	}
	for _, column := range columns {
		if column.ID == "" {
			continue
		}
		idx.Add(column)
	}
	return idx
}

// Len returns the number of columns.
func (idx *ColumnIndex) Len() int {
	return len(idx.order)
}

// MaxOrder returns the highest column order, or EmptyMaxOrder.
func (idx *ColumnIndex) MaxOrder() int {
	return idx.maxOrder
}

// NextOrder returns the order an appended column should use.
func (idx *ColumnIndex) NextOrder() int {
	if idx.maxOrder == EmptyMaxOrder {
		return ColumnsOrderPitch
	}
	return idx.maxOrder + ColumnsOrderPitch
}

// Add appends column. An existing column with the same ID is replaced.
func (idx *ColumnIndex) Add(column Column) {
	if _, exists := idx.columns[column.ID]; exists {
		idx.Remove(column.ID)
	}
	stored := column.clone()
	idx.columns[stored.ID] = stored
	idx.order = append(idx.order, stored.ID)
	idx.byOrigin[stored.Origin] = append(idx.byOrigin[stored.Origin], stored.ID)
	idx.raiseMaxOrder(stored.Order)
}

// Update applies patch to the column id. It reports false when id is unknown.
func (idx *ColumnIndex) Update(id string, patch ColumnPatch) bool {
	column, ok := idx.columns[id]
	if !ok {
		return false
	}
	previousOrigin := column.Origin
	previousOrder := column.Order
	patch.apply(column)

	if column.Origin != previousOrigin {
		idx.byOrigin[previousOrigin] = removeID(idx.byOrigin[previousOrigin], id)
		idx.byOrigin[column.Origin] = append(idx.byOrigin[column.Origin], id)
	}
	if patch.Order != nil {
		if previousOrder == idx.maxOrder && column.Order < previousOrder {
			idx.Recompute()
		} else {
			idx.raiseMaxOrder(column.Order)
		}
	}
	return true
}

// Remove drops the column id. It reports false when id is unknown.
func (idx *ColumnIndex) Remove(id string) bool {
	column, ok := idx.columns[id]
	if !ok {
		return false
	}
	delete(idx.columns, id)
	idx.order = removeID(idx.order, id)
	idx.byOrigin[column.Origin] = removeID(idx.byOrigin[column.Origin], id)
	idx.Recompute()
	return true
}

// Recompute rescans every column to rebuild the max order.
func (idx *ColumnIndex) Recompute() {
	idx.maxOrder = EmptyMaxOrder
	for _, id := range idx.order {
		idx.raiseMaxOrder(idx.columns[id].Order)
	}
}

func (idx *ColumnIndex) raiseMaxOrder(order int) {
	if order > idx.maxOrder {
		idx.maxOrder = order
	}
}

// Get returns the column id.
func (idx *ColumnIndex) Get(id string) (*Column, bool) {
	column, ok := idx.columns[id]
	return column, ok
}

// IDsByOrigin returns the column IDs of origin in insertion order.
func (idx *ColumnIndex) IDsByOrigin(origin Origin) []string {
	return slices.Clone(idx.byOrigin[origin])
}

// Columns returns every column in insertion order.
func (idx *ColumnIndex) Columns() []*Column {
	out := make([]*Column, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.columns[id])
	}
	return out
}

// Sorted returns the columns kept by filter ordered by Order. Ties keep
// insertion order.
func (idx *ColumnIndex) Sorted(filter ColumnFilter) []*Column {
	out := make([]*Column, 0, len(idx.order))
	for _, id := range idx.order {
		if column := idx.columns[id]; filter.keep(column) {
			out = append(out, column)
		}
	}
	sortColumns(out)
	return out
}

// ResolveIndexFromCode maps a field code to the index a grid block uses.
//
// For attribute and custom origins code is the column index shared by one
// or more columns; position (1-based) picks among them in column order and
// falls back to the first match when out of range. For other origins code is
// a column ID that must belong to origin.
func (idx *ColumnIndex) ResolveIndexFromCode(code string, origin Origin, position int) (string, bool) {
	switch origin {
	case OriginAttribute, OriginCustom:
		var matches []*Column
		for _, id := range idx.byOrigin[origin] {
			if column := idx.columns[id]; column.Index == code {
				matches = append(matches, column)
			}
		}
		if len(matches) == 0 {
			return "", false
		}
		sortColumns(matches)
		found := matches[0]
		if position >= 1 && position <= len(matches) {
			found = matches[position-1]
		}
		if origin == OriginAttribute {
			return AttributeColumnAlias + strings.TrimPrefix(found.ID, AttributeColumnIDPrefix), true
		}
		return CustomColumnAlias + strings.TrimPrefix(found.ID, CustomColumnIDPrefix), true
	case OriginGrid, OriginCollection:
		column, ok := idx.columns[code]
		if !ok || column.Origin != origin {
			return "", false
		}
		return column.Index, true
	default:
		return "", false
	}
}

func sortColumns(columns []*Column) {
	slices.SortStableFunc(columns, func(a, b *Column) int {
		switch {
		case a.Order < b.Order:
			return -1
		case a.Order > b.Order:
			return 1
		default:
			return 0
		}
	})
}

func removeID(ids []string, id string) []string {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}
