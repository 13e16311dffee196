package grid

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goliatone/go-grid/pkg/activity"
	"go.uber.org/zap"
)

func (g *Grid) columnIndex(ctx context.Context) (*ColumnIndex, error) {
	if idx, ok := lookup[*ColumnIndex](g.values, KeyColumns); ok {
		return idx, nil
	}
	idx := NewColumnIndex()
	if g.IsPersisted() && g.storage != nil {
		profileID, err := g.ProfileID(ctx)
		if err != nil {
			return nil, err
		}
		columns, err := g.storage.LoadColumns(ctx, g.record.ID, profileID)
		if err != nil {
			return nil, err
		}
		idx = NewColumnIndex(g.keepValidColumns(columns)...)
		g.logger.Debug("grid columns loaded", zap.Int("profile_id", profileID), zap.Int("count", idx.Len()))
	}
	g.values.Set(KeyColumns, idx)
	return idx, nil
}

func (g *Grid) keepValidColumns(columns []Column) []Column {
	kept := make([]Column, 0, len(columns))
	for _, column := range columns {
		if err := g.validate.Struct(column); err != nil {
			g.logger.Warn("skipping invalid stored column", zap.String("column_id", column.ID), zap.Error(err))
			continue
		}
		kept = append(kept, column)
	}
	return kept
}

func (g *Grid) validateColumn(column Column) error {
	if err := g.validate.Struct(column); err != nil {
		return fmt.Errorf("%w: column %q: %w", ErrInvalidArgument, column.ID, err)
	}
	return nil
}

// Columns returns every column of the active profile in insertion order.
func (g *Grid) Columns(ctx context.Context) ([]Column, error) {
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return nil, err
	}
	return copyColumns(idx.Columns()), nil
}

// SortedColumns returns the columns kept by filter in display order.
func (g *Grid) SortedColumns(ctx context.Context, filter ColumnFilter) ([]Column, error) {
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return nil, err
	}
	return copyColumns(idx.Sorted(filter)), nil
}

// ColumnIDsByOrigin returns the IDs of the columns coming from origin.
func (g *Grid) ColumnIDsByOrigin(ctx context.Context, origin Origin) ([]string, error) {
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return nil, err
	}
	return idx.IDsByOrigin(origin), nil
}

// ColumnByID returns the column id.
func (g *Grid) ColumnByID(ctx context.Context, id string) (Column, error) {
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return Column{}, err
	}
	column, ok := idx.Get(id)
	if !ok {
		return Column{}, fmt.Errorf("%w: %q", ErrColumnNotFound, id)
	}
	return *column, nil
}

// ColumnHeader returns the configured header of column id.
func (g *Grid) ColumnHeader(ctx context.Context, id string) (string, error) {
	column, err := g.ColumnByID(ctx, id)
	if err != nil {
		return "", err
	}
	return column.Header, nil
}

// ColumnsMaxOrder returns the highest column order, or EmptyMaxOrder.
func (g *Grid) ColumnsMaxOrder(ctx context.Context) (int, error) {
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return 0, err
	}
	return idx.MaxOrder(), nil
}

// NextColumnOrder returns the order an appended column would get.
func (g *Grid) NextColumnOrder(ctx context.Context) (int, error) {
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return 0, err
	}
	return idx.NextOrder(), nil
}

// ColumnIndexFromCode maps a field code to the index the block uses. See
// ColumnIndex.ResolveIndexFromCode.
func (g *Grid) ColumnIndexFromCode(ctx context.Context, code string, origin Origin, position int) (string, bool, error) {
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return "", false, err
	}
	index, ok := idx.ResolveIndexFromCode(code, origin, position)
	return index, ok, nil
}

// SetColumns replaces the columns of the active profile.
func (g *Grid) SetColumns(ctx context.Context, columns []Column) error {
	for _, column := range columns {
		if err := g.validateColumn(column); err != nil {
			return err
		}
	}
	g.values.Invalidate(GroupColumns)
	g.values.Set(KeyColumns, NewColumnIndex(columns...))
	return nil
}

// AddColumn adds column with its order as given.
func (g *Grid) AddColumn(ctx context.Context, column Column) (Column, error) {
	return g.addColumn(ctx, column, false)
}

// AppendColumn adds column after every other column, replacing its order
// with NextColumnOrder.
func (g *Grid) AppendColumn(ctx context.Context, column Column) (Column, error) {
	return g.addColumn(ctx, column, true)
}

func (g *Grid) addColumn(ctx context.Context, column Column, appended bool) (Column, error) {
	if err := g.validateColumn(column); err != nil {
		return Column{}, err
	}
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return Column{}, err
	}
	if appended {
		column.Order = idx.NextOrder()
	}
	idx.Add(column)

	input := g.eventInput(column.ID)
	input.NewValue = string(column.Origin)
	g.emit(ctx, activity.BuildColumnEvent(activity.VerbColumnAdded, input))
	return column, nil
}

// UpdateColumn applies patch to column id.
func (g *Grid) UpdateColumn(ctx context.Context, id string, patch ColumnPatch) error {
	if patch.Origin != nil && !patch.Origin.Valid() {
		return fmt.Errorf("%w: column %q: unknown origin %q", ErrInvalidArgument, id, *patch.Origin)
	}
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return err
	}
	if !idx.Update(id, patch) {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, id)
	}
	g.emit(ctx, activity.BuildColumnEvent(activity.VerbColumnUpdated, g.eventInput(id)))
	return nil
}

// RemoveColumn drops column id.
func (g *Grid) RemoveColumn(ctx context.Context, id string) error {
	idx, err := g.columnIndex(ctx)
	if err != nil {
		return err
	}
	if !idx.Remove(id) {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, id)
	}
	g.emit(ctx, activity.BuildColumnEvent(activity.VerbColumnRemoved, g.eventInput(id)))
	return nil
}

// NextAttributeColumnID reserves the ID of a new attribute column.
func (g *Grid) NextAttributeColumnID() string {
	return AttributeColumnIDPrefix + strconv.Itoa(nextCounter(&g.record.MaxAttributeColumnBaseID))
}

// NextCustomColumnID reserves the ID of a new custom column.
func (g *Grid) NextCustomColumnID() string {
	return CustomColumnIDPrefix + strconv.Itoa(nextCounter(&g.record.MaxCustomColumnBaseID))
}

func nextCounter(counter **int) int {
	next := 1
	if *counter != nil {
		next = **counter + 1
	}
	*counter = &next
	return next
}

func copyColumns(columns []*Column) []Column {
	out := make([]Column, 0, len(columns))
	for _, column := range columns {
		out = append(out, *column)
	}
	return out
}
