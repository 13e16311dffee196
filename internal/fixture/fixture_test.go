package fixture

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	grid "github.com/goliatone/go-grid"
	"github.com/goliatone/go-grid/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileAndApply(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(WithKnownFields(), WithValidation(validator.New()))

	file, err := loader.LoadFile("testdata/catalog.yaml")
	require.NoError(t, err)
	require.Len(t, file.Grids, 1)

	fx := file.Grids[0]
	assert.Equal(t, "productGrid", fx.Record.BlockID)
	assert.Equal(t, "q", fx.Record.VarNames.Filter)
	require.NotNil(t, fx.Record.Overrides.PaginationValues)
	assert.Equal(t, []int{20, 50, 100}, fx.Record.Overrides.Parameters().PaginationValues)
	assert.Equal(t, grid.AccessAllow, fx.Roles["merchandiser"].Permissions[grid.ActionAccessAllProfiles])

	store := storage.NewMemory()
	ids, err := Apply(ctx, store, file)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, ids)

	columns, err := store.LoadColumns(ctx, "7", 2)
	require.NoError(t, err)
	assert.Len(t, columns, 2)
	assert.Equal(t, grid.OriginAttribute, columns[1].Origin)
}

func TestDecodeRejectsInvalidColumns(t *testing.T) {
	doc := `
grids:
  - record:
      id: "1"
    columns:
      1:
        - id: sku
          origin: sideways
`
	_, err := NewLoader(WithValidation(validator.New())).Decode(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid 0")
}

func TestDecodeKnownFields(t *testing.T) {
	doc := "grids:\n  - record:\n      id: \"1\"\n      colour: blue\n"
	_, err := NewLoader(WithKnownFields()).Decode(strings.NewReader(doc))
	assert.Error(t, err)

	file, err := NewLoader().Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Len(t, file.Grids, 1)
}

func TestDecodeEmptyDocument(t *testing.T) {
	file, err := NewLoader().Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, file.Grids)
}

func TestPostHookCanAdjustGrids(t *testing.T) {
	doc := "grids:\n  - record:\n      block_type: catalog/product_grid\n"
	file, err := NewLoader(WithPostHook(func(_ int, g *Grid) error {
		g.Record.BlockID = "derived"
		return nil
	})).Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "derived", file.Grids[0].Record.BlockID)
}
