package metrics

import (
	"context"
	"testing"

	grid "github.com/goliatone/go-grid"
	"github.com/goliatone/go-grid/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserveDerivedValueStore(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	store := grid.NewDerivedValueStore(m)
	_, ok := store.Get(grid.KeyColumns)
	assert.False(t, ok)
	store.Set(grid.KeyColumns, grid.NewColumnIndex())
	_, ok = store.Get(grid.KeyColumns)
	assert.True(t, ok)
	store.Invalidate(grid.GroupProfiles)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("columns", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("columns", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalidations.WithLabelValues("profiles")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalidations.WithLabelValues("available_profiles")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalidations.WithLabelValues("columns")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Invalidations.WithLabelValues("type")))
}

func TestMetricsRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)
	assert.Same(t, first.Lookups, second.Lookups)

	_, err = New(nil)
	require.NoError(t, err)
}

func TestMetricsHookCountsEvents(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	emitter := activity.NewEmitter(activity.Hooks{m.Hook()}, activity.Config{Enabled: true})
	event := activity.BuildColumnEvent(activity.VerbColumnAdded, activity.GridEventInput{GridID: "7", Subject: "sku"})
	require.NoError(t, emitter.Emit(context.Background(), event))
	require.NoError(t, emitter.Emit(context.Background(), event))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues(activity.VerbColumnAdded, activity.ObjectColumn)))
}
