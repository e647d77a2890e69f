package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/tables"
)

func newTestReconciler(catalog []string, opts ...Option) *Reconciler {
	tb := tables.Default()
	return NewReconciler(tb, BuildIndex(catalog, NewParser(tb)), opts...)
}

func mixedLines() []model.OrderLineItem {
	return []model.OrderLineItem{
		{ProductName: "Horween Dublin", VariantText: "Dublin - Black - 3-4 oz", Sku: "A1", Quantity: 2},
		{ProductName: "Horween Dublin", VariantText: "Dublin - Black", Sku: "A2", Quantity: 1},
		{ProductName: "Pierrot Lux Panel", VariantText: "Burgundy", Sku: "B1", Quantity: 3},
		{ProductName: "Cotton T-Shirt", VariantText: "Large", Sku: "T1", Quantity: 1},
	}
}

func TestRunStats(t *testing.T) {
	r := newTestReconciler([]string{"Dublin Black 3.5-4 oz"})
	res := r.Run(mixedLines())

	require.Len(t, res.Rows, 3)
	require.Len(t, res.Excluded, 1)
	assert.Equal(t, "Cotton T-Shirt", res.Excluded[0].InputProduct)
	assert.Equal(t, ReasonMerchandise, res.Excluded[0].Reason)

	st := res.Stats
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.Considered)
	assert.Equal(t, 1, st.Excluded)
	assert.Equal(t, 1, st.NeedsReview)
	for _, k := range []model.MatchKind{model.Exact, model.Closest, model.Miscellaneous, model.Excluded} {
		assert.Equal(t, model.KindCount{Count: 1, Percent: 25}, st.ByKind[k], k)
	}
	assert.Equal(t, map[string]int{ReasonMerchandise: 1}, st.ExcludedByReason)
	assert.Equal(t, model.TypeCount{Total: 2, Matched: 2}, st.ByType[model.FullHide])
	assert.Equal(t, model.TypeCount{Total: 1, Matched: 0}, st.ByType[model.Panel])
	_, ok := st.ByType[model.Merchandise]
	assert.False(t, ok, "excluded lines are not counted per type")
}

func TestRunRows(t *testing.T) {
	r := newTestReconciler([]string{"Dublin Black 3.5-4 oz"})
	res := r.Run(mixedLines())

	exact := res.Rows[0]
	assert.Equal(t, model.Exact, exact.MatchKind)
	assert.Equal(t, "Dublin Black 3.5-4 oz", exact.MatchedItem)
	assert.Equal(t, "A1", exact.InputSku)
	assert.Equal(t, 2, exact.Quantity)
	assert.Equal(t, "HOR-DUB-BLK-34", exact.InternalSku)
	assert.False(t, exact.NeedsCatalogItem)
	assert.Empty(t, exact.FallbackItem)
	assert.NotEmpty(t, exact.Rationale)

	closest := res.Rows[1]
	assert.Equal(t, model.Closest, closest.MatchKind)
	assert.True(t, closest.NeedsReview)

	misc := res.Rows[2]
	assert.Equal(t, model.Miscellaneous, misc.MatchKind)
	assert.Empty(t, misc.MatchedItem)
	assert.True(t, misc.NeedsCatalogItem)
	assert.Equal(t, "MISCELLANEOUS LEATHER", misc.FallbackItem)
	assert.Equal(t, "B1", misc.InputSku)

	require.Len(t, res.Review, 2)
	assert.Equal(t, "A2", res.Review[0].InputSku)
	assert.Equal(t, "B1", res.Review[1].InputSku)

	flat := model.Rows(res.Rows)
	require.Len(t, flat, 3)
	assert.Equal(t, exact.MappingRow, flat[0])
}

func TestRunEmpty(t *testing.T) {
	res := newTestReconciler(nil).Run(nil)
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Review)
	assert.Empty(t, res.Excluded)
	assert.Zero(t, res.Stats.Total)
	assert.Zero(t, res.Stats.ByKind[model.Exact].Percent)
}

func TestRunWorkerCountKeepsOrder(t *testing.T) {
	catalog := []string{
		"Dublin Black 3.5-4 oz",
		"Dublin Black 4.5-5 oz",
		"Chromexcel Brown 4-5 oz",
		"DHF Chromexcel Black",
	}
	var lines []model.OrderLineItem
	variants := []string{"Dublin - Black - 3-4 oz", "Dublin - Black - 4-5 oz", "Chromexcel - Brown", "Nothing"}
	for i := 0; i < 200; i++ {
		lines = append(lines, model.OrderLineItem{
			ProductName: "Horween Leather",
			VariantText: variants[i%len(variants)],
			Sku:         fmt.Sprintf("S%03d", i),
			Quantity:    1,
		})
	}

	serial := newTestReconciler(catalog, WithWorkers(1)).Run(lines)
	parallel := newTestReconciler(catalog, WithWorkers(8)).Run(lines)
	assert.Equal(t, model.Rows(serial.Rows), model.Rows(parallel.Rows))
	assert.Equal(t, serial.Stats, parallel.Stats)
	for i, row := range parallel.Rows {
		assert.Equal(t, fmt.Sprintf("S%03d", i), row.InputSku)
	}
}

func TestRunProgress(t *testing.T) {
	calls := 0
	r := newTestReconciler([]string{"Dublin Black 3.5-4 oz"},
		WithWorkers(4),
		WithProgress(func() { calls++ }))
	r.Run(mixedLines())
	assert.Equal(t, 4, calls)
}

func TestRunAggregate(t *testing.T) {
	lines := []model.OrderLineItem{
		{ProductName: "Horween Dublin", VariantText: "Dublin - Black - 3-4 oz", Sku: "A1", Quantity: 2},
		{ProductName: "Pierrot Lux Panel", VariantText: "Burgundy", Sku: "B1", Quantity: 1},
		{ProductName: "HORWEEN DUBLIN", VariantText: "dublin - black - 3-4 oz ", Sku: "A1", Quantity: 3},
		{ProductName: "Horween Dublin", VariantText: "Dublin - Black - 3-4 oz", Sku: "A9", Quantity: 1},
	}

	plain := newTestReconciler([]string{"Dublin Black 3.5-4 oz"}).Run(lines)
	assert.Len(t, plain.Rows, 4)

	res := newTestReconciler([]string{"Dublin Black 3.5-4 oz"}, WithAggregate(true)).Run(lines)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "A1", res.Rows[0].InputSku)
	assert.Equal(t, 5, res.Rows[0].Quantity)
	assert.Equal(t, "Horween Dublin", res.Rows[0].InputProduct, "first spelling is kept")
	assert.Equal(t, "B1", res.Rows[1].InputSku)
	assert.Equal(t, "A9", res.Rows[2].InputSku)
	assert.Equal(t, 3, res.Stats.Total)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 33.3, percent(1, 3))
	assert.Equal(t, 66.7, percent(2, 3))
	assert.Equal(t, 100.0, percent(5, 5))
	assert.Zero(t, percent(1, 0))
}

func TestNewReconcilerWorkers(t *testing.T) {
	r := newTestReconciler(nil, WithWorkers(0))
	assert.GreaterOrEqual(t, r.workers, 1)
	r = newTestReconciler(nil)
	assert.Equal(t, 1, r.workers)
}
