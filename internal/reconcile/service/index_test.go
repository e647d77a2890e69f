package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sku-recon/internal/reconcile/model"
)

func names(items []*model.CatalogItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestBuildIndex(t *testing.T) {
	idx := BuildIndex([]string{
		"Dublin Black 3.5-4 oz",
		"Nubuck Black 4-5 oz",
		"DHF Chromexcel Black",
		"Sample Book - T & B Sokoto",
		"Commission",
		"",
		"  dublin black 3.5-4 OZ ",
		"*Essex Natural 4-5 oz",
		"Dublin Black 3-3.5 oz",
		"Scrap Leather",
	}, newTestParser())

	assert.Equal(t, 8, idx.Len())
	st := idx.Stats()
	assert.Equal(t, 8, st.Items)
	assert.Equal(t, 1, st.Duplicates)
	assert.Equal(t, 1, st.Unclassified)
	assert.Equal(t, 1, st.Legacy)
	assert.Equal(t, 4, st.ByType[model.FullHide])

	for i, it := range idx.Items() {
		assert.Equal(t, i, it.Seq)
	}

	assert.Equal(t, []string{"Commission"}, names(idx.Unclassified()))
	require.NotNil(t, idx.Lookup("COMMISSION"))
	require.NotNil(t, idx.Lookup("Essex Natural 4-5 oz"), "legacy marker is ignored by lookup")
	assert.True(t, idx.Lookup("Essex Natural 4-5 oz").Legacy)
	assert.Nil(t, idx.Lookup("Dublin Black 9 oz"))

	// brand bucket plus brandless items, in catalog order
	assert.Equal(t,
		[]string{"Dublin Black 3.5-4 oz", "Nubuck Black 4-5 oz", "*Essex Natural 4-5 oz", "Dublin Black 3-3.5 oz"},
		names(idx.Candidates(model.FullHide, "Horween")))
	assert.Equal(t,
		[]string{"Dublin Black 3.5-4 oz", "Nubuck Black 4-5 oz", "*Essex Natural 4-5 oz", "Dublin Black 3-3.5 oz"},
		names(idx.Candidates(model.FullHide, "")))
	assert.Equal(t, []string{"Nubuck Black 4-5 oz"}, names(idx.Candidates(model.FullHide, "Tempesti")))
	assert.Equal(t, []string{"DHF Chromexcel Black"}, names(idx.Candidates(model.DoubleHorsefront, "Horween")))
	assert.Empty(t, idx.Candidates(model.Panel, ""))

	assert.Equal(t, []string{"Sample Book - T & B Sokoto"}, names(idx.SampleBooks("Tusting & Burnett")))
	assert.Equal(t, "Sample Book - T & B {Type}", idx.Templates("Tusting & Burnett")[0])
}

func TestBuildIndexEmpty(t *testing.T) {
	idx := BuildIndex(nil, newTestParser())
	assert.Zero(t, idx.Len())
	assert.Nil(t, idx.Lookup("anything"))
	assert.Empty(t, idx.Candidates(model.FullHide, ""))
}

func TestBuildIndexKeepsLegacyTwin(t *testing.T) {
	idx := BuildIndex([]string{
		"*Dublin Black 3.5-4 oz",
		"Dublin Black 3.5-4 oz",
		"*dublin black 3.5-4 OZ",
	}, newTestParser())

	assert.Equal(t, 2, idx.Len())
	st := idx.Stats()
	assert.Equal(t, 1, st.Duplicates)
	assert.Equal(t, 1, st.Legacy)
	assert.Equal(t,
		[]string{"*Dublin Black 3.5-4 oz", "Dublin Black 3.5-4 oz"},
		names(idx.Candidates(model.FullHide, "Horween")))

	it := idx.Lookup("Dublin Black 3.5-4 oz")
	require.NotNil(t, it)
	assert.False(t, it.Legacy)
	assert.Same(t, it, idx.Lookup("*Dublin Black 3.5-4 oz"))
}
