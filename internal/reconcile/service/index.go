package service

import (
	"sort"
	"strings"

	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/tables"
)

type bucketKey struct {
	pt    model.ProductType
	brand string
}

// Index is the parsed catalog grouped for candidate retrieval. Read-only
// after BuildIndex, so one Index can serve many concurrent matches.
type Index struct {
	t            *tables.Tables
	items        []*model.CatalogItem
	byName       map[string]*model.CatalogItem // folded name
	buckets      map[bucketKey][]*model.CatalogItem
	byType       map[model.ProductType][]*model.CatalogItem
	unclassified []*model.CatalogItem
	duplicates   int
	sampleBooks  map[string][]*model.CatalogItem // brand -> sample book items
}

type IndexStats struct {
	Items        int                       `json:"items"`
	ByType       map[model.ProductType]int `json:"by_type"`
	Unclassified int                       `json:"unclassified"`
	Duplicates   int                       `json:"duplicates"`
	Legacy       int                       `json:"legacy"`
}

// BuildIndex parses every catalog name with p. Empty names are skipped and
// a repeated name keeps its first occurrence. A legacy "*Name" and an active
// "Name" are different items; the active one answers Lookup.
func BuildIndex(names []string, p *Parser) *Index {
	idx := &Index{
		t:           p.Tables(),
		byName:      make(map[string]*model.CatalogItem, len(names)),
		buckets:     make(map[bucketKey][]*model.CatalogItem),
		byType:      make(map[model.ProductType][]*model.CatalogItem),
		sampleBooks: make(map[string][]*model.CatalogItem),
	}
	type seenKey struct {
		folded string
		legacy bool
	}
	seen := make(map[seenKey]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		key := tables.Fold(name)
		if key == "" {
			continue
		}
		sk := seenKey{folded: key, legacy: strings.HasPrefix(name, "*")}
		if _, dup := seen[sk]; dup {
			idx.duplicates++
			continue
		}
		seen[sk] = struct{}{}
		it := &model.CatalogItem{
			Name:             name,
			Seq:              len(idx.items),
			ParsedAttributes: p.ParseCatalogName(name),
		}
		idx.items = append(idx.items, it)
		if prev, ok := idx.byName[key]; !ok || (prev.Legacy && !it.Legacy) {
			idx.byName[key] = it
		}

		if unclassified(it) {
			idx.unclassified = append(idx.unclassified, it)
			continue
		}
		bk := bucketKey{pt: it.ProductType, brand: it.Brand}
		idx.buckets[bk] = append(idx.buckets[bk], it)
		idx.byType[it.ProductType] = append(idx.byType[it.ProductType], it)
		if it.ProductType == model.SampleBook {
			idx.sampleBooks[it.Brand] = append(idx.sampleBooks[it.Brand], it)
		}
	}
	return idx
}

// unclassified items are only reachable by exact name.
func unclassified(it *model.CatalogItem) bool {
	if it.ProductType == model.Unknown || !it.ProductType.Valid() {
		return true
	}
	return it.ProductType.Structured() && it.Tannage == ""
}

// Lookup finds an item by name, ignoring case, accents, punctuation and a
// legacy '*'. An active item wins over its legacy twin.
func (idx *Index) Lookup(name string) *model.CatalogItem {
	return idx.byName[tables.Fold(name)]
}

// Candidates returns the items of a type for a brand plus that type's
// brandless items, or every item of the type when brand is empty.
// The result is in catalog order and must not be modified.
func (idx *Index) Candidates(pt model.ProductType, brand string) []*model.CatalogItem {
	if brand == "" {
		return idx.byType[pt]
	}
	own := idx.buckets[bucketKey{pt: pt, brand: brand}]
	loose := idx.buckets[bucketKey{pt: pt}]
	if len(loose) == 0 {
		return own
	}
	if len(own) == 0 {
		return loose
	}
	out := make([]*model.CatalogItem, 0, len(own)+len(loose))
	out = append(append(out, own...), loose...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// SampleBooks lists the brand's sample book items in catalog order.
func (idx *Index) SampleBooks(brand string) []*model.CatalogItem {
	return idx.sampleBooks[brand]
}

// Templates returns the sample book naming templates for a brand.
func (idx *Index) Templates(brand string) []string {
	return idx.t.SampleBookTemplates(brand)
}

func (idx *Index) Unclassified() []*model.CatalogItem { return idx.unclassified }

func (idx *Index) Items() []*model.CatalogItem { return idx.items }

func (idx *Index) Len() int { return len(idx.items) }

func (idx *Index) Stats() IndexStats {
	st := IndexStats{
		Items:        len(idx.items),
		ByType:       make(map[model.ProductType]int, len(idx.byType)),
		Unclassified: len(idx.unclassified),
		Duplicates:   idx.duplicates,
	}
	for pt, list := range idx.byType {
		st.ByType[pt] = len(list)
	}
	for _, it := range idx.items {
		if it.Legacy {
			st.Legacy++
		}
	}
	return st
}
