package service

import (
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/tables"
)

// Reconciler runs parse and match over a batch of order lines against one
// catalog snapshot. Lines are independent; only the counters are shared.
type Reconciler struct {
	t         *tables.Tables
	idx       *Index
	parser    *Parser
	matcher   *Matcher
	workers   int
	aggregate bool
	progress  func()
	log       zerolog.Logger
}

type Option func(*Reconciler)

// WithWorkers bounds the worker pool; n < 1 means one worker per CPU.
func WithWorkers(n int) Option {
	return func(r *Reconciler) { r.workers = n }
}

// WithAggregate merges repeated (sku, product, variant) lines before matching.
func WithAggregate(on bool) Option {
	return func(r *Reconciler) { r.aggregate = on }
}

// WithProgress is called once per processed line, never concurrently.
func WithProgress(fn func()) Option {
	return func(r *Reconciler) { r.progress = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) { r.log = l }
}

func NewReconciler(t *tables.Tables, idx *Index, opts ...Option) *Reconciler {
	r := &Reconciler{
		t:       t,
		idx:     idx,
		parser:  NewParser(t),
		matcher: NewMatcher(t),
		workers: 1,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.workers < 1 {
		r.workers = runtime.NumCPU()
	}
	return r
}

type outcome struct {
	attrs model.ParsedAttributes
	match model.MatchResult
}

// Run maps every line. Output order follows input order for any worker count.
func (r *Reconciler) Run(items []model.OrderLineItem) model.Result {
	start := time.Now()
	if r.aggregate {
		before := len(items)
		items = aggregate(items)
		r.log.Debug().Int("lines", before).Int("merged", len(items)).Msg("aggregated duplicate lines")
	}

	outs := r.process(items)

	res := model.Result{
		Rows:     make([]model.Mapping, 0, len(items)),
		Review:   []model.Mapping{},
		Excluded: []model.ExcludedRow{},
	}
	for i, it := range items {
		o := outs[i]
		if o.match.Kind == model.Excluded {
			res.Excluded = append(res.Excluded, model.ExcludedRow{
				InputSku:     it.Sku,
				InputProduct: it.ProductName,
				InputVariant: it.VariantText,
				Quantity:     it.Quantity,
				Reason:       o.attrs.ExclusionReason,
			})
			continue
		}
		m := r.mapping(it, o)
		res.Rows = append(res.Rows, m)
		if m.NeedsReview || m.MatchKind != model.Exact {
			res.Review = append(res.Review, m)
		}
	}
	res.Stats = computeStats(len(items), res)

	r.log.Info().
		Int("total", res.Stats.Total).
		Int("exact", res.Stats.ByKind[model.Exact].Count).
		Int("closest", res.Stats.ByKind[model.Closest].Count).
		Int("miscellaneous", res.Stats.ByKind[model.Miscellaneous].Count).
		Int("excluded", res.Stats.Excluded).
		Int("needs_review", res.Stats.NeedsReview).
		Dur("took", time.Since(start)).
		Msg("reconcile finished")
	return res
}

func (r *Reconciler) process(items []model.OrderLineItem) []outcome {
	outs := make([]outcome, len(items))
	if len(items) == 0 {
		return outs
	}
	work := make(chan int, len(items))
	for i := range items {
		work <- i
	}
	close(work)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for w := 0; w < r.workers && w < len(items); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				a := r.parser.Parse(items[i].ProductName, items[i].VariantText)
				// each index is written by exactly one worker
				outs[i] = outcome{attrs: a, match: r.matcher.Match(a, r.idx)}
				if r.progress != nil {
					mu.Lock()
					r.progress()
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return outs
}

func (r *Reconciler) mapping(it model.OrderLineItem, o outcome) model.Mapping {
	a, res := o.attrs, o.match
	row := model.MappingRow{
		InputSku:     it.Sku,
		InputProduct: it.ProductName,
		InputVariant: it.VariantText,
		Quantity:     it.Quantity,
		MatchedItem:  res.ItemName(),
		ProductType:  a.ProductType,
		Brand:        a.Brand,
		Tannage:      a.Tannage,
		Color:        a.Color,
		Weight:       a.Weight.String(),
		MatchKind:    res.Kind,
		NeedsReview:  res.NeedsReview,
		InternalSku:  InternalSku(r.t, a),
		Rationale:    res.Rationale,
	}
	if res.Kind == model.Miscellaneous {
		row.NeedsCatalogItem = true
		row.FallbackItem = r.t.MiscellaneousItem()
	}
	return model.Mapping{Line: it, Attrs: a, Match: res, MappingRow: row}
}

// aggregate merges duplicates by sku + folded product + folded variant,
// summing quantity and keeping first-seen order.
func aggregate(items []model.OrderLineItem) []model.OrderLineItem {
	pos := make(map[string]int, len(items))
	out := make([]model.OrderLineItem, 0, len(items))
	for _, it := range items {
		key := strings.Join([]string{
			strings.TrimSpace(it.Sku),
			tables.Fold(it.ProductName),
			tables.Fold(it.VariantText),
		}, "|")
		if i, ok := pos[key]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		pos[key] = len(out)
		out = append(out, it)
	}
	return out
}

func computeStats(total int, res model.Result) model.Stats {
	st := model.Stats{
		Total:            total,
		Considered:       len(res.Rows),
		Excluded:         len(res.Excluded),
		ByKind:           map[model.MatchKind]model.KindCount{},
		ExcludedByReason: map[string]int{},
		ByType:           map[model.ProductType]model.TypeCount{},
	}
	counts := map[model.MatchKind]int{model.Excluded: len(res.Excluded)}
	for _, m := range res.Rows {
		counts[m.MatchKind]++
		if m.NeedsReview {
			st.NeedsReview++
		}
		tc := st.ByType[m.ProductType]
		tc.Total++
		if m.MatchKind == model.Exact || m.MatchKind == model.Closest {
			tc.Matched++
		}
		st.ByType[m.ProductType] = tc
	}
	for _, e := range res.Excluded {
		st.ExcludedByReason[e.Reason]++
	}
	for _, k := range []model.MatchKind{model.Exact, model.Closest, model.Miscellaneous, model.Excluded} {
		st.ByKind[k] = model.KindCount{Count: counts[k], Percent: percent(counts[k], total)}
	}
	return st
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*1000/float64(total)) / 10
}
