// Package tables holds the editable normalization data the parser and
// matcher run on: type keywords, brands and tannages, color synonyms,
// weight preferences, sample book templates and direct item rules.
package tables

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"sku-recon/internal/reconcile/model"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalid marks tables that decode but break a structural rule.
var ErrInvalid = errors.New("invalid tables")

type rawFile struct {
	Version           int               `yaml:"version"`
	CurrentBundle     Bundle            `yaml:"current_bundle"`
	MiscellaneousItem string            `yaml:"miscellaneous_item"`
	ProductTypes      []rawTypeRule     `yaml:"product_types"`
	Exclusions        []rawExclusion    `yaml:"exclusions"`
	Brands            []rawBrand        `yaml:"brands"`
	Tannages          []string          `yaml:"tannages"`
	Abbreviations     []rawAbbreviation `yaml:"abbreviations"`
	Colors            [][]string        `yaml:"colors"`
	Weights           rawWeights        `yaml:"weights"`
	SampleBooks       rawSampleBooks    `yaml:"sample_books"`
	Sports            map[string]struct {
		DefaultWeight string `yaml:"default_weight"`
	} `yaml:"sports"`
	DirectItems []rawDirectItem `yaml:"direct_items"`
	Codes       struct {
		Types    map[string]string `yaml:"types"`
		Tannages map[string]string `yaml:"tannages"`
		Colors   map[string]string `yaml:"colors"`
	} `yaml:"codes"`
}

type rawTypeRule struct {
	Type     string   `yaml:"type"`
	SubKind  string   `yaml:"sub_kind"`
	Keywords []string `yaml:"keywords"`
}

type rawExclusion struct {
	Keyword string `yaml:"keyword"`
	Reason  string `yaml:"reason"`
}

type rawBrand struct {
	Name     string   `yaml:"name"`
	Code     string   `yaml:"code"`
	Aliases  []string `yaml:"aliases"`
	Tannages []string `yaml:"tannages"`
}

type rawAbbreviation struct {
	Long  string   `yaml:"long"`
	Short []string `yaml:"short"`
}

type rawWeights struct {
	Preferences map[string][]string `yaml:"preferences"`
	MMBuckets   []struct {
		MM string `yaml:"mm"`
		Oz string `yaml:"oz"`
	} `yaml:"mm_buckets"`
}

type rawSampleBooks struct {
	Default   []string            `yaml:"default"`
	BrandWide string              `yaml:"brand_wide"`
	Brands    map[string][]string `yaml:"brands"`
}

type rawDirectItem struct {
	Type         string   `yaml:"type"`
	Keywords     []string `yaml:"keywords"`
	Item         string   `yaml:"item"`
	DefaultColor string   `yaml:"default_color"`
}

// Bundle names the one mystery bundle currently on sale and the ledger item it bills to.
type Bundle struct {
	Name string `yaml:"name" json:"name"`
	Item string `yaml:"item" json:"item"`
}

type TypeRule struct {
	Type     model.ProductType
	SubKind  string
	Keywords []string // folded
}

type Brand struct {
	Name     string   `json:"name"`
	Code     string   `json:"code"`
	Aliases  []string `json:"aliases"` // folded
	Tannages []string `json:"tannages"`
}

// DirectItem maps a keyword set to a fixed ledger item; Item may contain {Color}.
type DirectItem struct {
	Type         model.ProductType
	Keywords     []string // folded
	Item         string
	DefaultColor string
}

type exclusion struct {
	keyword string
	reason  string
}

// term is one searchable spelling and the canonical value it resolves to.
type term struct {
	folded    string
	canonical string
}

type mmBucket struct {
	mm model.Weight
	oz model.Weight
}

// Tables is the compiled, read-only form of a tables file. Safe for concurrent use.
type Tables struct {
	version   int
	bundle    Bundle
	misc      string
	typeRules []TypeRule
	excl      []exclusion

	brands        []Brand
	brandByFolded map[string]string // folded name or alias -> brand name
	aliases       []term            // longest first
	brandCodes    map[string]string

	tannages      []term            // every spelling, longest first
	brandTannages map[string][]term // brand name -> its spellings, longest first
	owners        map[string][]string
	forms         map[string][]string

	colors     []term
	colorCanon map[string]string // folded spelling -> representative

	prefs     map[string][]model.Weight
	mmBuckets []mmBucket

	sampleDefault []string
	brandWide     string
	sampleBrands  map[string][]string

	sports map[string]model.Weight
	direct []DirectItem

	typeCodes    map[model.ProductType]string
	tannageCodes map[string]string
	colorCodes   map[string]string
}

// Default compiles the embedded tables. They are covered by tests, so a
// failure here is a build defect.
func Default() *Tables {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("tables: embedded default: %v", err))
	}
	return t
}

// Load reads and compiles a tables file. An empty path yields Default().
func Load(path string) (*Tables, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables %s: %w", path, err)
	}
	t, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("tables %s: %w", path, err)
	}
	return t, nil
}

func Parse(data []byte) (*Tables, error) {
	var raw rawFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("tables: decode: %v: %w", err, ErrInvalid)
	}
	return compile(raw)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("tables: %s: %w", fmt.Sprintf(format, args...), ErrInvalid)
}

func compile(raw rawFile) (*Tables, error) {
	if raw.Version <= 0 {
		return nil, invalid("version must be positive")
	}
	if strings.TrimSpace(raw.MiscellaneousItem) == "" {
		return nil, invalid("miscellaneous_item is empty")
	}
	if strings.TrimSpace(raw.CurrentBundle.Name) == "" || strings.TrimSpace(raw.CurrentBundle.Item) == "" {
		return nil, invalid("current_bundle needs name and item")
	}
	t := &Tables{
		version:       raw.Version,
		bundle:        raw.CurrentBundle,
		misc:          raw.MiscellaneousItem,
		brandByFolded: map[string]string{},
		brandCodes:    map[string]string{},
		brandTannages: map[string][]term{},
		owners:        map[string][]string{},
		forms:         map[string][]string{},
		colorCanon:    map[string]string{},
		prefs:         map[string][]model.Weight{},
		sampleBrands:  map[string][]string{},
		sports:        map[string]model.Weight{},
		typeCodes:     map[model.ProductType]string{},
		tannageCodes:  map[string]string{},
		colorCodes:    map[string]string{},
	}
	steps := []func(rawFile) error{
		t.compileTypes,
		t.compileBrands,
		t.compileColors,
		t.compileAbbreviations,
		t.compileWeights,
		t.compileSampleBooks,
		t.compileSports,
		t.compileDirect,
		t.compileCodes,
	}
	for _, step := range steps {
		if err := step(raw); err != nil {
			return nil, err
		}
	}
	t.finishTerms()
	return t, nil
}

func (t *Tables) compileTypes(raw rawFile) error {
	for i, r := range raw.ProductTypes {
		pt := model.ProductType(r.Type)
		if !pt.Valid() || pt == model.Unknown {
			return invalid("product_types[%d]: unknown type %q", i, r.Type)
		}
		kws := foldAll(r.Keywords)
		if len(kws) == 0 {
			return invalid("product_types[%d] (%s): no keywords", i, r.Type)
		}
		t.typeRules = append(t.typeRules, TypeRule{Type: pt, SubKind: r.SubKind, Keywords: kws})
	}
	for i, e := range raw.Exclusions {
		kw := Fold(e.Keyword)
		if kw == "" || strings.TrimSpace(e.Reason) == "" {
			return invalid("exclusions[%d]: keyword and reason are required", i)
		}
		t.excl = append(t.excl, exclusion{keyword: kw, reason: e.Reason})
	}
	return nil
}

func (t *Tables) compileBrands(raw rawFile) error {
	for i, rb := range raw.Brands {
		name := strings.TrimSpace(rb.Name)
		if name == "" || strings.TrimSpace(rb.Code) == "" {
			return invalid("brands[%d]: name and code are required", i)
		}
		if _, dup := t.brandCodes[name]; dup {
			return invalid("brand %q listed twice", name)
		}
		t.brandCodes[name] = strings.ToUpper(rb.Code)
		b := Brand{Name: name, Code: strings.ToUpper(rb.Code), Tannages: rb.Tannages}
		for _, a := range append([]string{name}, rb.Aliases...) {
			fa := Fold(a)
			if fa == "" {
				continue
			}
			if other, ok := t.brandByFolded[fa]; ok && other != name {
				return invalid("brand alias %q claimed by %q and %q", a, other, name)
			}
			if _, seen := t.brandByFolded[fa]; !seen {
				t.aliases = append(t.aliases, term{folded: fa, canonical: name})
				b.Aliases = append(b.Aliases, fa)
			}
			t.brandByFolded[fa] = name
		}
		for _, tan := range rb.Tannages {
			if err := t.addTannage(tan, name); err != nil {
				return err
			}
		}
		t.brands = append(t.brands, b)
	}
	for _, tan := range raw.Tannages {
		if err := t.addTannage(tan, ""); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tables) addTannage(name, brand string) error {
	name = strings.TrimSpace(name)
	f := Fold(name)
	if f == "" {
		return invalid("empty tannage under brand %q", brand)
	}
	if _, known := t.forms[name]; !known {
		if c := t.tannageFor(f); c != "" && c != name {
			return invalid("tannage %q folds onto %q", name, c)
		}
		t.forms[name] = []string{name}
		t.tannages = append(t.tannages, term{folded: f, canonical: name})
	}
	if brand == "" {
		return nil
	}
	for _, o := range t.owners[name] {
		if o == brand {
			return invalid("tannage %q listed twice under %q", name, brand)
		}
	}
	t.owners[name] = append(t.owners[name], brand)
	t.brandTannages[brand] = append(t.brandTannages[brand], term{folded: f, canonical: name})
	return nil
}

func (t *Tables) tannageFor(folded string) string {
	for _, tm := range t.tannages {
		if tm.folded == folded {
			return tm.canonical
		}
	}
	return ""
}

func (t *Tables) compileColors(raw rawFile) error {
	for i, group := range raw.Colors {
		if len(group) == 0 {
			return invalid("colors[%d]: empty group", i)
		}
		rep := strings.TrimSpace(group[0])
		for _, c := range group {
			f := Fold(c)
			if f == "" {
				return invalid("colors[%d]: empty member", i)
			}
			if other, ok := t.colorCanon[f]; ok {
				return invalid("color %q in groups %q and %q", c, other, rep)
			}
			t.colorCanon[f] = rep
			t.colors = append(t.colors, term{folded: f, canonical: rep})
		}
	}
	return nil
}

// compileAbbreviations attaches short spellings to a tannage or a color;
// the long form must already be known as one of them.
func (t *Tables) compileAbbreviations(raw rawFile) error {
	for _, a := range raw.Abbreviations {
		long := strings.TrimSpace(a.Long)
		_, isTannage := t.forms[long]
		rep, isColor := t.colorCanon[Fold(long)]
		if !isTannage && !isColor {
			return invalid("abbreviation %q is neither a tannage nor a color", long)
		}
		for _, s := range a.Short {
			f := Fold(s)
			if f == "" {
				continue
			}
			if isTannage {
				if c := t.tannageFor(f); c != "" && c != long {
					return invalid("abbreviation %q already means %q", s, c)
				}
				t.forms[long] = append(t.forms[long], s)
				tm := term{folded: f, canonical: long}
				t.tannages = append(t.tannages, tm)
				for _, b := range t.owners[long] {
					t.brandTannages[b] = append(t.brandTannages[b], tm)
				}
			}
			if isColor {
				if other, ok := t.colorCanon[f]; ok && other != rep {
					return invalid("abbreviation %q already means color %q", s, other)
				}
				t.colorCanon[f] = rep
				t.colors = append(t.colors, term{folded: f, canonical: rep})
			}
		}
	}
	return nil
}

func (t *Tables) compileWeights(raw rawFile) error {
	for k, list := range raw.Weights.Preferences {
		w, err := model.ParseRange(k)
		if err != nil {
			return invalid("weights.preferences key: %v", err)
		}
		if len(list) == 0 {
			return invalid("weights.preferences %q: empty list", k)
		}
		if _, dup := t.prefs[w.Key()]; dup {
			return invalid("weights.preferences: %q repeats an earlier key", k)
		}
		out := make([]model.Weight, 0, len(list))
		for _, v := range list {
			pw, err := model.ParseRange(v)
			if err != nil {
				return invalid("weights.preferences %q: %v", k, err)
			}
			out = append(out, pw)
		}
		t.prefs[w.Key()] = out
	}
	for i, b := range raw.Weights.MMBuckets {
		mm, err := model.ParseRange(b.MM)
		if err != nil {
			return invalid("weights.mm_buckets[%d]: %v", i, err)
		}
		oz, err := model.ParseRange(b.Oz)
		if err != nil {
			return invalid("weights.mm_buckets[%d]: %v", i, err)
		}
		if mm.IsGrade() || mm.Open || oz.IsGrade() {
			return invalid("weights.mm_buckets[%d]: need closed numeric ranges", i)
		}
		t.mmBuckets = append(t.mmBuckets, mmBucket{mm: mm, oz: oz})
	}
	sort.SliceStable(t.mmBuckets, func(i, j int) bool { return t.mmBuckets[i].mm.Min < t.mmBuckets[j].mm.Min })
	return nil
}

func (t *Tables) compileSampleBooks(raw rawFile) error {
	sb := raw.SampleBooks
	if len(sb.Default) == 0 {
		return invalid("sample_books.default is empty")
	}
	for _, tpl := range append(append([]string(nil), sb.Default...), sb.BrandWide) {
		if err := checkPlaceholders(tpl, samplePlaceholders); err != nil {
			return err
		}
	}
	t.sampleDefault = sb.Default
	t.brandWide = sb.BrandWide
	for name, list := range sb.Brands {
		brand, ok := t.brandByFolded[Fold(name)]
		if !ok {
			return invalid("sample_books.brands: unknown brand %q", name)
		}
		if len(list) == 0 {
			return invalid("sample_books.brands %q: empty list", name)
		}
		for _, tpl := range list {
			if err := checkPlaceholders(tpl, samplePlaceholders); err != nil {
				return err
			}
		}
		t.sampleBrands[brand] = list
	}
	return nil
}

func (t *Tables) compileSports(raw rawFile) error {
	for kind, s := range raw.Sports {
		if s.DefaultWeight == "" {
			continue
		}
		w, err := model.ParseRange(s.DefaultWeight)
		if err != nil {
			return invalid("sports.%s.default_weight: %v", kind, err)
		}
		t.sports[kind] = w
	}
	return nil
}

func (t *Tables) compileDirect(raw rawFile) error {
	for i, d := range raw.DirectItems {
		pt := model.ProductType(d.Type)
		if !pt.Valid() {
			return invalid("direct_items[%d]: unknown type %q", i, d.Type)
		}
		if strings.TrimSpace(d.Item) == "" {
			return invalid("direct_items[%d]: empty item", i)
		}
		if err := checkPlaceholders(d.Item, directPlaceholders); err != nil {
			return err
		}
		t.direct = append(t.direct, DirectItem{
			Type:         pt,
			Keywords:     foldAll(d.Keywords),
			Item:         d.Item,
			DefaultColor: d.DefaultColor,
		})
	}
	return nil
}

func (t *Tables) compileCodes(raw rawFile) error {
	for k, v := range raw.Codes.Types {
		pt := model.ProductType(k)
		if !pt.Valid() {
			return invalid("codes.types: unknown type %q", k)
		}
		t.typeCodes[pt] = strings.ToUpper(v)
	}
	for k, v := range raw.Codes.Tannages {
		if _, ok := t.forms[k]; !ok {
			return invalid("codes.tannages: unknown tannage %q", k)
		}
		t.tannageCodes[k] = strings.ToUpper(v)
	}
	for k, v := range raw.Codes.Colors {
		rep, ok := t.colorCanon[Fold(k)]
		if !ok || rep != k {
			return invalid("codes.colors: %q is not a canonical color", k)
		}
		t.colorCodes[k] = strings.ToUpper(v)
	}
	return nil
}

// finishTerms orders every search list longest spelling first so that
// "cavalier chromexcel" wins over "chromexcel" and "dark brown" over "brown".
func (t *Tables) finishTerms() {
	sortTerms(t.aliases)
	sortTerms(t.tannages)
	sortTerms(t.colors)
	for b := range t.brandTannages {
		sortTerms(t.brandTannages[b])
	}
}

func sortTerms(ts []term) {
	sort.SliceStable(ts, func(i, j int) bool {
		if len(ts[i].folded) != len(ts[j].folded) {
			return len(ts[i].folded) > len(ts[j].folded)
		}
		return ts[i].folded < ts[j].folded
	})
}

var (
	rePlaceholder      = regexp.MustCompile(`\{([^{}]*)\}`)
	samplePlaceholders = map[string]bool{"Brand": true, "Tannage": true, "Type": true}
	directPlaceholders = map[string]bool{"Color": true}
)

func checkPlaceholders(tpl string, allowed map[string]bool) error {
	for _, m := range rePlaceholder.FindAllStringSubmatch(tpl, -1) {
		if !allowed[m[1]] {
			return invalid("template %q: unknown placeholder {%s}", tpl, m[1])
		}
	}
	return nil
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}
