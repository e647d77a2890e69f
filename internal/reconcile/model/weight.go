package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"sku-recon/internal/utils"
)

// Weight is a thickness in ounces: a closed range, an open range ("9+"),
// a single value (Min == Max) or an opaque grade token. Text given in
// millimetres keeps its mm range next to the ounce bucket.
type Weight struct {
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
	Open  bool    `json:"open,omitempty"`
	Grade string  `json:"grade,omitempty"`
	Unit  string  `json:"unit,omitempty"` // unit of the source text: oz | mm
	MMMin float64 `json:"mm_min,omitempty"`
	MMMax float64 `json:"mm_max,omitempty"`
	Raw   string  `json:"raw,omitempty"`
}

func (w Weight) IsZero() bool {
	return w.Grade == "" && w.Min == 0 && w.Max == 0 && !w.Open
}

func (w Weight) IsGrade() bool { return w.Grade != "" }

// HasMM reports whether the source text gave a millimetre range.
func (w Weight) HasMM() bool { return w.Unit == "mm" && w.MMMax > 0 }

// MM is the millimetre range as its own closed Weight; zero when HasMM is false.
func (w Weight) MM() Weight {
	if !w.HasMM() {
		return Weight{}
	}
	return Weight{Min: w.MMMin, Max: w.MMMax, Unit: "mm", Raw: w.Raw}
}

func (w Weight) Upper() float64 {
	if w.Open {
		return math.Inf(1)
	}
	return w.Max
}

// Key is the normalised table key: "3-4", "3.5", "9+", "grade s".
func (w Weight) Key() string {
	switch {
	case w.IsZero():
		return ""
	case w.IsGrade():
		return "grade " + strings.ToLower(w.Grade)
	case w.Open:
		return fmtNum(w.Min) + "+"
	case w.Min == w.Max:
		return fmtNum(w.Min)
	}
	return fmtNum(w.Min) + "-" + fmtNum(w.Max)
}

func (w Weight) String() string {
	switch {
	case w.IsZero():
		return ""
	case w.IsGrade():
		return "Grade " + strings.ToUpper(w.Grade)
	case w.HasMM():
		return w.MM().Key() + " mm"
	}
	return w.Key() + " oz"
}

// Contains reports o ⊆ w. Grades never contain ranges.
func (w Weight) Contains(o Weight) bool {
	if w.IsZero() || o.IsZero() || w.IsGrade() || o.IsGrade() {
		return false
	}
	return w.Min <= o.Min && o.Upper() <= w.Upper()
}

// Overlaps reports a positive-length intersection, or a point range lying inside the other.
func (w Weight) Overlaps(o Weight) bool {
	if w.IsZero() || o.IsZero() || w.IsGrade() || o.IsGrade() {
		return false
	}
	lo := math.Max(w.Min, o.Min)
	hi := math.Min(w.Upper(), o.Upper())
	if lo < hi {
		return true
	}
	return lo == hi && (w.Min == w.Upper() || o.Min == o.Upper())
}

var reRangeToken = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(?:(?:-|/)\s*(\d+(?:[.,]\d+)?)|(\+))?$`)

// ParseRange parses a bare table token: "3-4", "8/9", "9+", "5", "grade xs".
// Units are not accepted here; callers strip them.
func ParseRange(s string) (Weight, error) {
	t := strings.TrimSpace(strings.NewReplacer("–", "-", "—", "-").Replace(s))
	if t == "" {
		return Weight{}, fmt.Errorf("empty weight")
	}
	if g, ok := strings.CutPrefix(strings.ToLower(t), "grade "); ok {
		g = strings.TrimSpace(g)
		if g == "" {
			return Weight{}, fmt.Errorf("weight %q: empty grade", s)
		}
		return Weight{Grade: strings.ToUpper(g), Raw: s}, nil
	}
	m := reRangeToken.FindStringSubmatch(t)
	if m == nil {
		return Weight{}, fmt.Errorf("weight %q: not a range", s)
	}
	lo, ok := utils.ParseDecimal(m[1])
	if !ok {
		return Weight{}, fmt.Errorf("weight %q: bad number", s)
	}
	w := Weight{Min: lo, Max: lo, Unit: "oz", Raw: s}
	switch {
	case m[3] == "+":
		w.Open = true
		w.Max = 0
	case m[2] != "":
		hi, ok := utils.ParseDecimal(m[2])
		if !ok {
			return Weight{}, fmt.Errorf("weight %q: bad number", s)
		}
		if hi < lo {
			return Weight{}, fmt.Errorf("weight %q: upper bound below lower bound", s)
		}
		w.Max = hi
	}
	return w, nil
}

// NewRange builds a closed range, swapping reversed bounds.
func NewRange(lo, hi float64, unit, raw string) Weight {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Weight{Min: lo, Max: hi, Unit: unit, Raw: raw}
}

func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
