package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"sku-recon/internal/reconcile/model"
)

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("matching"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("lines"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

var kindColor = map[model.MatchKind]func(format string, a ...interface{}) string{
	model.Exact:         color.GreenString,
	model.Closest:       color.YellowString,
	model.Miscellaneous: color.RedString,
	model.Excluded:      color.HiBlackString,
}

func printSummary(w io.Writer, res model.Result, showReview bool) {
	st := res.Stats
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %d lines, %d considered, %d excluded\n", bold("Mapped"), st.Total, st.Considered, st.Excluded)
	for _, k := range []model.MatchKind{model.Exact, model.Closest, model.Miscellaneous, model.Excluded} {
		kc := st.ByKind[k]
		fmt.Fprintf(w, "  %-14s %6d  %5.1f%%\n", kindColor[k]("%s", k), kc.Count, kc.Percent)
	}
	if len(res.Review) > 0 {
		fmt.Fprintf(w, "%s %d lines on the review list\n", color.YellowString("Review:"), len(res.Review))
	}
	if !showReview {
		return
	}
	for _, m := range res.Review {
		item := m.MatchedItem
		if item == "" {
			item = m.FallbackItem
		}
		fmt.Fprintf(w, "  %s | %s -> %s [%s] %s\n",
			m.InputProduct, m.InputVariant, item, kindColor[m.MatchKind]("%s", m.MatchKind), m.Rationale)
	}
}
