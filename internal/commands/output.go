package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/cleared-dev/cartola/internal/id"
	"github.com/cleared-dev/cartola/internal/model"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	keyColor  = color.New(color.FgCyan)
	dateColor = color.New(color.BgYellow, color.FgBlack)
	catColor  = color.New(color.BgGreen, color.FgBlack)
	noneColor = color.New(color.BgRed, color.FgWhite)
)

const descWidth = 40

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func amountString(t model.Transaction) string {
	switch {
	case t.AmountCorrected.Valid:
		return t.AmountCorrected.Decimal.StringFixed(2) + "*"
	case t.Amount.Valid:
		return t.Amount.Decimal.StringFixed(2)
	default:
		return t.AmountStatement.StringFixed(2) + "?"
	}
}

func printTransaction(w io.Writer, t model.Transaction) {
	fmt.Fprintf(w, "%5d ", t.ID)
	keyColor.Fprintf(w, "%-18s ", t.UniqueKey)
	dateColor.Fprintf(w, " %-10s ", t.Date)
	fmt.Fprintf(w, " %-*s %12s ", descWidth, truncate(t.Description, descWidth), amountString(t))
	c := catColor
	if t.Category == model.Uncategorized {
		c = noneColor
	}
	c.Fprintf(w, " %s ", t.Category)

	var flags []string
	if id.IsManualKey(t.UniqueKey) {
		flags = append(flags, "manual")
	}
	if t.IsTransfer {
		flags = append(flags, "transfer")
	}
	if !t.IsExpense {
		flags = append(flags, "income")
	}
	if len(flags) > 0 {
		fmt.Fprintf(w, " [%s]", strings.Join(flags, ","))
	}
	if t.UserNote != "" {
		fmt.Fprintf(w, " %q", t.UserNote)
	}
	fmt.Fprintln(w)
}

func printSuggestion(w io.Writer, sg model.Suggestion, threshold float64) {
	keyColor.Fprintf(w, "%-18s ", sg.UniqueKey)
	fmt.Fprintf(w, "%-*s ", descWidth, truncate(sg.Description, descWidth))
	if sg.Source == model.SourceNone {
		noneColor.Fprintf(w, " %s ", sg.Category)
	} else {
		catColor.Fprintf(w, " %s ", sg.Category)
	}
	fmt.Fprintf(w, " %-16s %.2f", sg.Source, sg.Confidence)
	if sg.AutoApply(threshold) {
		okColor.Fprint(w, " auto")
	}
	fmt.Fprintln(w)
}
