package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/width"

	"github.com/Nao-Mk2/access-log-top/internal/report"
)

// TextRenderer writes a report as one aligned table per category.
// Colour follows the terminal detection of fatih/color unless NoColor is
// set.
type TextRenderer struct {
	NoColor bool
}

func (r *TextRenderer) Render(w io.Writer, v any) error {
	rep, ok := v.(*report.Report)
	if !ok {
		return fmt.Errorf("text output needs a report, got %T", v)
	}

	p := message.NewPrinter(language.English)
	title := color.New(color.FgCyan, color.Bold)
	header := color.New(color.FgWhite, color.Bold)
	if r.NoColor {
		title.DisableColor()
		header.DisableColor()
	}

	if s := rep.Stats; s != nil {
		title.Fprintln(w, "Run")
		p.Fprintf(w, "  parsed %d  matched %d  skipped %d  duration %s  %.2f lines/s  started %s\n\n",
			s.Parsed, s.Matched, s.Skipped, s.Duration, s.LinesPerSecond, s.Started)
	}

	for i, sec := range rep.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title.Fprintf(w, "%s", sec.Category.ReportKey())
		p.Fprintf(w, " (top %d of %d)\n", sec.TopN, sec.Total)
		if len(sec.Records) == 0 {
			fmt.Fprintln(w, "  (no entries)")
			continue
		}

		rows := make([][3]string, len(sec.Records))
		widths := [3]int{displayWidth("KEY"), displayWidth("COUNT"), displayWidth("PERCENT")}
		for j, rec := range sec.Records {
			rows[j] = [3]string{
				rec.Key,
				p.Sprintf("%d", rec.Value),
				p.Sprintf("%.2f%%", rec.Percent),
			}
			for k, cell := range rows[j] {
				widths[k] = max(widths[k], displayWidth(cell))
			}
		}

		header.Fprintf(w, "  %s  %s  %s\n", padRight("KEY", widths[0]), padLeft("COUNT", widths[1]), padLeft("PERCENT", widths[2]))
		fmt.Fprintf(w, "  %s  %s  %s\n",
			strings.Repeat("-", widths[0]), strings.Repeat("-", widths[1]), strings.Repeat("-", widths[2]))
		for _, row := range rows {
			fmt.Fprintf(w, "  %s  %s  %s\n", padRight(row[0], widths[0]), padLeft(row[1], widths[1]), padLeft(row[2], widths[2]))
		}
	}
	return nil
}

// displayWidth returns the number of terminal columns s occupies. Wide and
// fullwidth East Asian characters take two columns.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func padRight(s string, w int) string {
	return s + strings.Repeat(" ", max(0, w-displayWidth(s)))
}

func padLeft(s string, w int) string {
	return strings.Repeat(" ", max(0, w-displayWidth(s))) + s
}
