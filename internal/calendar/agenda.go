package calendar

import (
	"fmt"
	"sort"
	"time"

	"moncal/internal/locale"
	"moncal/internal/model"
)

// Agenda lists the occurrences that touch the month starting at first, one
// line per occurrence, preceded by a blank separator line. first must be
// midnight of day 1 in the display location. Occurrences that
// began in an earlier month are listed on day 1 and marked as continued.
// It returns nil when nothing falls in the month.
func Agenda(first time.Time, occs []model.Occurrence, names locale.Names) []string {
	next := first.AddDate(0, 1, 0)

	in := make([]model.Occurrence, 0, len(occs))
	for _, o := range occs {
		if !o.Start.Before(next) {
			continue
		}
		if !o.End.After(first) && !o.Start.Equal(first) {
			continue
		}
		in = append(in, o)
	}
	if len(in) == 0 {
		return nil
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].Before(in[j]) })

	lines := make([]string, 0, len(in)+1)
	lines = append(lines, "")
	for _, o := range in {
		day := o.Start
		text := o.Summary
		if !o.AllDay {
			text = o.Start.Format("15:04") + " " + text
		}
		if day.Before(first) {
			day = first
			text += " (cont.)"
		}
		if o.Location != "" {
			text += " @ " + o.Location
		}
		lines = append(lines, fmt.Sprintf("%4d %s  %s", day.Day(), PadRight(names.Weekday(day.Weekday()), CellWidth-1), text))
	}
	return lines
}

// PadRight left-aligns s in width terminal cells.
func PadRight(s string, width int) string {
	if pad := width - displayWidth(s); pad > 0 {
		return s + spaces(pad)
	}
	return s
}
