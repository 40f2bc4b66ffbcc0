// Package calendar lays out a month as a text grid of weeks.
package calendar

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"moncal/internal/locale"
)

// Layout constants for the text grid.
const (
	HeaderWidth = 28
	CellWidth   = 4
)

const (
	reverseOn  = "\x1b[7m"
	reverseOff = "\x1b[0m"
)

var blankCell = spaces(CellWidth)

// WeekStart selects the weekday shown in the first column.
type WeekStart int

const (
	Monday WeekStart = iota
	Sunday
)

// ParseWeekStart maps "monday"/"sunday" onto a WeekStart. Anything else is
// Monday.
func ParseWeekStart(s string) WeekStart {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return Sunday
	}
	return Monday
}

func (ws WeekStart) String() string {
	if ws == Sunday {
		return "sunday"
	}
	return "monday"
}

// slot returns the column index of wd.
func (ws WeekStart) slot(wd time.Weekday) int {
	if ws == Sunday {
		return int(wd)
	}
	return (int(wd) + 6) % 7
}

// weekday returns the weekday shown in column slot.
func (ws WeekStart) weekday(slot int) time.Weekday {
	if ws == Sunday {
		return time.Weekday(slot)
	}
	return time.Weekday((slot + 1) % 7)
}

// Request names the month to render. A nil field takes its value from the
// current date.
type Request struct {
	Year  *int
	Month *int
}

// Options tunes the grid. The zero value gives the plain Monday-first
// layout.
type Options struct {
	WeekStart WeekStart
	// Highlight marks today's cell in reverse video when the rendered month
	// contains it. Only meant for terminals.
	Highlight bool
}

// Target returns the first day of the requested month, in UTC. Year and
// month overrides are range checked before anything else happens.
func Target(now time.Time, req Request) (time.Time, error) {
	year, month := now.Year(), int(now.Month())
	if req.Year != nil {
		if err := checkRange("year", *req.Year, MinYear, MaxYear); err != nil {
			return time.Time{}, err
		}
		year = *req.Year
	}
	if req.Month != nil {
		if err := checkRange("month", *req.Month, MinMonth, MaxMonth); err != nil {
			return time.Time{}, err
		}
		month = *req.Month
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// Render returns the calendar lines for the requested month: a centered
// header, the weekday names, and one line per week.
func Render(now time.Time, req Request, names locale.Names, opts Options) ([]string, error) {
	first, err := Target(now, req)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, 8)
	lines = append(lines, Center(names.Month(first.Month())+" "+strconv.Itoa(first.Year()), HeaderWidth))

	var b strings.Builder
	for slot := 0; slot < 7; slot++ {
		b.WriteString(PadLeft(names.Weekday(opts.WeekStart.weekday(slot)), CellWidth))
	}
	lines = append(lines, b.String())

	today := -1
	if opts.Highlight && now.Year() == first.Year() && now.Month() == first.Month() {
		today = now.Day()
	}

	month := first.Month()
	date := first
	for date.Month() == month {
		b.Reset()
		for slot := 0; slot < 7; slot++ {
			if slot < opts.WeekStart.slot(date.Weekday()) || date.Month() != month {
				b.WriteString(blankCell)
				continue
			}
			b.WriteString(dayCell(date.Day(), date.Day() == today))
			date = date.AddDate(0, 0, 1)
		}
		lines = append(lines, b.String())
	}
	return lines, nil
}

func dayCell(day int, highlight bool) string {
	s := strconv.Itoa(day)
	if !highlight {
		return PadLeft(s, CellWidth)
	}
	return spaces(CellWidth-len(s)) + reverseOn + s + reverseOff
}

// Center pads s with spaces to width terminal cells, putting the odd space
// on the right.
func Center(s string, width int) string {
	pad := width - displayWidth(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return spaces(left) + s + spaces(pad-left)
}

// PadLeft right-aligns s in width terminal cells.
func PadLeft(s string, width int) string {
	if pad := width - displayWidth(s); pad > 0 {
		return spaces(pad) + s
	}
	return s
}

func displayWidth(s string) int {
	return uniseg.StringWidth(s)
}

func spaces(n int) string {
	return strings.Repeat(" ", n)
}

// Write writes each line followed by a newline and flushes once.
func Write(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.WriteString(l); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
