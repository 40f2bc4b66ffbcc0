// Package locale resolves the month and weekday names used by the calendar
// renderer.
package locale

import (
	"strings"
	"sync"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"

	appLog "moncal/internal/log"
)

// Names looks up display names by month and weekday.
type Names interface {
	// Month returns the full month name, e.g. "January".
	Month(m time.Month) string
	// Weekday returns the abbreviated weekday name, e.g. "Mon".
	Weekday(d time.Weekday) string
}

// Table is a fixed Names implementation.
type Table struct {
	Locale   string
	Months   [12]string // January first
	Weekdays [7]string  // Sunday first, matching time.Weekday
}

func (t Table) Month(m time.Month) string {
	return t.Months[m-1]
}

func (t Table) Weekday(d time.Weekday) string {
	return t.Weekdays[d]
}

// English is the fallback table used when no locale can be resolved.
var English = Table{
	Locale: "en_US",
	Months: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	Weekdays: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
}

var (
	matcherOnce sync.Once
	matcher     language.Matcher
	supported   []monday.Locale
)

func initMatcher() {
	matcherOnce.Do(func() {
		tags := make([]language.Tag, 0)
		for _, l := range monday.ListLocales() {
			tag, err := language.Parse(strings.ReplaceAll(string(l), "_", "-"))
			if err != nil {
				continue
			}
			tags = append(tags, tag)
			supported = append(supported, l)
		}
		matcher = language.NewMatcher(tags)
	})
}

// Normalize turns a POSIX locale name such as "de_DE.UTF-8@euro" into a
// BCP 47 string ("de-DE"). "C" and "POSIX" normalize to "".
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	switch name {
	case "", "C", "POSIX":
		return ""
	}
	return strings.ReplaceAll(name, "_", "-")
}

// ForLocale builds a Table for the named locale. Names that cannot be
// parsed or matched fall back to English.
func ForLocale(name string) Table {
	norm := Normalize(name)
	if norm == "" {
		return English
	}
	tag, err := language.Parse(norm)
	if err != nil {
		appLog.Debug("locale not parseable, using English", "locale", name, "err", err)
		return English
	}

	initMatcher()
	_, idx, conf := matcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(supported) {
		appLog.Debug("locale not supported, using English", "locale", name)
		return English
	}
	loc := supported[idx]
	appLog.Debug("locale resolved", "requested", name, "matched", string(loc), "confidence", conf.String())
	return tableFor(loc)
}

// FromEnvironment resolves the locale the same way the C library does for
// LC_TIME: LC_ALL, then LC_TIME, then LANG.
func FromEnvironment(lookup func(string) string) Table {
	for _, key := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := lookup(key); v != "" {
			return ForLocale(v)
		}
	}
	return English
}

func tableFor(loc monday.Locale) Table {
	t := Table{Locale: string(loc)}
	for m := time.January; m <= time.December; m++ {
		t.Months[m-1] = monday.Format(time.Date(2001, m, 1, 0, 0, 0, 0, time.UTC), "January", loc)
	}
	// 2001-01-07 was a Sunday.
	for d := 0; d < 7; d++ {
		day := time.Date(2001, time.January, 7+d, 0, 0, 0, 0, time.UTC)
		t.Weekdays[day.Weekday()] = monday.Format(day, "Mon", loc)
	}
	return t
}
