package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"moncal/internal/calendar"
	"moncal/internal/config"
)

// ExitError carries the process exit code for a failed run. Reported is
// set when the message was already written to the user. Err, when set, is
// the underlying cause.
type ExitError struct {
	Code     int
	Message  string
	Reported bool
	Err      error
}

func (e *ExitError) Error() string {
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ArgumentError reports a flag value that is not an integer.
type ArgumentError struct {
	Value string
	Err   error
}

// Error leaves the value out; flag already quotes it in front.
func (e *ArgumentError) Error() string {
	return "not an integer"
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// optionalInt is an int flag that remembers whether it was given. A
// number too large for int is kept, clamped, along with its text so range
// checking can report it as typed.
type optionalInt struct {
	value    int
	set      bool
	text     string
	overflow bool
	err      *ArgumentError
}

func (o *optionalInt) String() string {
	if o == nil || !o.set {
		return ""
	}
	return strconv.Itoa(o.value)
}

func (o *optionalInt) Set(s string) error {
	text := strings.TrimSpace(s)
	n, err := strconv.Atoi(text)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		o.err = &ArgumentError{Value: s, Err: err}
		return o.err
	}
	// On ErrRange, Atoi returns the largest int of the right sign, which
	// is outside every valid range.
	o.value, o.set, o.text, o.overflow = n, true, text, err != nil
	return nil
}

// asTyped replaces the clamped value in a range error with the text that
// was given on the command line.
func (o *optionalInt) asTyped(field string, err error) error {
	var ide *calendar.InvalidDateError
	if o.overflow && errors.As(err, &ide) && ide.Field == field {
		ide.Value = o.text
	}
	return err
}

// ptr returns nil when the flag was not given.
func (o *optionalInt) ptr() *int {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

// flagConfig holds CLI flag values before they are merged with the config
// file.
type flagConfig struct {
	configPath string
	year       optionalInt
	month      optionalInt
	locale     string
	sunday     bool
	ics        stringList
	follow     bool
	verbose    bool

	usage func()
}

// parseFlags returns (nil, nil) when help was requested and printed.
func parseFlags(args []string, output io.Writer) (*flagConfig, error) {
	var cfg flagConfig
	fs := flag.NewFlagSet("moncal", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.Usage = func() {
		fmt.Fprint(output, `Usage: moncal [-y year] [-m month] [options]

Print calendar for the current or specified month and year.

Options:
`)
		fs.PrintDefaults()
	}
	cfg.usage = fs.Usage

	fs.Var(&cfg.year, "y", "show calendar for specific `year` (1..9999)")
	fs.Var(&cfg.month, "m", "show calendar for specific `month` (1..12)")
	fs.StringVar(&cfg.configPath, "config", config.DefaultPath(), "path to the YAML config `file`")
	fs.StringVar(&cfg.locale, "locale", "", "`name` of the locale for month and weekday names (default from LC_ALL, LC_TIME, LANG)")
	fs.BoolVar(&cfg.sunday, "sunday", false, "start weeks on Sunday")
	fs.Var(&cfg.ics, "ics", "list events from this iCalendar `file` under the calendar (repeatable)")
	fs.BoolVar(&cfg.follow, "follow", false, "keep running and redraw on the config's refresh schedule")
	fs.BoolVar(&cfg.verbose, "v", false, "write debug logs to stderr")

	if err := fs.Parse(splitAttached(args)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil
		}
		// flag has already printed the error and usage. It formats the
		// Set error with %v, so the typed error is taken from the flag value.
		exitErr := &ExitError{Code: 2, Message: err.Error(), Reported: true, Err: err}
		for _, o := range []*optionalInt{&cfg.year, &cfg.month} {
			if o.err != nil {
				exitErr.Err = o.err
			}
		}
		return nil, exitErr
	}
	if fs.NArg() > 0 {
		msg := fmt.Sprintf("unexpected argument %q", fs.Arg(0))
		fmt.Fprintln(output, msg)
		fs.Usage()
		return nil, &ExitError{Code: 2, Message: msg, Reported: true}
	}
	return &cfg, nil
}

// splitAttached turns -y2017 and -m3 into separate flag and value
// arguments. Arguments after "--" are left alone.
func splitAttached(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if len(arg) > 2 && (strings.HasPrefix(arg, "-y") || strings.HasPrefix(arg, "-m")) && arg[2] != '=' {
			out = append(out, arg[:2], arg[2:])
			continue
		}
		out = append(out, arg)
	}
	return out
}
