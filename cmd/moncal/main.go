package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"moncal/internal/calendar"
	"moncal/internal/config"
	"moncal/internal/ics"
	"moncal/internal/locale"
	appLog "moncal/internal/log"
	"moncal/internal/model"
	"moncal/internal/schedule"
)

const clearScreen = "\x1b[H\x1b[2J"

// environment is everything run takes from the process.
type environment struct {
	stdout   io.Writer
	stderr   io.Writer
	getenv   func(string) string
	now      func() time.Time
	terminal bool
}

func main() {
	// Root context with cancellation on SIGINT/SIGTERM; only follow mode
	// waits on it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	env := environment{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		getenv:   os.Getenv,
		now:      time.Now,
		terminal: term.IsTerminal(int(os.Stdout.Fd())),
	}
	if err := run(ctx, os.Args[1:], env); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if !exitErr.Reported {
				fmt.Fprintln(os.Stderr, "moncal:", exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "moncal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, env environment) error {
	appLog.SetOutput(env.stderr)

	flags, err := parseFlags(args, env.stdout)
	if err != nil {
		return err
	}
	if flags == nil {
		return nil
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return &ExitError{Code: 1, Message: err.Error(), Reported: true}
	}

	appLog.SetLevel(logLevel(conf.LogLevel, flags.verbose))

	names := resolveNames(flags, conf, env.getenv)
	opts := calendar.Options{
		WeekStart: calendar.ParseWeekStart(conf.WeekStart),
		Highlight: env.terminal && conf.Highlight(),
	}
	if flags.sunday {
		opts.WeekStart = calendar.Sunday
	}
	req := calendar.Request{Year: flags.year.ptr(), Month: flags.month.ptr()}
	loc := conf.Location()

	appLog.Debug("effective config",
		"config_path", flags.configPath,
		"locale", names.Locale,
		"week_start", opts.WeekStart.String(),
		"timezone", loc.String(),
		"highlight", opts.Highlight,
		"ics_count", len(conf.ICS)+len(flags.ics),
		"follow", flags.follow,
	)

	// Nothing is printed until the date is known to be valid.
	if _, err := calendar.Target(env.now().In(loc), req); err != nil {
		err = flags.month.asTyped("month", flags.year.asTyped("year", err))
		fmt.Fprintln(env.stdout, err)
		flags.usage()
		return &ExitError{Code: 1, Message: err.Error(), Reported: true}
	}

	r := &printer{
		out:     env.stdout,
		req:     req,
		names:   names,
		opts:    opts,
		loc:     loc,
		sources: sources(conf, flags),
	}

	if !flags.follow {
		return r.print(env.now().In(loc))
	}

	return schedule.Run(ctx, conf.Refresh, loc, env.now, func(now time.Time) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.printed {
			if env.terminal {
				fmt.Fprint(env.stdout, clearScreen)
			} else {
				fmt.Fprintln(env.stdout)
			}
		}
		if err := r.printLocked(now); err != nil {
			appLog.Error("render failed", err)
		}
	})
}

// logLevel picks the minimum log level. -v wins; an unknown configured
// level keeps the default.
func logLevel(configured string, verbose bool) appLog.Level {
	if verbose {
		return appLog.LevelDebug
	}
	if level, ok := appLog.ParseLevel(configured); ok {
		return level
	}
	return appLog.LevelError
}

func resolveNames(flags *flagConfig, conf *config.Config, getenv func(string) string) locale.Table {
	switch {
	case flags.locale != "":
		return locale.ForLocale(flags.locale)
	case conf.Locale != "":
		return locale.ForLocale(conf.Locale)
	default:
		return locale.FromEnvironment(getenv)
	}
}

func sources(conf *config.Config, flags *flagConfig) []ics.Source {
	out := make([]ics.Source, 0, len(conf.ICS)+len(flags.ics))
	for _, c := range conf.ICS {
		out = append(out, ics.Source{ID: c.ID, Path: c.Path})
	}
	for _, p := range flags.ics {
		out = append(out, ics.Source{ID: p, Path: p})
	}
	return out
}

// printer renders one calendar, plus the agenda when sources are set.
type printer struct {
	out     io.Writer
	req     calendar.Request
	names   locale.Table
	opts    calendar.Options
	loc     *time.Location
	sources []ics.Source

	mu      sync.Mutex
	printed bool
}

func (p *printer) print(now time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printLocked(now)
}

func (p *printer) printLocked(now time.Time) error {
	lines, err := calendar.Render(now, p.req, p.names, p.opts)
	if err != nil {
		return err
	}
	if len(p.sources) > 0 {
		target, _ := calendar.Target(now, p.req)
		first := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, p.loc)
		lines = append(lines, calendar.Agenda(first, p.occurrences(first), p.names)...)
	}
	if err := calendar.Write(p.out, lines); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	p.printed = true
	return nil
}

// occurrences loads every source for the month starting at first. A
// source that cannot be read is logged and left out.
func (p *printer) occurrences(first time.Time) []model.Occurrence {
	events := make([]ics.ParsedEvent, 0)
	for _, src := range p.sources {
		evs, err := ics.ParseFile(src)
		if err != nil {
			appLog.Error("ics source skipped", err, "id", src.ID)
			continue
		}
		events = append(events, evs...)
	}

	res, err := ics.ExpandOccurrences(events, ics.ExpandConfig{
		DisplayLocation: p.loc,
		RangeStart:      first,
		RangeEnd:        first.AddDate(0, 1, 0),
	})
	if err != nil {
		appLog.Error("expand failed", err)
		return nil
	}
	appLog.Debug("agenda loaded", "sources", len(p.sources), "occurrences", len(res.Occurrences))
	return res.Occurrences
}
