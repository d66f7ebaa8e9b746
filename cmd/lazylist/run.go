package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	flag "github.com/spf13/pflag"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/lazylist"
	"github.com/hupe1980/lazylist/source"
)

const usage = `Usage: lazylist [flags]

Scrolls a lazy list like a renderer that shows every row: each frame reads
all placeholders, waits for the resulting loads and prints the window again,
until neither end of the sequence is unknown.

Flags:
`

// run is the testable entry point. Returns the exit code.
func run(ctx context.Context, out, errOut io.Writer, args []string) int {
	cfg, err := parseFlags(errOut, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}

	if err := demo(ctx, out, errOut, cfg); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func parseFlags(errOut io.Writer, args []string) (Config, error) {
	def := DefaultConfig()

	fs := flag.NewFlagSet("lazylist", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprint(errOut, usage)
		fs.PrintDefaults()
	}

	configPath := fs.StringP("config", "c", "", "JSONC config file (flags override it)")
	backend := fs.StringP("backend", "b", def.Backend, "data backend: memory, paged or sqlite")
	size := fs.IntP("size", "n", def.Size, "number of records in the dataset")
	start := fs.Int64("start", def.Start, "key the first load starts at")
	pageSize := fs.IntP("page-size", "p", def.PageSize, "records per batch load")
	delay := fs.Duration("delay", def.delay(), "simulated latency per call (memory and paged backends)")
	failRate := fs.Float64("fail-rate", def.FailRate, "probability that a call fails (memory and paged backends)")
	cachePages := fs.Int("cache-pages", def.CachePages, "pages kept by the paged backend (0 = no cache)")
	seed := fs.Uint64("seed", def.Seed, "seed for fault injection")
	maxConcurrent := fs.Int64("max-concurrent", def.MaxConcurrent, "bound on concurrent loads (0 = unlimited)")
	logLevel := fs.String("log-level", def.LogLevel, "log level: debug, info, warn or error")
	jsonLogs := fs.Bool("json", def.JSONLogs, "emit JSON logs")
	quiet := fs.BoolP("quiet", "q", def.Quiet, "print only the final frame and stats")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = loadConfigFile(*configPath, def); err != nil {
			return Config{}, err
		}
	}

	// Explicit flags win over the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "size":
			cfg.Size = *size
		case "start":
			cfg.Start = *start
		case "page-size":
			cfg.PageSize = *pageSize
		case "delay":
			cfg.Delay = delay.String()
		case "fail-rate":
			cfg.FailRate = *failRate
		case "seed":
			cfg.Seed = *seed
		case "cache-pages":
			cfg.CachePages = *cachePages
		case "max-concurrent":
			cfg.MaxConcurrent = *maxConcurrent
		case "log-level":
			cfg.LogLevel = *logLevel
		case "json":
			cfg.JSONLogs = *jsonLogs
		case "quiet":
			cfg.Quiet = *quiet
		}
	})

	return cfg, cfg.validate()
}

func demo(ctx context.Context, out, errOut io.Writer, cfg Config) error {
	src, cleanup, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := slog.Handler(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: cfg.level()}))
	if cfg.JSONLogs {
		handler = slog.NewJSONHandler(errOut, &slog.HandlerOptions{Level: cfg.level()})
	}

	var changes atomic.Int64
	metrics := &lazylist.BasicMetricsCollector{}
	list := lazylist.New[source.Record[string]](src,
		lazylist.WithContext(ctx),
		lazylist.WithLogger(lazylist.NewLogger(handler)),
		lazylist.WithMetricsCollector(metrics),
		lazylist.WithMaxConcurrentFetches(cfg.MaxConcurrent),
		lazylist.WithOnChanged(func() { changes.Add(1) }),
	)
	defer list.Close()

	frames, err := scroll(ctx, list, func(n int, rows []lazylist.Entry[source.Record[string]]) {
		if !cfg.Quiet {
			fmt.Fprintf(out, "frame %d: %s\n", n, formatRows(rows))
		}
	})
	if err != nil {
		return err
	}

	rows := list.Materialize()
	if cfg.Quiet {
		fmt.Fprintf(out, "final: %s\n", formatRows(rows))
	}

	stats := metrics.GetStats()
	fmt.Fprintf(out, "rows=%d frames=%d notifications=%d fetches=%d (before=%d item=%d after=%d) errors=%d\n",
		len(rows), frames, changes.Load(), stats.Fetches(),
		stats.LoadBeforeCount, stats.LoadItemCount, stats.LoadAfterCount, stats.FetchErrors)
	return nil
}

// scroll reads every placeholder of every frame until a frame has none.
// It returns the number of frames shown.
func scroll[T any](ctx context.Context, list *lazylist.List[T], show func(n int, rows []lazylist.Entry[T])) (int, error) {
	for n := 1; ; n++ {
		rows := list.Materialize()
		show(n, rows)

		loading := false
		for _, r := range rows {
			if r.Placeholder {
				list.Read(r.Position)
				loading = true
			}
		}
		if !loading {
			return n, nil
		}
		if err := list.Wait(ctx); err != nil {
			return n, err
		}
	}
}

func openSource(ctx context.Context, cfg Config) (lazylist.DataSource[source.Record[string]], func(), error) {
	values := make([]string, cfg.Size)
	for i := range values {
		values[i] = fmt.Sprintf("row-%d", i)
	}

	switch cfg.Backend {
	case backendSQLite:
		db, err := seedSQLite(ctx, values)
		if err != nil {
			return nil, nil, err
		}
		src, err := source.NewSQL[string](db, source.SQLConfig{
			Table:       "entries",
			KeyColumn:   "id",
			ValueColumn: "label",
			PageSize:    cfg.PageSize,
			StartKey:    cfg.Start,
		})
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return src, func() { _ = db.Close() }, nil
	case backendPaged:
		// The memory source supplies latency and faults; its page size
		// matches, so one load-after is one backend page.
		mem := memorySource(cfg, values)
		pages := func(ctx context.Context, page, size int) ([]string, error) {
			recs, err := mem.LoadAfter(ctx, lazylist.Anchor[source.Record[string]]{
				Value:    source.Record[string]{Key: int64(page*size) - 1},
				HasValue: true,
			})
			if err != nil {
				return nil, err
			}
			out := make([]string, len(recs))
			for i, r := range recs {
				out[i] = r.Value
			}
			return out, nil
		}
		paged := source.NewPaged(pages, source.PagedConfig{
			PageSize:   cfg.PageSize,
			Start:      int(cfg.Start),
			CachePages: cfg.CachePages,
		})
		return paged, func() {}, nil
	default:
		return memorySource(cfg, values), func() {}, nil
	}
}

func memorySource(cfg Config, values []string) *source.Memory[string] {
	opts := []source.MemoryOption{
		source.WithPageSize(cfg.PageSize),
		source.WithStartKey(cfg.Start),
		source.WithDelay(cfg.delay()),
	}
	if cfg.FailRate > 0 {
		opts = append(opts, source.WithFailRate(cfg.FailRate, cfg.Seed))
	}
	return source.NewMemory(source.Sequence(values), opts...)
}

func seedSQLite(ctx context.Context, values []string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if err := func() error {
		if _, err := db.ExecContext(ctx, `CREATE TABLE entries (id INTEGER PRIMARY KEY, label TEXT NOT NULL)`); err != nil {
			return err
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (id, label) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, v := range values {
			if _, err := stmt.ExecContext(ctx, i, v); err != nil {
				return err
			}
		}
		return tx.Commit()
	}(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed sqlite: %w", err)
	}
	return db, nil
}

// formatRows renders a frame: keys for values, "…" for placeholders and
// "!" for errors.
func formatRows(rows []lazylist.Entry[source.Record[string]]) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range rows {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch {
		case r.Placeholder:
			b.WriteString("…")
		case r.Outcome.Kind() == lazylist.KindError:
			b.WriteByte('!')
		default:
			rec, _ := r.Outcome.Get()
			fmt.Fprint(&b, rec.Key)
		}
	}
	b.WriteByte(']')
	return b.String()
}
