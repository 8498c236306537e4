package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"feedbook/pkg/config"
	"feedbook/pkg/db"
	"feedbook/pkg/domain"
	"feedbook/pkg/feed"
	"feedbook/pkg/images"
	"feedbook/pkg/proc"
	"feedbook/pkg/render"
	"feedbook/pkg/server"
)

// Opts with all CLI options
type Opts struct {
	Args struct {
		Source string `positional-arg-name:"SOURCE" description:"RSS feed URL to ingest"`
	} `positional-args:"yes"`

	Config string `short:"f" long:"config" env:"CONFIG" description:"config file (yaml)"`
	Limit  string `long:"limit" env:"LIMIT" description:"max number of articles, positive integer"`
	Date   string `long:"date" env:"DATE" description:"show cached articles for the date, YYYYMMDD"`

	JSON     bool `long:"json" description:"print articles as json"`
	Colorize bool `long:"colorize" description:"colorize json output"`
	ToHTML   bool `long:"to-html" description:"write articles to an html file"`
	ToPDF    bool `long:"to-pdf" description:"write articles to a pdf file"`
	ToEPUB   bool `long:"to-epub" description:"write articles to an epub file"`

	Server bool   `long:"server" env:"SERVER" description:"run REST server instead of one-shot mode"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		if errors.Is(err, domain.ErrInvalidLimit) || errors.Is(err, domain.ErrNotRSSFeed) || errors.Is(err, domain.ErrNotFound) {
			log.Printf("[ERROR] %v", err)
			os.Exit(2)
		}
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// limit and date are checked before anything touches network or disk
	limit, err := domain.ParseLimit(opts.Limit)
	if err != nil {
		return err
	}
	if opts.Date != "" && !domain.ValidDateKey(opts.Date) {
		return fmt.Errorf("date must be YYYYMMDD, got %q", opts.Date)
	}

	store, err := db.New(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	cache := images.New(images.Config{
		Dir:      cfg.Images.Dir,
		Workers:  cfg.Images.Workers,
		MaxWidth: cfg.Images.ResizeWidth,
		Timeout:  cfg.Fetch.Timeout,
	})
	fetcher := feed.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	pipeline := proc.New(fetcher, cache, store)

	renderer, err := render.New(render.Config{
		AssetsDir:   cfg.Images.Dir,
		EbookTitle:  cfg.Render.EbookTitle,
		EbookAuthor: cfg.Render.EbookAuthor,
	})
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	if opts.Server {
		log.Printf("[INFO] starting feedbook server, version %s", revision)
		srv := server.New(server.Config{
			Listen:    cfg.Server.Listen,
			Timeout:   cfg.Server.Timeout,
			OutputDir: cfg.Render.OutputDir,
			Version:   revision,
			Debug:     opts.Debug,
		}, store, pipeline, renderer)
		return srv.Run(ctx)
	}

	return oneShot(ctx, opts, cfg, store, pipeline, renderer, limit)
}

// oneShot ingests the source feed if one is given, then prints or renders the
// matching cached articles
func oneShot(ctx context.Context, opts Opts, cfg *config.Config, store *db.DB,
	pipeline *proc.Processor, renderer *render.Renderer, limit int) error {

	if opts.Args.Source == "" && opts.Date == "" {
		return errors.New("nothing to do, pass a feed URL or --date")
	}

	if opts.Args.Source != "" {
		res, err := pipeline.Ingest(ctx, opts.Args.Source, limit)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", opts.Args.Source, err)
		}
		log.Printf("[INFO] ingested %d articles (%d new) from %s, feed kind %s",
			len(res.Articles), res.Inserted, opts.Args.Source, res.Kind)
	}

	stored, err := store.GetArticlesByDateAndSource(ctx, opts.Date, opts.Args.Source, limit)
	if err != nil {
		return fmt.Errorf("query articles: %w", err)
	}
	articles := make([]domain.Article, 0, len(stored))
	for _, a := range stored {
		articles = append(articles, a.Article)
	}

	for _, format := range requestedFormats(opts) {
		path, err := renderer.Render(format, articles, cfg.Render.OutputDir)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if path != "" {
			log.Printf("[INFO] wrote %s", path)
		}
	}

	if opts.JSON {
		text, err := render.JSONText(articles, opts.Colorize && !opts.NoColor)
		if err != nil {
			return fmt.Errorf("json output: %w", err)
		}
		fmt.Println(text)
		return nil
	}

	if len(requestedFormats(opts)) == 0 {
		render.PrettyPrint(os.Stdout, articles, !opts.NoColor)
	}
	return nil
}

func requestedFormats(opts Opts) []render.Format {
	var formats []render.Format
	if opts.ToHTML {
		formats = append(formats, render.FormatHTML)
	}
	if opts.ToPDF {
		formats = append(formats, render.FormatPDF)
	}
	if opts.ToEPUB {
		formats = append(formats, render.FormatEPUB)
	}
	return formats
}

func loadConfig(opts Opts) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	return cfg, nil
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(os.Stderr), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
