package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	facegrab "github.com/anatolykoptev/go-facegrab"
	"github.com/anatolykoptev/go-facegrab/cascade"
	"github.com/anatolykoptev/go-facegrab/journal"
)

func main() {
	envFile := envString("FACEGRAB_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", envFile, err)
		os.Exit(1)
	}

	count := flag.Int("count", envInt("FACEGRAB_COUNT", facegrab.DefaultTargetCount), "Number of images to keep")
	minSize := flag.Int("min-size", envInt("FACEGRAB_MIN_SIZE", facegrab.DefaultMinDimension), "Minimum length of the longer image side in pixels")
	threshold := flag.Int("threshold", envInt("FACEGRAB_THRESHOLD", facegrab.DefaultSimilarityThreshold), "Perceptual hash distance at or below which images count as duplicates")
	pageSize := flag.Int("page-size", envInt("FACEGRAB_PAGE_SIZE", facegrab.DefaultPageSize), "Search results per page")
	maxPages := flag.Int("max-pages", envInt("FACEGRAB_MAX_PAGES", facegrab.DefaultMaxPages), "Maximum search pages per run")
	fetchTimeout := flag.Duration("fetch-timeout", 10*time.Second, "Per-image download timeout")
	outDir := flag.String("out", envString("FACEGRAB_OUTPUT", facegrab.DefaultOutputRoot), "Output root directory")
	source := flag.String("source", envString("FACEGRAB_SOURCE", "google"), "Search source: google, searxng or html")
	searxngURL := flag.String("searxng-url", envString("SEARXNG_URL", ""), "SearXNG instance URL")
	htmlTemplate := flag.String("html-url", envString("FACEGRAB_HTML_URL", ""), "Results page template with {query} {offset} {page} {count}")
	htmlSelector := flag.String("html-selector", envString("FACEGRAB_HTML_SELECTOR", "img"), "CSS selector for image elements")
	htmlAttr := flag.String("html-attr", envString("FACEGRAB_HTML_ATTR", "src"), "Attribute holding the image URL")
	cascadePath := flag.String("cascade", envString("FACEGRAB_CASCADE", "haarcascades/haarcascade_frontalface_default.xml"), "Haar cascade XML for face detection")
	journalPath := flag.String("journal", envString("FACEGRAB_JOURNAL", ""), "SQLite journal path (empty disables)")
	metricsAddr := flag.String("metrics-addr", envString("FACEGRAB_METRICS_ADDR", ""), "Prometheus metrics listen address (e.g. :9090)")
	blockStock := flag.Bool("block-stock", false, "Reject stock-agency URLs and metadata")
	skipLogos := flag.Bool("skip-logos", false, "Reject logo/icon/banner URLs before download")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: facegrab [flags] <query>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	src, err := buildSource(*source, *searxngURL, *htmlTemplate, *htmlSelector, *htmlAttr)
	if err != nil {
		slog.Error("invalid source configuration", slog.Any("error", err))
		os.Exit(1)
	}

	faces, err := cascade.New(*cascadePath, cascade.Options{})
	if err != nil {
		slog.Error("loading face detector", slog.Any("error", err))
		os.Exit(1)
	}
	defer faces.Close()

	detector, err := facegrab.NewCachedDetector(faces, 0)
	if err != nil {
		slog.Error("creating detection cache", slog.Any("error", err))
		os.Exit(1)
	}

	cfg := &facegrab.Config{
		Source:              src,
		Detector:            detector,
		Metrics:             facegrab.NewMetrics(),
		OutputRoot:          *outDir,
		TargetCount:         *count,
		MinDimension:        facegrab.Int(*minSize),
		SimilarityThreshold: facegrab.Int(*threshold),
		PageSize:            *pageSize,
		MaxPages:            *maxPages,
		FetchTimeout:        *fetchTimeout,
		BlockStock:          *blockStock,
		SkipLogos:           *skipLogos,
	}

	if *journalPath != "" {
		j, err := journal.Open(*journalPath)
		if err != nil {
			slog.Error("opening journal", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := j.Close(); err != nil {
				slog.Error("close journal", slog.Any("error", err))
			}
		}()
		cfg.Journal = j
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if *metricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", *metricsAddr))
	}

	res, runErr := cfg.Acquire(ctx, query)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if res != nil {
		printSummary(res)
	}
	if runErr != nil {
		slog.Error("acquisition failed", slog.Any("error", runErr))
		os.Exit(1)
	}
}

func buildSource(kind, searxngURL, htmlTemplate, htmlSelector, htmlAttr string) (facegrab.SearchSource, error) {
	switch strings.ToLower(kind) {
	case "google":
		key, cx := os.Getenv("GOOGLE_API_KEY"), os.Getenv("GOOGLE_CX")
		if key == "" || cx == "" {
			return nil, errors.New("GOOGLE_API_KEY and GOOGLE_CX must be set")
		}
		return &facegrab.GoogleSource{APIKey: key, EngineID: cx}, nil
	case "searxng":
		if searxngURL == "" {
			return nil, errors.New("-searxng-url is required for the searxng source")
		}
		return &facegrab.SearXNGSource{URL: searxngURL, UserAgent: facegrab.DefaultUserAgent}, nil
	case "html":
		if htmlTemplate == "" {
			return nil, errors.New("-html-url is required for the html source")
		}
		return &facegrab.HTMLSource{URLTemplate: htmlTemplate, Selector: htmlSelector, Attr: htmlAttr}, nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", kind)
	}
}

func printSummary(res *facegrab.Result) {
	for _, u := range res.URLs {
		fmt.Println(u)
	}

	separator := "--------------------------------------------------"
	fmt.Fprintln(os.Stderr, separator)
	fmt.Fprintf(os.Stderr, "  Query:      %s\n", res.Query)
	fmt.Fprintf(os.Stderr, "  Saved:      %d images in %s\n", len(res.URLs), res.Dir)
	fmt.Fprintf(os.Stderr, "  Stop:       %s\n", res.Stop)
	fmt.Fprintf(os.Stderr, "  Pages:      %d\n", res.Pages)
	if len(res.Rejected) > 0 {
		fmt.Fprintf(os.Stderr, "  Rejected:   %v\n", res.Rejected)
	}
	fmt.Fprintf(os.Stderr, "  Duration:   %v\n", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	fmt.Fprintln(os.Stderr, separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
