// Package main is the entry point for the bookshelf server.
//
// bookshelf serves a small book collection over a JSON HTTP API and persists
// it in a single JSON file. Configuration is read from CLI flags, a .env file
// in the data directory (for flag defaults) and config.yaml (for the data
// file, limits and change history).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lmittmann/tint"
	"github.com/maruel/bookshelf/internal/jsondb"
	"github.com/maruel/bookshelf/internal/models"
	"github.com/maruel/bookshelf/internal/server"
	"github.com/maruel/bookshelf/internal/server/ipgeo"
	"github.com/maruel/bookshelf/internal/server/ratelimit"
	"github.com/maruel/bookshelf/internal/storage"
	"github.com/maruel/bookshelf/internal/storage/git"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "bookshelf: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	schema := flag.Bool("schema", false, "Print the JSON Schema of the data file and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080)")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	geoDB := flag.String("geo-db", "", "Path to MaxMind MMDB file for IP geolocation (optional)")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion(os.Stdout)
		return nil
	}
	if *schema {
		data, err := jsondb.Schema[*models.Book]()
		if err != nil {
			return err
		}
		_, err = fmt.Printf("%s\n", data)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ll := &slog.LevelVar{}
	slog.SetDefault(slog.New(newLogHandler(os.Stderr, ll)))

	// Values from .env apply to flags not given on the command line.
	env, err := loadDotEnv(*dataDir)
	if err != nil {
		return err
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	for name, key := range map[string]string{"http": "HTTP", "log-level": "LOG_LEVEL", "geo-db": "GEO_DB"} {
		if v := env[key]; v != "" && !set[name] {
			if err := flag.Set(name, v); err != nil {
				return fmt.Errorf("invalid %s in .env: %w", key, err)
			}
		}
	}

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		return err
	}
	ll.Set(level)

	serverCfg, err := storage.LoadServerConfig(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", storage.ConfigFile, err)
	}

	svc, err := storage.NewBookService(serverCfg.DataPath(*dataDir))
	if err != nil {
		return fmt.Errorf("failed to initialize book service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.ErrorContext(ctx, "Failed to close book service", "err", err)
		}
	}()

	if serverCfg.History.Enabled {
		h, err := git.Open(*dataDir, git.Author{Name: serverCfg.History.AuthorName, Email: serverCfg.History.AuthorEmail})
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		svc.Store().Observe(h)
		slog.InfoContext(ctx, "Change history enabled", "dir", *dataDir)
	}

	var geoChecker *ipgeo.Checker
	if *geoDB != "" {
		if geoChecker, err = ipgeo.Open(*geoDB); err != nil {
			return fmt.Errorf("failed to open geo database: %w", err)
		}
		defer func() { _ = geoChecker.Close() }()
		slog.InfoContext(ctx, "IP geolocation enabled", "db", *geoDB)
	}

	limits := ratelimit.NewConfig(serverCfg.RateLimits.ReadPerMin, serverCfg.RateLimits.WritePerMin)
	defer limits.Close()

	// Watch own executable for modifications (for development restarts)
	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	addr := *httpAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	buildVersion, _, _, _ := getBuildInfo()
	httpServer := &http.Server{
		Addr: addr,
		Handler: server.NewRouter(svc, &server.Config{
			Name:                "bookshelf",
			Version:             buildVersion,
			MaxRequestBodyBytes: serverCfg.MaxRequestBodyBytes,
			RateLimits:          limits,
			IPGeo:               geoChecker,
		}),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "data", svc.Store().Path(), "version", buildVersion)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
	}
	return nil
}

// newLogHandler returns a tint handler writing to w.
//
// Colors are only used on a terminal. Timestamps are dropped under systemd,
// which adds its own, and so are empty attributes.
func newLogHandler(w *os.File, level slog.Leveler) slog.Handler {
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	return tint.NewHandler(colorable.NewColorable(w), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(w.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return dropEmptyAttr(a)
		},
	})
}

// dropEmptyAttr elides zero values and localhost IPs.
func dropEmptyAttr(a slog.Attr) slog.Attr {
	if a.Key == "ip" {
		if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
			return slog.Attr{}
		}
	}
	skip := false
	switch t := a.Value.Any().(type) {
	case string:
		skip = t == ""
	case bool:
		skip = !t
	case int64:
		skip = t == 0
	case uint64:
		skip = t == 0
	case float64:
		skip = t == 0
	case time.Duration:
		skip = t == 0
	case time.Time:
		skip = t.IsZero()
	case nil:
		skip = true
	}
	if skip {
		return slog.Attr{}
	}
	return a
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}

func printVersion(w io.Writer) {
	version, goVersion, revision, dirty := getBuildInfo()
	_, _ = fmt.Fprintf(w, "bookshelf %s\n", version)
	_, _ = fmt.Fprintf(w, "  Go version: %s\n", goVersion)
	_, _ = fmt.Fprintf(w, "  Revision:   %s\n", revision)
	if dirty {
		_, _ = fmt.Fprintf(w, "  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

// loadDotEnv reads KEY=value lines from dataDir/.env. A missing file is not an
// error. Values may be double quoted Go strings; single quotes are rejected.
func loadDotEnv(dataDir string) (map[string]string, error) {
	env := make(map[string]string)
	path := filepath.Join(dataDir, ".env")
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir flag, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, err
	}

	for line := range strings.SplitSeq(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		if strings.HasPrefix(val, "'") || strings.HasSuffix(val, "'") {
			return nil, fmt.Errorf("single quotes are not supported in .env: %s", line)
		}
		if strings.HasPrefix(val, "\"") {
			unquoted, err := strconv.Unquote(val)
			if err != nil {
				return nil, fmt.Errorf("failed to unquote %s: %w", key, err)
			}
			val = unquoted
		}
		env[key] = val
	}
	return env, nil
}

// watchExecutable watches the current executable for modifications and calls
// stop to trigger graceful shutdown when detected. This enables seamless
// restarts during development.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
