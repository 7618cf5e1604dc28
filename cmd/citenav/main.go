// CLAUDE:SUMMARY Entry point for the citenav service — document provider selection, chi router, optional Basic Auth, journal, MCP stdio.
package main

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/citenav/dbopen"
	"github.com/hazyhaar/citenav/docsource"
	"github.com/hazyhaar/citenav/fragment"
	"github.com/hazyhaar/citenav/journal"
	"github.com/hazyhaar/citenav/rodview"
	"github.com/hazyhaar/citenav/viewer"
)

func main() {
	port := env("PORT", "8086")
	docRef := os.Getenv("DOC")
	if docRef == "" {
		slog.Error("DOC is required (path to .pdf/.html, or a viewer URL)")
		os.Exit(1)
	}
	configPath := env("CONFIG", "")
	journalPath := env("JOURNAL_DB", "")
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Viewer config.
	cfg := viewer.Config{}
	if configPath != "" {
		loaded, err := viewer.LoadConfigFile(configPath)
		if err != nil {
			slog.Error("load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	// Document provider.
	provider, cleanup, err := openProvider(ctx, docRef, logger)
	if err != nil {
		slog.Error("open document", "doc", docRef, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Optional lookup journal.
	var opts []viewer.Option
	if journalPath != "" {
		db, err := dbopen.Open(journalPath, dbopen.WithMkdirAll())
		if err != nil {
			slog.Error("journal db", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		jrnl := journal.New(db)
		if err := jrnl.Init(); err != nil {
			slog.Error("journal init", "error", err)
			os.Exit(1)
		}
		defer jrnl.Close()
		opts = append(opts, viewer.WithJournal(jrnl))
	}

	v := viewer.New(provider, cfg, logger, opts...)

	// Eagerly extract rendered pages so the first jump does not pay for it.
	for page := 1; page <= provider.PageCount(); page++ {
		if provider.PageRendered(page) {
			v.OnPageRendered(page)
		}
	}

	// Router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if user := os.Getenv("AUTH_USER"); user != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(requireEnv("AUTH_PASSWORD")), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("hash auth password", "error", err)
			os.Exit(1)
		}
		r.Use(basicAuth(user, hash))
	}

	r.Route("/api/v1", func(r chi.Router) {
		v.RegisterHTTP(r)

		// Markdown page view, available for parsed (non-browser) documents.
		if src, ok := provider.(*docsource.Source); ok {
			r.Get("/markdown/{page}", func(w http.ResponseWriter, req *http.Request) {
				page, err := strconv.Atoi(chi.URLParam(req, "page"))
				if err != nil || page < 1 || page > src.PageCount() {
					http.Error(w, "invalid page", http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
				w.Write([]byte(src.Markdown(page)))
			})
		}
	})

	// Optional MCP stdio transport for chat hosts.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "citenav",
			Version: "1.0.0",
		}, nil)
		v.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port, "doc", docRef)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// openProvider picks the rendering collaborator for the document reference:
// local .pdf and .html files are parsed statically, URLs open in headless
// Chrome.
func openProvider(ctx context.Context, docRef string, logger *slog.Logger) (fragment.Provider, func(), error) {
	if u, err := url.Parse(docRef); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		browser := rodview.NewBrowser(rodview.BrowserConfig{
			RemoteURL: env("ROD_REMOTE_URL", ""),
			Headful:   os.Getenv("ROD_HEADFUL") == "1",
			Logger:    logger,
		})
		if err := browser.Start(ctx); err != nil {
			return nil, func() {}, err
		}
		prov, err := rodview.Open(ctx, browser, docRef, rodview.ProviderConfig{
			PageSelector:     env("ROD_PAGE_SELECTOR", ""),
			FragmentSelector: env("ROD_FRAGMENT_SELECTOR", ""),
			Logger:           logger,
		})
		if err != nil {
			browser.Close()
			return nil, func() {}, err
		}
		return prov, func() {
			prov.Close()
			browser.Close()
		}, nil
	}

	switch strings.ToLower(filepath.Ext(docRef)) {
	case ".pdf":
		src, err := docsource.LoadPDF(docRef)
		return src, func() {}, err
	default:
		src, err := docsource.LoadHTML(docRef, docsource.HTMLConfig{})
		return src, func() {}, err
	}
}

// basicAuth guards every route with HTTP Basic credentials checked against a
// bcrypt hash.
func basicAuth(user string, passwordHash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				bcrypt.CompareHashAndPassword(passwordHash, []byte(p)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="citenav"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("missing required environment variable", "key", key)
		os.Exit(1)
	}
	return v
}
