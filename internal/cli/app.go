// Package cli implements the mycraft command-line client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/mycraft/internal/client/api"
	"github.com/atinyakov/mycraft/internal/client/chat"
	"github.com/atinyakov/mycraft/internal/client/router"
	"github.com/atinyakov/mycraft/internal/client/session"
	"github.com/atinyakov/mycraft/internal/client/storage"
	"github.com/atinyakov/mycraft/internal/client/toast"
	"github.com/atinyakov/mycraft/internal/config"
	"github.com/atinyakov/mycraft/internal/db"
	"github.com/atinyakov/mycraft/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// App wires the client services for one process. Commands share it, so an
// interactive shell keeps its session between lines.
type App struct {
	opts *config.Options

	in      *bufio.Scanner
	out     io.Writer
	errOut  io.Writer
	getenv  func(string) string
	dotenvs []string

	log      *zap.Logger
	gw       *api.Client
	session  *session.Manager
	router   *router.Router
	toasts   *toast.Notifier
	chat     *chat.Synchronizer
	registry *prometheus.Registry

	ready    bool
	closers  []func() error
	rendered chan struct{}
	mu       sync.Mutex
}

// NewApp creates an App reading from in and writing to out and errOut.
func NewApp(in io.Reader, out, errOut io.Writer) *App {
	return &App{
		opts:    config.Default(),
		in:      bufio.NewScanner(in),
		out:     out,
		errOut:  errOut,
		getenv:  os.Getenv,
		dotenvs: []string{".env"},
	}
}

// setup resolves the configuration and builds the services. It runs once
// per App.
func (a *App) setup(ctx context.Context, fs *pflag.FlagSet) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return nil
	}

	if err := config.LoadDotEnv(a.dotenvs...); err != nil {
		return err
	}
	if err := a.opts.Resolve(fs, a.getenv); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	l := logger.New()
	if err := l.Init(a.opts.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = l.Log
	a.closers = append(a.closers, func() error {
		_ = a.log.Sync()
		return nil
	})

	store, err := a.openStore()
	if err != nil {
		return err
	}

	var metrics *api.Metrics
	if a.opts.MetricsAddr != "" {
		a.registry = prometheus.NewRegistry()
		metrics = api.NewMetrics(a.registry)
		a.serveMetrics()
	}

	a.gw, err = api.New(a.opts.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: a.opts.RequestTimeout}),
		api.WithLogger(a.log),
		api.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	a.session = session.New(a.gw, store, a.log)
	a.router, err = router.New(router.DefaultRoutes(), a.session, a.log)
	if err != nil {
		return err
	}
	// Registered after the session so a forced logout happens before the
	// redirect.
	a.gw.OnUnauthorized(a.router.RedirectToLogin)

	a.toasts = toast.New(toast.WithDefaultDuration(a.opts.ToastDuration), toast.WithLogger(a.log))
	a.renderToasts()

	a.chat = chat.New(a.gw, a.toasts,
		chat.WithPoller(chat.NewTickerPoller(a.opts.PollInterval, a.log)),
		chat.WithLogger(a.log),
	)

	a.session.Initialize(ctx)
	a.ready = true
	return nil
}

func (a *App) openStore() (storage.TokenStore, error) {
	switch a.opts.TokenStore {
	case config.StoreMemory:
		return storage.NewMemoryStore(), nil
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(a.opts.TokenPath), 0o700); err != nil {
			return nil, fmt.Errorf("create token dir: %w", err)
		}
		conn, err := db.InitSQLite(a.opts.TokenPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		return storage.NewSQLStore(conn), nil
	default:
		return storage.NewFileStore(a.opts.TokenPath), nil
	}
}

func (a *App) serveMetrics() {
	srv := &http.Server{
		Addr:              a.opts.MetricsAddr,
		Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server failed", zap.Error(err))
		}
	}()
	a.log.Info("serving metrics", zap.String("addr", a.opts.MetricsAddr))
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

// renderToasts prints notifications to errOut as they are added.
func (a *App) renderToasts() {
	events, _ := a.toasts.Subscribe()
	a.rendered = make(chan struct{})
	go func() {
		defer close(a.rendered)
		for ev := range events {
			if ev.Kind == toast.Added {
				fmt.Fprintln(a.errOut, renderToast(ev.Toast))
			}
		}
	}()
}

// Close stops background work and releases resources.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ready {
		for _, c := range a.closers {
			_ = c()
		}
		a.closers = nil
		return
	}
	a.chat.Stop()
	a.toasts.Close()
	<-a.rendered
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			fmt.Fprintf(a.errOut, "Warning: %v\n", err)
		}
	}
	a.closers = nil
	a.ready = false
}

// enter navigates to the named route and fails with a hint when the guard
// redirects.
func (a *App) enter(name string, params map[string]string) error {
	loc, err := a.router.NavigateTo(name, params)
	if err != nil {
		return err
	}
	switch loc.Decision {
	case router.RedirectLogin:
		return errors.New("you need to log in first: run `mycraft login`")
	case router.RedirectUpgrade:
		return errors.New("this requires a craftsman account: run `mycraft become-craftsman`")
	}
	return nil
}

func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return a.in.Text(), nil
}

// promptIfEmpty asks for a value that was not given as a flag.
func (a *App) promptIfEmpty(v *string, label string) error {
	if *v != "" {
		return nil
	}
	s, err := a.prompt(label)
	if err != nil {
		return fmt.Errorf("read %s: %w", strings.ToLower(strings.TrimSuffix(label, ": ")), err)
	}
	*v = s
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
