// Package demo serves a trivial HTTP page per hostname so a route can be
// checked from a browser.
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/hostbridge/common/go/xcmd"
	"github.com/yanet-platform/hostbridge/internal/reconcile"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	Log         *zap.SugaredLogger
	Out         io.Writer
	WaitSignals bool
}

func newOptions() *options {
	return &options{
		Log:         zap.NewNop().Sugar(),
		Out:         io.Discard,
		WaitSignals: true,
	}
}

// Option configures the Listener.
type Option func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithOutput sets where the user-facing explanation is printed.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.Out = w
	}
}

// WithoutSignals makes Serve stop only when its context is canceled.
func WithoutSignals() Option {
	return func(o *options) {
		o.WaitSignals = false
	}
}

// Listener answers on the connect side of a bridge for every hostname of
// the route.
type Listener struct {
	log         *zap.SugaredLogger
	out         io.Writer
	waitSignals bool
	bound       chan net.Addr
}

// NewListener constructs a Listener.
func NewListener(opts ...Option) *Listener {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Listener{
		log:         o.Log,
		out:         o.Out,
		waitSignals: o.WaitSignals,
		bound:       make(chan net.Addr, 1),
	}
}

// Bound receives the local address once the listener accepts connections.
// While an address is unread, addresses of later Serve calls are dropped.
func (m *Listener) Bound() <-chan net.Addr {
	return m.bound
}

// Handler routes requests by Host header to the route's hostnames.
func (m *Listener) Handler(route reconcile.Route) http.Handler {
	router := mux.NewRouter()
	for _, entry := range route.Entries {
		router.Host(entry.Host).HandlerFunc(m.viewHost)
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.log.Infow("request for unknown host", zap.String("host", r.Host))
		http.NotFound(w, r)
	})
	return router
}

func (m *Listener) viewHost(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.Host)
	if err != nil {
		host = r.Host
	}

	m.log.Infow("loaded host", zap.String("host", host), zap.String("path", r.URL.Path))
	fmt.Fprintf(w, "Viewing Host %q", host)
}

// Serve implements reconcile.Listener. It blocks until the context is
// canceled or, unless disabled, SIGINT or SIGTERM arrive.
func (m *Listener) Serve(ctx context.Context, route reconcile.Route) error {
	addr := route.Bridge.ConnectTo.String()

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	m.explain(route)
	select {
	case m.bound <- lis.Addr():
	default:
	}

	server := &http.Server{
		Handler:           m.Handler(route),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		if err := server.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	wg.Go(func() error {
		var err error
		if m.waitSignals {
			err = xcmd.WaitInterrupted(ctx)
		} else {
			<-ctx.Done()
			err = ctx.Err()
		}
		m.log.Infow("stopping test listener", zap.Error(err))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return err
	})

	err = wg.Wait()
	if errors.Is(err, xcmd.Interrupted{}) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (m *Listener) explain(route reconcile.Route) {
	fmt.Fprintln(m.out, "Starting webserver on host(s)")
	fmt.Fprintf(m.out, "Using IP %s. Ensure it's not being used.\n", route.Bridge.ConnectTo)
	for _, entry := range route.Entries {
		fmt.Fprintf(m.out, "Listening on http://%s\n", entry.Host)
	}
	fmt.Fprintln(m.out, "You should now be able to use the host URL to connect.")
}
