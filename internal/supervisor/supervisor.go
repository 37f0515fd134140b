// Package supervisor owns the process-wide fault boundary.
//
// A Supervisor turns any fault (typed error, plain error, panic value, map)
// into a client response via apperr.Normalize, logs it, counts it, and, for
// catastrophic faults, drains the registered HTTP server and exits the
// process. It also listens for SIGINT/SIGTERM and drains on receipt.
//
// Lifecycle:
//
//	Running ──(catastrophic fault | signal)──▶ Draining ──▶ Terminated (exit)
//
// There is no transition back to Running. The drain runs at most once, even
// under concurrent catastrophic faults.
package supervisor

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
)

// State is the server lifecycle state.
type State int32

const (
	Running State = iota
	Draining
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Exit codes.
const (
	ExitOK    = 0
	ExitFatal = 1
)

// genericMessage is returned when the handling pipeline itself fails.
const genericMessage = "An Unexpected Error Occurred"

// maxKindLabel bounds the metric label taken from arbitrary fault kinds.
const maxKindLabel = 64

var errorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wrapped_errors_total",
		Help: "Total number of faults handled by the supervisor, by kind.",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(errorsTotal)
}

// Options configures a Supervisor. Zero values select defaults.
type Options struct {
	// DrainTimeout bounds how long in-flight requests may run during drain.
	// Defaults to 10s.
	DrainTimeout time.Duration
	// Logger receives fault logs. Defaults to the global zerolog logger.
	Logger *zerolog.Logger
	// Metric is called once per handled fault with its kind. Defaults to a
	// Prometheus counter. Failures (panics) are ignored.
	Metric func(kind string)
	// Exit terminates the process. Defaults to os.Exit.
	Exit func(code int)
}

// Supervisor is the process-wide error handler. Safe for concurrent use.
type Supervisor struct {
	drainTimeout time.Duration
	logger       *zerolog.Logger
	metric       func(kind string)
	exit         func(code int)

	mu      sync.Mutex
	server  *http.Server
	closers []func(context.Context) error

	state      atomic.Int32
	once       sync.Once
	listenOnce sync.Once
	done       chan struct{}
}

// New constructs a Supervisor in the Running state.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		drainTimeout: opts.DrainTimeout,
		logger:       opts.Logger,
		metric:       opts.Metric,
		exit:         opts.Exit,
		done:         make(chan struct{}),
	}
	if s.drainTimeout <= 0 {
		s.drainTimeout = 10 * time.Second
	}
	if s.metric == nil {
		s.metric = func(kind string) { errorsTotal.WithLabelValues(kind).Inc() }
	}
	if s.exit == nil {
		s.exit = os.Exit
	}
	return s
}

func (s *Supervisor) log() *zerolog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return &log.Logger
}

// loggerFor prefers the request-scoped logger carried by ctx unless an
// explicit logger was configured.
func (s *Supervisor) loggerFor(ctx context.Context) *zerolog.Logger {
	if s.logger == nil && ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return s.log()
}

// Register sets the server drained on shutdown, replacing any previous one.
func (s *Supervisor) Register(srv *http.Server) {
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
}

// OnShutdown adds a cleanup hook run during drain, after the server has
// stopped. Hooks run in reverse registration order.
func (s *Supervisor) OnShutdown(fn func(context.Context) error) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.closers = append(s.closers, fn)
	s.mu.Unlock()
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State { return State(s.state.Load()) }

// Done is closed once draining has finished, right before exit.
func (s *Supervisor) Done() <-chan struct{} { return s.done }

// HandleError normalizes fault, logs it, counts it and returns the response
// object for the triggering request. Catastrophic faults additionally start
// drain-and-exit in the background. HandleError never panics.
func (s *Supervisor) HandleError(ctx context.Context, fault any) (resp apperr.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logSecondary(r, fault)
			resp = apperr.Response{
				Kind:      apperr.KindInternalServer,
				Status:    http.StatusInternalServerError,
				Message:   genericMessage,
				SubErrors: []apperr.SubError{},
			}
		}
	}()

	e := apperr.Normalize(fault)

	ev := s.loggerFor(ctx).Error()
	if ctx != nil {
		ev = ev.Ctx(ctx)
	}
	ev = ev.
		Str("kind", e.Kind).
		Int("status", e.Status).
		Bool("catastrophic", e.Catastrophic)
	if len(e.SubErrors) > 0 {
		ev = ev.Interface("sub_errors", e.SubErrors)
	}
	if len(e.Fields) > 0 {
		ev = ev.Interface("fields", e.Fields)
	}
	if e.Cause != nil {
		ev = ev.AnErr("cause", e.Cause)
	}
	if e.Catastrophic || e.Status >= http.StatusInternalServerError {
		ev = ev.Str("stack", e.StackTrace())
	}
	ev.Msg(e.Message)

	s.fireMetric(e.Kind)

	if e.Catastrophic {
		s.Terminate(ExitFatal, "catastrophic fault: "+e.Message)
	}
	return e.ToResponse()
}

func (s *Supervisor) fireMetric(kind string) {
	defer func() {
		if r := recover(); r != nil {
			s.log().Warn().Interface("panic", r).Str("kind", kind).Msg("error metric failed")
		}
	}()
	if len(kind) > maxKindLabel {
		kind = kind[:maxKindLabel]
	}
	s.metric(kind)
}

// logSecondary reports a failure of the handling pipeline itself. It must not
// panic even when the logger is what failed.
func (s *Supervisor) logSecondary(handlingErr, original any) {
	defer func() { _ = recover() }()
	s.log().Error().
		Interface("handling_error", handlingErr).
		Interface("original_error", original).
		Msg("error handler failed")
}

// Terminate starts drain-and-exit with the given exit code. Only the first
// call has an effect; the drain runs on its own goroutine so callers, such as
// the request that triggered a catastrophic fault, can still respond.
func (s *Supervisor) Terminate(code int, reason string) {
	s.once.Do(func() {
		s.state.Store(int32(Draining))
		s.log().Warn().Str("reason", reason).Dur("drain_timeout", s.drainTimeout).Msg("draining server")
		go s.drain(code)
	})
}

func (s *Supervisor) drain(code int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	s.mu.Lock()
	srv := s.server
	closers := append([]func(context.Context) error(nil), s.closers...)
	s.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.log().Warn().Err(err).Msg("graceful shutdown incomplete, closing connections")
			_ = srv.Close()
		}
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log().Warn().Err(err).Msg("shutdown hook failed")
		}
	}

	s.state.Store(int32(Terminated))
	close(s.done)
	s.log().Info().Int("exit_code", code).Msg("server terminated")
	s.exit(code)
}

// Listen attaches the supervisor to SIGINT and SIGTERM. A received signal
// drains the server and exits with ExitOK. Calling Listen more than once has
// no further effect. Cancelling ctx detaches the listener.
func (s *Supervisor) Listen(ctx context.Context) {
	s.listenOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			defer signal.Stop(ch)
			select {
			case sig := <-ch:
				s.log().Error().Str("signal", sig.String()).Msg("received termination signal, attempting graceful shutdown")
				s.Terminate(ExitOK, "signal "+sig.String())
			case <-ctx.Done():
			}
		}()
	})
}

// Go runs fn on a new goroutine. A panic in fn is routed to HandleError as a
// catastrophic fault instead of crashing the process unannounced.
func (s *Supervisor) Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.HandleError(context.Background(), &apperr.Panic{Value: r, Trace: string(debug.Stack())})
			}
		}()
		fn()
	}()
}
