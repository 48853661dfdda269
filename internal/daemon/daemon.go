package daemon

import (
	"context"
	"log/slog"

	"github.com/1broseidon/swaygravity/internal/supervise"
	"golang.org/x/sync/errgroup"
)

// QueueSize bounds the inbound event queue shared by all sources.
const QueueSize = 16

// Daemon runs the reconciliation loop next to its supervised event sources.
type Daemon struct {
	reconciler *Reconciler
	events     chan Event
	sources    []supervise.Service
	logger     *slog.Logger
}

// New creates a daemon around r. Sources are added with AddSource and must
// deliver into Events.
func New(r *Reconciler, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		reconciler: r,
		events:     make(chan Event, QueueSize),
		logger:     logger,
	}
}

// Events is the inbound queue sources send into.
func (d *Daemon) Events() chan<- Event { return d.events }

// AddSource registers an event source to run under supervision.
func (d *Daemon) AddSource(s supervise.Service) {
	d.sources = append(d.sources, s)
}

// Run blocks until the loop stops, then stops every source. It returns
// nil on an orderly shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	super := supervise.New("swaygravity", d.logger)
	for _, s := range d.sources {
		super.Add(s)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return super.Serve(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return d.reconciler.Run(gctx, d.events)
	})

	err := g.Wait()
	d.logger.Info("daemon stopped")
	return err
}
