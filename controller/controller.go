package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/lightlink-network/ll-bridge-validator/metrics"
	"github.com/lightlink-network/ll-bridge-validator/types"
)

// Status is the operational state of the controller.
type Status int32

const (
	NotReady Status = iota
	Active
	Paused
	Stopped
)

func (s Status) String() string {
	switch s {
	case NotReady:
		return "NotReady"
	case Active:
		return "Active"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

var (
	ErrStopped           = errors.New("controller stopped")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Controller is the single consumer of every event source. It deduplicates
// by message id and forwards admitted events downstream in arrival order,
// holding them back while it is not active.
type Controller struct {
	storage  *storage
	status   atomic.Int32
	queued   atomic.Int64
	seen     atomic.Int64
	in       <-chan types.Event
	out      chan<- types.Event
	commands chan command
	done     chan struct{}
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type ControllerOpts struct {
	Inbound  <-chan types.Event
	Outbound chan<- types.Event
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

type command struct {
	status Status
	result chan error
}

// Stats is a point in time view of the controller, safe to read from any goroutine.
type Stats struct {
	Status Status `json:"-"`
	State  string `json:"status"`
	Queued int64  `json:"queued"`
	Seen   int64  `json:"seen"`
}

func NewController(opts ControllerOpts) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Controller{
		storage:  newStorage(),
		in:       opts.Inbound,
		out:      opts.Outbound,
		commands: make(chan command),
		done:     make(chan struct{}),
		logger:   opts.Logger.With("component", "controller"),
		metrics:  opts.Metrics,
	}
	c.status.Store(int32(NotReady))

	return c
}

func (c *Controller) Status() Status {
	return Status(c.status.Load())
}

func (c *Controller) Stats() Stats {
	s := c.Status()
	return Stats{
		Status: s,
		State:  s.String(),
		Queued: c.queued.Load(),
		Seen:   c.seen.Load(),
	}
}

// Run processes inbound events and status commands until the context is
// cancelled, the inbound channel is closed or the controller is stopped.
// The outbound channel is closed when Run returns.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer close(c.out)

	c.logger.Info("controller starting", "status", c.Status())
	if err := c.transition(ctx, Active); err != nil {
		return fmt.Errorf("failed to activate controller: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("shutting down controller")
			return nil
		case cmd := <-c.commands:
			err := c.transition(ctx, cmd.status)
			cmd.result <- err
			if err == nil && cmd.status == Stopped {
				return nil
			}
		case ev, ok := <-c.in:
			if !ok {
				c.logger.Info("inbound channel closed, shutting down controller")
				return nil
			}
			if err := c.Admit(ctx, ev); err != nil {
				if errors.Is(err, ErrDuplicate) {
					c.logger.Debug("dropped duplicate event", "event", types.Describe(ev))
					continue
				}
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Error("failed to admit event", "event", types.Describe(ev), "error", err)
			}
		}
	}
}

// Admit applies the dedup rule to ev and forwards it, or queues it while the
// controller is not active. It must only be called from the goroutine that
// owns the controller; Run is that goroutine once started.
func (c *Controller) Admit(ctx context.Context, ev types.Event) error {
	if c.Status() == Stopped {
		return ErrStopped
	}

	if err := c.storage.putEvent(ev); err != nil {
		c.metrics.Duplicate(ev.Kind())
		return err
	}
	c.seen.Store(int64(len(c.storage.events)))
	c.metrics.Admitted(ev.Kind())
	c.logger.Info("admitted event", "event", types.Describe(ev))

	if c.Status() != Active {
		c.storage.enqueue(ev)
		c.setQueued(len(c.storage.queue))
		c.logger.Debug("queued event", "event", types.Describe(ev), "status", c.Status())
		return nil
	}

	return c.forward(ctx, ev)
}

// Pause holds back admitted events until Resume.
func (c *Controller) Pause(ctx context.Context) error {
	return c.request(ctx, Paused)
}

// Resume forwards the held back events, oldest first, then continues normally.
func (c *Controller) Resume(ctx context.Context) error {
	return c.request(ctx, Active)
}

// Stop is terminal: queued events are dropped and Run returns.
func (c *Controller) Stop(ctx context.Context) error {
	return c.request(ctx, Stopped)
}

func (c *Controller) request(ctx context.Context, status Status) error {
	cmd := command{status: status, result: make(chan error, 1)}

	select {
	case c.commands <- cmd:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) transition(ctx context.Context, next Status) error {
	current := c.Status()
	if current == next {
		return nil
	}
	if !canTransition(current, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	c.status.Store(int32(next))
	c.logger.Info("controller status changed", "from", current, "to", next)

	switch next {
	case Active:
		queued := c.storage.drain()
		c.setQueued(0)
		for i, ev := range queued {
			if err := c.forward(ctx, ev); err != nil {
				return fmt.Errorf("failed to forward queued event %d of %d: %w", i+1, len(queued), err)
			}
		}
		if len(queued) > 0 {
			c.logger.Info("forwarded queued events", "count", len(queued))
		}
	case Stopped:
		if dropped := c.storage.drain(); len(dropped) > 0 {
			c.logger.Warn("dropped queued events on stop", "count", len(dropped))
		}
		c.setQueued(0)
	}

	return nil
}

func canTransition(from, to Status) bool {
	switch {
	case from == Stopped:
		return false
	case to == Stopped:
		return true
	case from == NotReady && to == Active:
		return true
	case from == Active && to == Paused:
		return true
	case from == Paused && to == Active:
		return true
	default:
		return false
	}
}

func (c *Controller) forward(ctx context.Context, ev types.Event) error {
	select {
	case c.out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) setQueued(n int) {
	c.queued.Store(int64(n))
	c.metrics.SetQueueDepth(n)
}
