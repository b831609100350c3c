package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Level is the severity of a notification.
type Level int

const (
	Info Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "info"
}

// Notification is a single message for the user.
type Notification struct {
	Title   string
	Message string
	Level   Level
	// Duration is how long an info popup stays visible. Zero means the
	// presenter's default.
	Duration time.Duration
	// Blocking makes Notify wait until the presenter returns, which for popups
	// means the user acknowledged it or it timed out.
	Blocking bool
}

// Presenter shows a notification. Implementations may block.
type Presenter interface {
	Present(ctx context.Context, n Notification) error
}

// Notifier is what callers depend on.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// ErrClosed is logged when Notify is called after Close.
var ErrClosed = errors.New("notifier closed")

const queueSize = 16

type request struct {
	ctx  context.Context
	n    Notification
	done chan struct{}
}

// Dispatcher serializes notifications onto a single worker so popups never
// overlap and non-blocking callers return immediately.
type Dispatcher struct {
	presenter Presenter
	title     string

	queue chan request
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher starts the worker. title fills Notification.Title when empty.
func NewDispatcher(p Presenter, title string) *Dispatcher {
	d := &Dispatcher{
		presenter: p,
		title:     title,
		queue:     make(chan request, queueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Notify queues n. Presenter failures are logged, never returned.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	if n.Title == "" {
		n.Title = d.title
	}
	req := request{ctx: context.WithoutCancel(ctx), n: n}
	if n.Blocking {
		req.done = make(chan struct{})
	}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		log.WithField("message", n.Message).Warn(ErrClosed)
		return
	}
	if n.Blocking {
		d.queue <- req
	} else {
		select {
		case d.queue <- req:
		default:
			log.WithField("message", n.Message).Warn("notification queue full, dropping")
		}
	}
	d.mu.RUnlock()

	if req.done != nil {
		select {
		case <-req.done:
		case <-ctx.Done():
		}
	}
}

// Close stops accepting notifications and waits for queued ones to be shown.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for req := range d.queue {
		if err := d.presenter.Present(req.ctx, req.n); err != nil {
			log.WithError(err).WithField("message", req.n.Message).Warn("notification failed")
		}
		if req.done != nil {
			close(req.done)
		}
	}
}
