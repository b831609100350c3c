package supervisor

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/five82/karaokepi/internal/launcher"
	"github.com/five82/karaokepi/internal/notify"
	"github.com/five82/karaokepi/internal/probe"
)

// State is a supervisor phase.
type State int

const (
	QuietWait State = iota
	NotifyWait
	Launched
	Failed
)

func (s State) String() string {
	switch s {
	case QuietWait:
		return "quiet-wait"
	case NotifyWait:
		return "notify-wait"
	case Launched:
		return "launched"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	DefaultCheckInterval = 5 * time.Second
	DefaultInitialWait   = 10 * time.Second
	DefaultExtendedWait  = 30 * time.Second

	successPopup = 2 * time.Second
	searchPopup  = 2 * time.Second
)

// Timing holds the polling cadence and tier lengths.
type Timing struct {
	CheckInterval time.Duration
	InitialWait   time.Duration
	ExtendedWait  time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.CheckInterval <= 0 {
		t.CheckInterval = DefaultCheckInterval
	}
	if t.InitialWait <= 0 {
		t.InitialWait = DefaultInitialWait
	}
	if t.ExtendedWait <= 0 {
		t.ExtendedWait = DefaultExtendedWait
	}
	return t
}

// Supervisor wires the probe, notifier and launcher together.
type Supervisor struct {
	Probe    probe.Checker
	Notifier notify.Notifier
	Launcher launcher.Launcher
	Clock    Clock
	Timing   Timing
	// AppName is used in user-facing messages.
	AppName string
}

// Result is the terminal outcome of Run.
type Result struct {
	State  State
	Probes int
	Handle launcher.Handle
}

// Run drives the state machine to Launched or Failed. It returns an error
// only when the launch itself fails or ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) (Result, error) {
	clock := s.Clock
	if clock == nil {
		clock = RealClock{}
	}
	timing := s.Timing.withDefaults()
	name := s.AppName
	if name == "" {
		name = "PiKaraoke"
	}

	res := Result{State: QuietWait}
	log.WithField("state", res.State).Debug("waiting for network")

	ok, err := s.poll(ctx, clock, timing.CheckInterval, timing.InitialWait, &res)
	if err != nil {
		return res, err
	}
	if !ok {
		res.State = NotifyWait
		log.WithField("state", res.State).Info("network not found yet, notifying user")
		s.Notifier.Notify(ctx, notify.Notification{
			Message:  fmt.Sprintf("Connecting to internet...\nSearching for up to %d seconds...", int(timing.ExtendedWait.Seconds())),
			Duration: searchPopup,
		})
		ok, err = s.poll(ctx, clock, timing.CheckInterval, timing.ExtendedWait, &res)
		if err != nil {
			return res, err
		}
	}

	if !ok {
		res.State = Failed
		log.WithFields(log.Fields{"state": res.State, "probes": res.Probes}).Error("no network, not launching")
		s.Notifier.Notify(ctx, notify.Notification{
			Message:  "No internet found.\nPlease connect to the internet and try again.",
			Level:    notify.Error,
			Blocking: true,
		})
		return res, nil
	}

	s.Notifier.Notify(ctx, notify.Notification{
		Message:  fmt.Sprintf("Internet connected.\nLaunching %s...", name),
		Duration: successPopup,
	})
	handle, err := s.Launcher.Launch(ctx)
	if err != nil {
		res.State = Failed
		s.Notifier.Notify(ctx, notify.Notification{
			Message:  fmt.Sprintf("Could not start %s.\n%v", name, err),
			Level:    notify.Error,
			Blocking: true,
		})
		return res, fmt.Errorf("launch: %w", err)
	}
	res.State = Launched
	res.Handle = handle
	log.WithFields(log.Fields{"state": res.State, "probes": res.Probes, "pid": handle.PID}).Info("launch complete")
	return res, nil
}

// poll probes every interval until the probe succeeds or wait has elapsed
// since the tier started.
func (s *Supervisor) poll(ctx context.Context, clock Clock, interval, wait time.Duration, res *Result) (bool, error) {
	start := clock.Now()
	for clock.Now().Sub(start) < wait {
		res.Probes++
		if s.Probe.Check(ctx) {
			return true, nil
		}
		if err := clock.Sleep(ctx, interval); err != nil {
			return false, err
		}
	}
	return false, nil
}
