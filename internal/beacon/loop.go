// Package beacon drives the periodic read-compose-send cycle over a
// radio transport.
package beacon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"meshbeacon/internal/message"
	"meshbeacon/internal/sensor"
	"meshbeacon/internal/transport"
)

// State is the lifecycle phase of a Loop.
type State int32

const (
	Idle State = iota
	Connecting
	Running
	Stopping
	Stopped
	Failed // connect failed, no cycle ever ran
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrAlreadyStarted is returned by Run on a Loop that has left Idle.
// A Loop is single-use: construct a new one to restart.
var ErrAlreadyStarted = errors.New("beacon loop already started")

// Loop owns the transport session and the sensor sources for its entire
// lifetime and runs the fixed-interval beacon cycle. One cycle executes
// at a time; the interval wait is the only suspension point and a stop
// request preempts it within the timer latency, not the full interval.
type Loop struct {
	tr       transport.Transport
	battery  sensor.Source // nil when disabled
	climate  sensor.Source // nil when disabled
	interval time.Duration
	log      zerolog.Logger

	state    atomic.Int32
	stop     chan struct{}
	stopOnce sync.Once
	downOnce sync.Once
}

// New builds a Loop. A nil source means that sensor is disabled for the
// run; its fields never appear in the composed message.
func New(tr transport.Transport, battery, climate sensor.Source, interval time.Duration, log zerolog.Logger) *Loop {
	return &Loop{
		tr:       tr,
		battery:  battery,
		climate:  climate,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// State reports the loop's current lifecycle phase.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Stop requests shutdown. Safe to call from any goroutine, more than
// once, and before or after Run; the loop exits its wait near
// immediately and tears down.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Run connects the transport and drives cycles until Stop is called or
// ctx is cancelled. It returns a non-nil error only when the initial
// connect fails; everything after that degrades and keeps cycling. The
// transport and sensors are torn down exactly once on every exit path.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(Idle), int32(Connecting)) {
		return ErrAlreadyStarted
	}

	if err := l.tr.Connect(); err != nil {
		l.state.Store(int32(Failed))
		// release whatever the failed connect may have half-opened
		l.teardown()
		return fmt.Errorf("connecting transport: %w", err)
	}

	l.state.Store(int32(Running))
	l.log.Info().Dur("interval", l.interval).Msg("Beacon loop running")

	for {
		if l.stopRequested(ctx) {
			break
		}
		l.cycle(ctx)
		if !l.wait(ctx) {
			break
		}
	}

	l.state.Store(int32(Stopping))
	l.teardown()
	l.state.Store(int32(Stopped))
	l.log.Info().Msg("Beacon loop stopped")
	return nil
}

// cycle performs one read-compose-send pass. Sensor glitches and send
// failures are logged and forgotten: the next cycle starts from scratch.
func (l *Loop) cycle(ctx context.Context) {
	var in message.Input

	if l.battery != nil {
		in.BatteryEnabled = true
		in.Battery = l.battery.Read()
		if !in.Battery.Present {
			l.log.Warn().Msg("Battery reading unavailable this cycle")
		}
	}

	if l.stopRequested(ctx) {
		return
	}

	if l.climate != nil {
		in.ClimateEnabled = true
		in.Climate = l.climate.Read()
		if !in.Climate.Present {
			l.log.Warn().Msg("Climate reading unavailable this cycle")
		}
	}

	if l.stopRequested(ctx) {
		return
	}

	text := message.Compose(in)
	if err := l.tr.Send(text); err != nil {
		l.log.Error().Err(err).Str("message", text).Msg("Failed to send beacon")
		return
	}
	l.log.Info().Str("message", text).Msg("Beacon sent")
}

// wait sleeps out the send interval. Returns false when a stop request
// or context cancellation arrives first.
func (l *Loop) wait(ctx context.Context) bool {
	t := time.NewTimer(l.interval)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-l.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func (l *Loop) stopRequested(ctx context.Context) bool {
	select {
	case <-l.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// teardown releases the transport and sensors exactly once. Teardown
// errors are logged and swallowed: nothing here may prevent shutdown
// from completing.
func (l *Loop) teardown() {
	l.downOnce.Do(func() {
		if err := l.tr.Disconnect(); err != nil {
			l.log.Warn().Err(err).Msg("Transport disconnect failed")
		}
		for _, src := range []sensor.Source{l.battery, l.climate} {
			if src == nil {
				continue
			}
			if err := src.Close(); err != nil {
				l.log.Warn().Err(err).Str("sensor", string(src.Kind())).Msg("Sensor teardown failed")
			}
		}
	})
}
