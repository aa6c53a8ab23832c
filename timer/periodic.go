package timer

import (
	"time"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/handler"
)

// Periodic is a recurring wake source. Next rearms the deadline for the
// current period and completes cb when it fires; if the timer is not
// running or is paused, the waiter's callback is never invoked — this is
// the documented contract of spec.md §4.10, not an error.
type Periodic struct {
	ser     executor.Serializer
	ownSer  bool
	tf      executor.TimerFactory
	period  time.Duration
	running bool
	paused  bool
	current executor.Timer
}

// New creates a running Periodic timer with its own freshly created
// serializer.
func New(factory executor.SerializerFactory, tf executor.TimerFactory, period time.Duration) *Periodic {
	return newPeriodic(factory.NewSerializer(), true, tf, period)
}

// NewShared creates a running Periodic timer bound to an existing, shared
// serializer.
func NewShared(ser executor.Serializer, tf executor.TimerFactory, period time.Duration) *Periodic {
	return newPeriodic(ser, false, tf, period)
}

func newPeriodic(ser executor.Serializer, owns bool, tf executor.TimerFactory, period time.Duration) *Periodic {
	if period <= 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "timer: period must be positive"))
	}
	return &Periodic{
		ser:     ser,
		ownSer:  owns,
		tf:      tf,
		period:  period,
		running: true,
	}
}

// Close releases the timer's own serializer, if it owns one.
func (p *Periodic) Close() {
	if p.ownSer {
		p.ser.Close()
	}
}

// Next (aka Wait) arms the deadline for the current period and completes
// cb when it fires. If the timer is stopped or paused, cb is never
// invoked.
func (p *Periodic) Next(cb handler.Func) {
	p.ser.Submit(func() {
		if !p.running || p.paused {
			return
		}
		period := p.period
		p.current = p.tf.AfterFunc(period, func() {
			p.ser.Submit(func() {
				p.current = nil
				// the timer may have already fired (this task already
				// queued behind Stop/Pause's own task) by the time Stop
				// or Pause tries to cancel it; re-check here so a racing
				// Stop/Pause is still honored rather than firing cb
				// anyway.
				if !p.running || p.paused {
					return
				}
				cb()
			})
		})
	})
}

// Stop halts the timer: running becomes false and any in-flight arm is
// cancelled.
func (p *Periodic) Stop() {
	p.ser.Submit(func() {
		p.running = false
		if p.current != nil {
			p.current.Stop()
			p.current = nil
		}
	})
}

// Pause cancels any in-flight arm and prevents future Next calls from
// arming until Resume is called.
func (p *Periodic) Pause() {
	p.ser.Submit(func() {
		p.paused = true
		if p.current != nil {
			p.current.Stop()
			p.current = nil
		}
	})
}

// Resume clears the paused flag. It does not itself rearm; the next call
// to Next will.
func (p *Periodic) Resume() {
	p.ser.Submit(func() {
		p.paused = false
	})
}

// SetPeriod updates the period used by the next arm; it does not affect
// an already-armed deadline.
func (p *Periodic) SetPeriod(period time.Duration) {
	if period <= 0 {
		return
	}
	p.ser.Submit(func() {
		p.period = period
	})
}

// Stats is a best-effort, point-in-time snapshot.
type Stats struct {
	Running bool
	Paused  bool
	Period  time.Duration
}

// StatsAsync reports a snapshot of the timer's state.
func (p *Periodic) StatsAsync(cb func(Stats)) {
	p.ser.Submit(func() {
		cb(Stats{Running: p.running, Paused: p.paused, Period: p.period})
	})
}
