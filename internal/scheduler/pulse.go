package scheduler

import (
	"context"
	"fmt"
	"io"

	"github.com/leandrodaf/midiprobe/internal/stats"
	"github.com/leandrodaf/midiprobe/internal/wire"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// PulseConfig describes the note pairs to emit.
type PulseConfig struct {
	Channel     int
	Note        byte
	Velocity    byte
	Plan        Plan
	ReportEvery int  // 0 disables periodic reports
	Verbose     bool // print one lateness line per note
}

// Pulse drives one output from a single goroutine. It is not safe for concurrent use.
type Pulse struct {
	cfg      PulseConfig
	out      contracts.Output
	clock    contracts.Clock
	waiter   *Waiter
	reporter stats.Reporter
	stdout   io.Writer
	logger   contracts.Logger

	lateness stats.Accumulator
	sent     uint64
	sounding bool
}

// NewPulse wires a pulse run. waiter may be nil to use a default timer-backed waiter.
func NewPulse(cfg PulseConfig, out contracts.Output, clock contracts.Clock, waiter *Waiter,
	reporter stats.Reporter, stdout io.Writer, logger contracts.Logger) *Pulse {
	if waiter == nil {
		waiter = NewWaiter(clock, nil)
	}
	return &Pulse{
		cfg:      cfg,
		out:      out,
		clock:    clock,
		waiter:   waiter,
		reporter: reporter,
		stdout:   stdout,
		logger:   logger,
	}
}

// Lead returns the dispatch lead in nanoseconds. Transports that cannot queue
// future events get none, since they would emit the note early.
func (p *Pulse) Lead() uint64 {
	if !p.out.Scheduled() {
		return 0
	}
	return p.cfg.Plan.LeadNs
}

// Sent returns the number of note-ons handed to the output.
func (p *Pulse) Sent() uint64 { return p.sent }

// Lateness returns the dispatch lateness statistics.
func (p *Pulse) Lateness() *stats.Accumulator { return &p.lateness }

// Run emits note pairs until the plan is exhausted or ctx is cancelled. On
// exit it silences the channel and prints the final summary. A send failure
// ends the run and is returned; it is never retried.
func (p *Pulse) Run(ctx context.Context) error {
	tb := p.clock.Timebase()
	lead := tb.FromNanos(p.Lead())
	start := p.clock.Now() + tb.FromNanos(uint64(StartDelay))

	err := p.loop(ctx, start, lead)
	p.silence()
	if rerr := p.reporter.Pulse(p.sent, &p.lateness); rerr != nil && err == nil {
		err = fmt.Errorf("write final report: %w", rerr)
	}
	return err
}

func (p *Pulse) loop(ctx context.Context, start, lead contracts.HostTime) error {
	tb := p.clock.Timebase()
	plan := p.cfg.Plan
	noteOn := wire.NoteOn(p.cfg.Channel, p.cfg.Note, p.cfg.Velocity)
	noteOff := wire.NoteOff(p.cfg.Channel, p.cfg.Note)

	for i := int64(0); !plan.Done(i); i++ {
		if ctx.Err() != nil {
			return nil
		}
		onAt, offAt := plan.Targets(start, tb, i)
		dispatch := onAt
		if dispatch > lead {
			dispatch -= lead
		}
		if err := p.waiter.SleepUntil(ctx, dispatch); err != nil {
			return nil
		}

		late := tb.DeltaNanos(p.clock.Now(), onAt)
		if err := p.out.Send(noteOn, onAt); err != nil {
			p.logger.Error("note-on send failed", p.logger.Field().Uint64("note", p.sent+1), p.logger.Field().Error("error", err))
			return fmt.Errorf("send note-on #%d: %w", p.sent+1, err)
		}
		p.sounding = true
		p.sent++
		p.lateness.Add(late)

		if p.cfg.Verbose {
			fmt.Fprintf(p.stdout, "on #%d late=%.4fms\n", p.sent, float64(late)/1e6)
		}
		if p.cfg.ReportEvery > 0 && p.sent%uint64(p.cfg.ReportEvery) == 0 {
			if err := p.reporter.Pulse(p.sent, &p.lateness); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}

		if !p.out.Scheduled() {
			if err := p.waiter.SleepUntil(ctx, offAt); err != nil {
				return nil
			}
		}
		if err := p.out.Send(noteOff, offAt); err != nil {
			p.logger.Error("note-off send failed", p.logger.Field().Uint64("note", p.sent), p.logger.Field().Error("error", err))
			return fmt.Errorf("send note-off #%d: %w", p.sent, err)
		}
		p.sounding = false
	}
	return nil
}

// silence releases a sounding note and sends all-notes-off and all-sound-off.
// Failures are logged only; the run is already ending.
func (p *Pulse) silence() {
	now := p.clock.Now()
	msgs := make([]contracts.ShortMessage, 0, 3)
	if p.sounding {
		msgs = append(msgs, wire.NoteOff(p.cfg.Channel, p.cfg.Note))
	}
	msgs = append(msgs, wire.AllNotesOff(p.cfg.Channel), wire.AllSoundOff(p.cfg.Channel))
	for _, msg := range msgs {
		if err := p.out.Send(msg, now); err != nil {
			p.logger.Warn("cleanup send failed",
				p.logger.Field().Uint8("status", msg.Status()),
				p.logger.Field().Error("error", err))
		}
	}
	p.sounding = false
}
