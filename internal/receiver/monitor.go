// Package receiver turns incoming packets into interval and jitter statistics.
package receiver

import (
	"context"
	"sync/atomic"

	"github.com/leandrodaf/midiprobe/internal/stats"
	"github.com/leandrodaf/midiprobe/internal/wire"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// Config selects which events the monitor counts.
type Config struct {
	Channel     int
	ReportEvery int    // periodic report after this many qualifying events, at least 1
	Count       uint64 // stop after this many qualifying events, 0 = unbounded
}

// Monitor is the input handler of a receive run. HandlePacket is called by a
// single driver callback at a time and is the only writer of the state.
type Monitor struct {
	cfg      Config
	state    *stats.RuntimeState
	reporter stats.Reporter
	logger   contracts.Logger
	cancel   context.CancelFunc

	done atomic.Bool
}

// NewMonitor returns a monitor reporting through reporter. cancel is called
// once the count ceiling is reached.
func NewMonitor(cfg Config, tb contracts.Timebase, reporter stats.Reporter, logger contracts.Logger, cancel context.CancelFunc) *Monitor {
	if cfg.ReportEvery < 1 {
		cfg.ReportEvery = 1
	}
	return &Monitor{
		cfg:      cfg,
		state:    stats.NewRuntimeState(tb),
		reporter: reporter,
		logger:   logger,
		cancel:   cancel,
	}
}

// HandlePacket records every qualifying note-on in packet.
func (m *Monitor) HandlePacket(packet contracts.Packet) {
	if m.done.Load() {
		return
	}
	d := wire.NewDecoder(packet.Data)
	for d.Next() {
		if !wire.IsQualifyingNoteOn(d.Message(), m.cfg.Channel) {
			continue
		}
		m.state.Record(packet.Timestamp, packet.Arrival)

		if m.state.Events%uint64(m.cfg.ReportEvery) == 0 {
			if err := m.reporter.Runtime(m.state, false); err != nil {
				m.logger.Warn("report write failed", m.logger.Field().Error("error", err))
			}
		}
		if m.cfg.Count > 0 && m.state.Events >= m.cfg.Count {
			m.done.Store(true)
			if m.cancel != nil {
				m.cancel()
			}
			return
		}
	}
}

// Done reports whether the count ceiling was reached.
func (m *Monitor) Done() bool { return m.done.Load() }

// State returns the accumulated statistics. Read it only after the input is closed.
func (m *Monitor) State() *stats.RuntimeState { return m.state }

// Run connects the monitor to source index of drv and blocks until ctx ends,
// either through a signal or the count ceiling. The input is closed before
// the final report is written.
func (m *Monitor) Run(ctx context.Context, drv contracts.Driver, index int) error {
	in, err := drv.OpenInput(index, m.HandlePacket)
	if err != nil {
		return err
	}
	m.logger.Debug("input connected", m.logger.Field().Int("source", index))

	<-ctx.Done()
	m.done.Store(true)
	cerr := in.Close()
	if cerr != nil {
		m.logger.Error("input close failed", m.logger.Field().Error("error", cerr))
	}
	if err := m.FinalReport(); err != nil {
		return err
	}
	return cerr
}

// FinalReport writes the closing report block.
func (m *Monitor) FinalReport() error {
	return m.reporter.Runtime(m.state, true)
}
