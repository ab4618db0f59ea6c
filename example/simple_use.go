package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/leandrodaf/midiprobe/internal/logger"
	"github.com/leandrodaf/midiprobe/internal/wire"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"github.com/leandrodaf/midiprobe/sdk/midi"
)

func main() {
	log := logger.NewZapLogger()

	driver, err := midi.NewDriver(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI driver", log.Field().Error("error", err))
		return
	}
	defer driver.Close()

	sources, err := driver.Sources()
	if err != nil || len(sources) == 0 {
		log.Error("No MIDI sources found or error listing sources", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI sources:", sources)

	tb := driver.Clock().Timebase()
	input, err := driver.OpenInput(0, func(packet contracts.Packet) {
		d := wire.NewDecoder(packet.Data)
		for d.Next() {
			msg := d.Message()
			log.Info("MIDI Event",
				log.Field().Uint64("timestamp_ns", tb.ToNanos(packet.Timestamp)),
				log.Field().Duration("delivery", time.Duration(tb.DeltaNanos(packet.Arrival, packet.Timestamp))),
				log.Field().Uint8("status", msg.Status()),
				log.Field().Int("channel", msg.Channel()),
			)
		}
	})
	if err != nil {
		log.Error("Failed to open MIDI source", log.Field().Error("error", err))
		return
	}
	defer input.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Println("Capturing MIDI events... Press Ctrl+C to exit.")
	<-ctx.Done()
}
