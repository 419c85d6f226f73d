package command

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/port"
	"time"

	"github.com/rs/zerolog/log"
)

type Debug struct {
	textSender port.TextSender
	stats      port.StatsProvider
	command    string
}

func NewDebug(sender port.TextSender, stats port.StatsProvider, command string) *Debug {
	return &Debug{textSender: sender, stats: stats, command: command}
}

func (d *Debug) GetCommand() string {
	return d.command
}

const kb = 1024
const debugTemplate = `allocated mem: %d KB
threads running: %d
heap: %d KB
stack: %d KB
conversions pending: %d
conversions cached: %d
compiled with %s for %s-%s
`

func (d *Debug) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", d.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	samples := []metrics.Sample{
		{Name: "/memory/classes/heap/objects:bytes"},
		{Name: "/memory/classes/heap/stacks:bytes"},
		{Name: "/memory/classes/total:bytes"},
	}
	metrics.Read(samples)

	goos, goarch := runtime.GOOS, runtime.GOARCH
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "GOOS":
				goos = setting.Value
			case "GOARCH":
				goarch = setting.Value
			}
		}
	}

	stats := d.stats.Stats(ctx)
	l.Debug().Int("pending", stats.Pending).Int64("cached", stats.Cached).Msg("conversion stats")

	_, err := d.textSender.SendMessageReply(ctx, message,
		fmt.Sprintf(
			debugTemplate,
			sampleKB(samples[2]),
			runtime.NumGoroutine(),
			sampleKB(samples[0]),
			sampleKB(samples[1]),
			stats.Pending,
			stats.Cached,
			runtime.Version(), goos, goarch,
		))

	return err
}

func sampleKB(s metrics.Sample) uint64 {
	if s.Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return s.Value.Uint64() / kb
}
