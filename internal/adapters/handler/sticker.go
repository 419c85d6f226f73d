package handler

import (
	"context"
	"stickerbot/internal/core/port"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type Sticker struct {
	responder port.Command
	timeout   time.Duration
}

func NewSticker(responder port.Command, timeout time.Duration) *Sticker {
	return &Sticker{responder: responder, timeout: timeout}
}

// IsSticker matches updates carrying a sticker message.
func IsSticker(update *models.Update) bool {
	return update.Message != nil && update.Message.Sticker != nil
}

func (s *Sticker) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if !IsSticker(update) {
		log.Debug().Msg("update carries no sticker")
		return
	}

	log.Debug().
		Int("messageId", update.Message.ID).
		Str("fileId", update.Message.Sticker.FileID).
		Msg("received sticker")

	respond(ctx, s.responder, s.timeout, toMessage(update.Message))
}
