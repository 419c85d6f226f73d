package command

import (
	"context"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/port"
	"time"

	"github.com/rs/zerolog/log"
)

const usageText = "Hi! Send me stickers and I'll convert them to 🖼 .png images, keeping the transparency."

// Help answers /start, /help and /usage with the usage text.
type Help struct {
	textSender port.TextSender
	command    string
}

func NewHelp(sender port.TextSender, command string) *Help {
	return &Help{textSender: sender, command: command}
}

func (h *Help) GetCommand() string {
	return h.command
}

func (h *Help) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Debug().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", h.command).
		Msg("sending usage")

	_, err := h.textSender.SendMessageReply(ctx, message, usageText)
	return err
}
