package handler

import (
	"context"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/domain/command"
	"stickerbot/internal/core/port"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

type Command struct {
	commandRegistry port.CommandRegistry
	timeout         time.Duration
}

func NewCommand(commandRegistry port.CommandRegistry, timeout time.Duration) *Command {
	return &Command{commandRegistry: commandRegistry, timeout: timeout}
}

// Handle dispatches a text command to its registered handler. The bot runs every handler in its own goroutine.
func (c *Command) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		log.Debug().Msg("update carries no message")
		return
	}

	log.Debug().Str("message", update.Message.Text).Msg("received command")

	cmd := command.ParseCommand(update.Message.Text)
	commandHandler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	respond(ctx, commandHandler, c.timeout, toMessage(update.Message))
}

func respond(ctx context.Context, h port.Command, timeout time.Duration, message *domain.Message) {
	var pc panics.Catcher
	pc.Try(func() {
		if err := h.Respond(ctx, timeout, message); err != nil {
			log.Err(err).Str("command", h.GetCommand()).Msg("failed to respond to command")
		}
	})

	if r := pc.Recovered(); r != nil {
		log.Error().
			Str("command", h.GetCommand()).
			Str("stack", string(r.Stack)).
			Msgf("handler panicked: %v", r.Value)
	}
}

func toMessage(m *models.Message) *domain.Message {
	msg := &domain.Message{
		ID:       m.ID,
		ChatID:   m.Chat.ID,
		Text:     m.Text,
		Username: getUserNameOrFirstName(m.From),
	}

	if m.Sticker != nil {
		msg.Sticker = &domain.Sticker{
			FileID:     m.Sticker.FileID,
			SetName:    m.Sticker.SetName,
			IsAnimated: m.Sticker.IsAnimated,
			IsVideo:    m.Sticker.IsVideo,
		}
	}

	return msg
}

func getUserNameOrFirstName(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
