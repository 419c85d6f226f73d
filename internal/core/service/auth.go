package service

import (
	"context"
	"errors"
	"fmt"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/port"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Authorizer interface {
	IsAuthorized(ctx context.Context, chatID int64) bool
}

// ChatAuthorizer restricts the bot to an allowlist of chats. An empty allowlist admits every chat.
type ChatAuthorizer struct {
	allowlist []int64
	sender    port.TextSender
}

func NewAuthorizer(sender port.TextSender) (*ChatAuthorizer, error) {
	var list []int64

	err := viper.UnmarshalKey("telegram.allowed_chat_ids", &list)
	if err != nil {
		return nil, errors.New("failed to load allowed chat IDs")
	}

	if len(list) == 0 {
		log.Info().Msg("no chat allowlist configured, bot is open to everyone")
	}

	return &ChatAuthorizer{
		allowlist: list,
		sender:    sender,
	}, nil
}

const (
	forbidden          = "You are not authorized to use this bot. Please contact @%s with this ID to get access: %d"
	forbiddenNoContact = "You are not authorized to use this bot. Your chat ID is %d"
)

func (a *ChatAuthorizer) IsAuthorized(ctx context.Context, chatID int64) bool {
	if len(a.allowlist) == 0 {
		return true
	}

	for _, id := range a.allowlist {
		if id == chatID {
			return true
		}
	}

	text := fmt.Sprintf(forbiddenNoContact, chatID)
	if admin := viper.GetString("telegram.admin_username"); admin != "" {
		text = fmt.Sprintf(forbidden, admin, chatID)
	}

	_, err := a.sender.SendMessageReply(ctx, &domain.Message{ChatID: chatID}, text)
	if err != nil {
		log.Err(err).Msg("failed to send unauthorized warning")
	}

	return false
}
