package sender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"stickerbot/internal/adapters/file"
	"stickerbot/internal/core/domain"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Telegram struct {
	bot    TelegramBot
	client *http.Client
}

// NewTelegram returns a sender using b for API calls and client for file downloads.
func NewTelegram(b TelegramBot, client *http.Client) *Telegram {
	if client == nil {
		client = http.DefaultClient
	}
	return &Telegram{bot: b, client: client}
}

const TelegramMessageLimit = 4096

func (s *Telegram) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	var lastID int
	for _, chunk := range chunkText(text, TelegramMessageLimit) {
		params := &bot.SendMessageParams{
			ChatID: message.ChatID,
			Text:   chunk,
		}
		if message.ID != 0 {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID: message.ID,
				ChatID:    message.ChatID,
			}
		}

		sent, err := s.bot.SendMessage(ctx, params)
		if err != nil {
			log.Error().Err(err).Int64("chatId", message.ChatID).Msg("failed to send message reply")
			return 0, fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
		}
		lastID = sent.ID
	}

	return lastID, nil
}

func chunkText(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return append(chunks, text)
}

func (s *Telegram) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	if _, sendErr := s.SendMessageReply(ctx, message, err.Error()); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

func (s *Telegram) SendDocumentReply(ctx context.Context, message *domain.Message, filename string,
	data []byte) (domain.OutputReference, error) {
	params := &bot.SendDocumentParams{
		ChatID:   message.ChatID,
		Document: &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		ReplyParameters: &models.ReplyParameters{
			MessageID: message.ID,
			ChatID:    message.ChatID,
		},
		DisableContentTypeDetection: true,
	}

	sent, err := s.bot.SendDocument(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload document")
		return "", err
	}

	if sent == nil || sent.Document == nil || sent.Document.FileID == "" {
		return "", errors.New("telegram returned no document for upload")
	}

	return domain.OutputReference(sent.Document.FileID), nil
}

func (s *Telegram) SendDocumentRefReply(ctx context.Context, message *domain.Message,
	ref domain.OutputReference) error {
	params := &bot.SendDocumentParams{
		ChatID:   message.ChatID,
		Document: &models.InputFileString{Data: string(ref)},
		ReplyParameters: &models.ReplyParameters{
			MessageID: message.ID,
			ChatID:    message.ChatID,
		},
	}

	_, err := s.bot.SendDocument(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("failed to send cached document")
		return err
	}

	return nil
}

func (s *Telegram) OpenSource(ctx context.Context, fileID string) (io.ReadCloser, error) {
	f, err := s.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		log.Error().Err(err).Str("fileId", fileID).Msg("error getting file from telegram api")
		return nil, err
	}

	return file.OpenURL(ctx, s.client, s.bot.FileDownloadLink(f))
}

const ChatActionRepeatSeconds = 5

func (s *Telegram) SendChatAction(ctx context.Context, chatID int64, action domain.Action) {
	log.Debug().Int64("chatID", chatID).Msg("starting action routine")

	var chatAction models.ChatAction
	switch action {
	case domain.SendingDocument:
		chatAction = models.ChatActionUploadDocument
	case domain.SendingPhoto:
		chatAction = models.ChatActionUploadPhoto
	default:
		chatAction = models.ChatActionTyping
	}

	for {
		log.Debug().Int64("chatID", chatID).Msg("transmitting action")
		_, err := s.bot.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: chatAction,
		})
		if err != nil {
			if ctx.Err() == nil {
				log.Err(err).Msg("error sending chat action")
			}
			return
		}

		select {
		case <-ctx.Done():
			log.Debug().Int64("chatID", chatID).Msg("done, stopping action routine")
			return
		case <-time.After(ChatActionRepeatSeconds * time.Second):
		}
	}
}
