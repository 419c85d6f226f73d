package command

import (
	"context"
	"errors"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/port"
	"stickerbot/internal/core/service"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	downloadFailed    = "Oops! I couldn't download that sticker 😔"
	conversionFailed  = "Sorry, conversion failed"
	unsupportedFormat = "Sorry, I can only convert static stickers. Animated and video stickers are not supported."
)

// StickerCommand is the pseudo command under which sticker messages are dispatched.
const StickerCommand = "sticker"

// Sticker replies to a sticker message with its PNG rendition.
type Sticker struct {
	converter  port.StickerConverter
	documents  port.DocumentSender
	textSender port.TextSender
	auth       service.Authorizer
	track      service.Tracker
}

func NewSticker(converter port.StickerConverter,
	documents port.DocumentSender,
	textSender port.TextSender,
	auth service.Authorizer,
	track service.Tracker) *Sticker {
	return &Sticker{
		converter:  converter,
		documents:  documents,
		textSender: textSender,
		auth:       auth,
		track:      track,
	}
}

func (s *Sticker) GetCommand() string {
	return StickerCommand
}

func (s *Sticker) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	if message.Sticker == nil {
		return errors.New("message carries no sticker")
	}

	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("fileId", message.Sticker.FileID).
		Str("set", message.Sticker.SetName).
		Logger()

	l.Info().Msg("handling sticker")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !s.auth.IsAuthorized(ctx, message.ChatID) {
		l.Debug().Msg("not authorized")
		return nil
	}

	if !s.track.CheckLimit(ctx, message) {
		l.Debug().Msg("daily limit reached")
		return nil
	}

	go s.textSender.SendChatAction(ctx, message.ChatID, domain.SendingDocument)

	result, err := s.converter.Convert(ctx, message)
	if err != nil {
		logFailure(l, err)
		return errors.Join(err, s.textSender.NotifyAndReturnError(ctx, errors.New(userMessage(err)), message))
	}

	l.Info().
		Str("conversionId", string(result.ID)).
		Stringer("source", result.Source).
		Msg("conversion ready")

	if result.Source == domain.Converted {
		s.track.AddConversion(message.ChatID)
		return nil
	}

	err = s.documents.SendDocumentRefReply(ctx, message, result.Reference)
	if err != nil {
		l.Error().Err(err).Str("conversionId", string(result.ID)).Msg("failed to resend converted sticker")
		return errors.Join(err, s.textSender.NotifyAndReturnError(ctx, errors.New(conversionFailed), message))
	}

	return nil
}

func logFailure(l zerolog.Logger, err error) {
	e := l.Error().Err(err)

	var convErr *domain.ConversionError
	if errors.As(err, &convErr) {
		e = e.Str("conversionId", string(convErr.ID)).Str("stage", string(convErr.Stage))
		if convErr.Code != 0 {
			e = e.Int("code", convErr.Code)
		}
	}

	var procErr *domain.ProcessError
	if errors.As(err, &procErr) && procErr.Stderr != "" {
		e = e.Str("stderr", procErr.Stderr)
	}

	e.Msg("sticker conversion failed")
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedSticker):
		return unsupportedFormat
	case errors.Is(err, domain.ErrDownload):
		return downloadFailed
	default:
		return conversionFailed
	}
}
