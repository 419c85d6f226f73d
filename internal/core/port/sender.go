package port

import (
	"context"
	"io"
	"stickerbot/internal/core/domain"
)

type TextSender interface {
	// SendMessageReply sends a reply to a specified message with the given text and returns the sent message ID and
	// an error if any.
	SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error)
	// SendChatAction sends a specified chat action (e.g., typing, sending photo) to indicate activity in a given chat.
	SendChatAction(ctx context.Context, chatID int64, action domain.Action)
	// NotifyAndReturnError sends an error notification based on the provided message context and returns the error.
	NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error
}

type DocumentSender interface {
	// SendDocumentReply uploads data as a document replying to message and returns the transport's reference to the
	// uploaded file.
	SendDocumentReply(ctx context.Context, message *domain.Message, filename string, data []byte) (
		domain.OutputReference, error)
	// SendDocumentRefReply re-sends a previously uploaded document by its reference.
	SendDocumentRefReply(ctx context.Context, message *domain.Message, ref domain.OutputReference) error
}

type SourceOpener interface {
	// OpenSource starts downloading the file identified by fileID. The caller closes the returned stream.
	OpenSource(ctx context.Context, fileID string) (io.ReadCloser, error)
}
