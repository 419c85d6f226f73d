package service

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/port"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const stagingExtension = ".webp"

// Pipeline downloads a sticker, converts it and uploads the result.
type Pipeline struct {
	source    port.SourceOpener
	staging   port.Staging
	converter port.ImageConverter
	documents port.DocumentSender
	fill      *color.NRGBA
}

// NewPipeline returns a conversion pipeline. A non-nil fill enables replacing the color of fully transparent
// pixels.
func NewPipeline(source port.SourceOpener, staging port.Staging, converter port.ImageConverter,
	documents port.DocumentSender, fill *color.NRGBA) *Pipeline {
	return &Pipeline{source: source, staging: staging, converter: converter, documents: documents, fill: fill}
}

// Run converts the sticker of message and uploads the result as a reply to it.
func (p *Pipeline) Run(ctx context.Context, id domain.ConversionID, message *domain.Message) (
	domain.OutputReference, error) {
	l := log.With().
		Str("conversionId", string(id)).
		Str("fileId", message.Sticker.FileID).
		Logger()

	data, err := p.convert(ctx, l, id, message.Sticker.FileID)
	if err != nil {
		return "", err
	}

	filename := id.Short() + ".png"
	ref, err := p.documents.SendDocumentReply(ctx, message, filename, data)
	if err != nil {
		return "", &domain.ConversionError{ID: id, Stage: domain.StageUpload, Err: fmt.Errorf("%w: %w",
			domain.ErrUpload, err)}
	}

	l.Info().Str("ref", string(ref)).Int("bytes", len(data)).Msg("conversion uploaded")

	return ref, nil
}

// convert covers everything up to the converted bytes. The staging file never outlives it.
func (p *Pipeline) convert(ctx context.Context, l zerolog.Logger, id domain.ConversionID, fileID string) (
	[]byte, error) {
	var (
		src      io.ReadCloser
		srcErr   error
		staged   *os.File
		stageErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() { src, srcErr = p.source.OpenSource(ctx, fileID) })
	wg.Go(func() { staged, stageErr = p.staging.CreateTempFile(stagingExtension) })
	wg.Wait()

	if src != nil {
		defer src.Close()
	}

	if staged != nil {
		defer p.staging.RemoveTempFile(staged.Name())
		defer staged.Close()
	}

	if err := errors.Join(srcErr, stageErr); err != nil {
		l.Error().Err(err).Msg("could not start download")
		return nil, downloadError(id, err)
	}

	n, err := io.Copy(staged, src)
	if err == nil {
		err = staged.Close()
	}
	if err != nil {
		l.Error().Err(err).Msg("could not stage sticker")
		return nil, downloadError(id, err)
	}

	l.Debug().Int64("bytes", n).Str("path", staged.Name()).Msg("sticker staged")

	data, err := p.converter.Convert(ctx, staged.Name())
	if err != nil {
		var procErr *domain.ProcessError
		code := 0
		if errors.As(err, &procErr) {
			code = procErr.Code
		}
		return nil, &domain.ConversionError{ID: id, Stage: domain.StageConvert, Code: code, Err: err}
	}

	if p.fill != nil {
		data, err = FillTransparent(data, *p.fill)
		if err != nil {
			return nil, &domain.ConversionError{ID: id, Stage: domain.StagePostProcess, Err: fmt.Errorf("%w: %w",
				domain.ErrUnexpected, err)}
		}
	}

	return data, nil
}

func downloadError(id domain.ConversionID, err error) error {
	return &domain.ConversionError{ID: id, Stage: domain.StageDownload, Err: fmt.Errorf("%w: %w",
		domain.ErrDownload, err)}
}
