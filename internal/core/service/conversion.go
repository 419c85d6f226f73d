package service

import (
	"context"
	"errors"
	"fmt"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/port"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

type Runner interface {
	Run(ctx context.Context, id domain.ConversionID, message *domain.Message) (domain.OutputReference, error)
}

// ConversionService answers conversion requests from the cache, by joining a conversion already in flight or
// by running the pipeline.
type ConversionService struct {
	cache       port.OutputCache
	coordinator *Coordinator
	runner      Runner
	timeout     time.Duration
}

// NewConversionService returns a service whose conversions are bounded by timeout. A zero timeout lets a
// conversion run for as long as the converter does.
func NewConversionService(cache port.OutputCache, coordinator *Coordinator, runner Runner,
	timeout time.Duration) *ConversionService {
	return &ConversionService{cache: cache, coordinator: coordinator, runner: runner, timeout: timeout}
}

func (s *ConversionService) Convert(ctx context.Context, message *domain.Message) (domain.ConversionResult, error) {
	sticker := message.Sticker
	if sticker == nil {
		return domain.ConversionResult{}, errors.New("message carries no sticker")
	}

	if sticker.IsAnimated || sticker.IsVideo {
		return domain.ConversionResult{}, domain.ErrUnsupportedSticker
	}

	id := domain.Derive(sticker.Descriptor())
	l := log.With().
		Str("conversionId", string(id)).
		Str("fileId", sticker.FileID).
		Str("set", sticker.SetName).
		Logger()

	if ref, ok := s.cache.Lookup(ctx, id); ok {
		l.Debug().Msg("cache hit")
		return domain.ConversionResult{ID: id, Reference: ref, Source: domain.Cached}, nil
	}

	claim := s.coordinator.AcquireOrJoin(id)
	if !claim.Owner() {
		l.Debug().Msg("waiting for pending conversion")
		ref, err := claim.Wait(ctx)
		if err != nil {
			return domain.ConversionResult{ID: id}, err
		}
		return domain.ConversionResult{ID: id, Reference: ref, Source: domain.Joined}, nil
	}

	// a previous owner may have finished between the lookup and the claim
	if ref, ok := s.cache.Lookup(ctx, id); ok {
		claim.Resolve(ref, nil)
		return domain.ConversionResult{ID: id, Reference: ref, Source: domain.Cached}, nil
	}

	l.Info().Msg("starting conversion")

	ref, err := s.run(ctx, id, message)
	claim.Resolve(ref, err)
	if err != nil {
		return domain.ConversionResult{ID: id}, err
	}

	return domain.ConversionResult{ID: id, Reference: ref, Source: domain.Converted}, nil
}

// run drives the pipeline detached from the requester's cancellation so waiters always get an outcome.
func (s *ConversionService) run(ctx context.Context, id domain.ConversionID, message *domain.Message) (
	domain.OutputReference, error) {
	runCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, s.timeout)
		defer cancel()
	}

	var (
		ref domain.OutputReference
		err error
	)

	var pc panics.Catcher
	pc.Try(func() { ref, err = s.runner.Run(runCtx, id, message) })
	if r := pc.Recovered(); r != nil {
		log.Error().Str("conversionId", string(id)).Str("stack", string(r.Stack)).
			Msgf("conversion panicked: %v", r.Value)
		return "", &domain.ConversionError{ID: id, Stage: domain.StageConvert, Err: fmt.Errorf("%w: panic: %v",
			domain.ErrUnexpected, r.Value)}
	}

	return ref, err
}

func (s *ConversionService) Stats(ctx context.Context) domain.ConversionStats {
	return domain.ConversionStats{
		Pending: s.coordinator.Pending(),
		Cached:  s.cache.Count(ctx),
	}
}
