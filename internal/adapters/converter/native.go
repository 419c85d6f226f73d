package converter

import (
	"context"
	"fmt"
	"os"
	"stickerbot/internal/core/domain"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// NativeConverter decodes WebP in-process for hosts without the libwebp tools.
type NativeConverter struct {
	maxOutput int
}

func NewNativeConverter(maxOutput int) *NativeConverter {
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	return &NativeConverter{maxOutput: maxOutput}
}

func (c *NativeConverter) Convert(ctx context.Context, inputPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ProcessError{Kind: domain.ErrProcessSignal, Err: err}
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, &domain.ProcessError{Kind: domain.ErrProcessSpawn, Err: err}
	}
	defer f.Close()

	// decode failures are reported like a failing dwebp run
	img, err := webp.Decode(f)
	if err != nil {
		log.Error().Err(err).Str("path", inputPath).Msg("webp decode failed")
		return nil, &domain.ProcessError{Kind: domain.ErrProcessExit, Code: 1, Err: err}
	}

	out := &boundedBuffer{max: c.maxOutput}
	if err := imaging.Encode(out, img, imaging.PNG); err != nil {
		if out.exceeded {
			return nil, &domain.ProcessError{Kind: domain.ErrOutputTooLarge,
				Err: fmt.Errorf("more than %d bytes", c.maxOutput)}
		}
		return nil, &domain.ProcessError{Kind: domain.ErrProcessExit, Code: 1, Err: err}
	}

	log.Debug().Int("bytes", out.buf.Len()).Msg("native conversion finished")

	return out.buf.Bytes(), nil
}
