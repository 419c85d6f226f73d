package converter

import (
	"bytes"
	"image"
	"image/color"
	"stickerbot/internal/core/domain"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeWebP(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range 8 {
		img.SetNRGBA(i, i, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, img, &webp.Options{Lossless: true}))
	return buf.Bytes()
}

func TestNativeConverter_Convert(t *testing.T) {
	c := NewNativeConverter(0)

	out, err := c.Convert(t.Context(), writeInput(t, encodeWebP(t)))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	r, _, _, a := img.At(3, 3).RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(255), a>>8)

	_, _, _, a = img.At(3, 4).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestNativeConverter_ConvertErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		maxOutput int
		wantKind  error
	}{
		{
			name:      "not a webp",
			input:     []byte("definitely not webp"),
			maxOutput: 0,
			wantKind:  domain.ErrProcessExit,
		},
		{
			name:      "output too large",
			input:     nil,
			maxOutput: 16,
			wantKind:  domain.ErrOutputTooLarge,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			if input == nil {
				input = encodeWebP(t)
			}

			_, err := NewNativeConverter(tc.maxOutput).Convert(t.Context(), writeInput(t, input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantKind)
		})
	}
}
