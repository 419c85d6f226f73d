package port

import "context"

type ImageConverter interface {
	// Convert turns the WebP image stored at inputPath into PNG bytes. Failures are reported as
	// *domain.ProcessError.
	Convert(ctx context.Context, inputPath string) ([]byte, error)
}
