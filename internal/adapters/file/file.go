package file

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// OpenURL starts a download of the file at url and returns the response body. The caller closes it.
func OpenURL(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("error creating request %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Send()
		return nil, err
	}

	return res.Body, nil
}

// CreateTempFile creates an empty, uniquely named file in the temp directory. The caller closes it and removes
// it with RemoveTempFile.
func CreateTempFile(extension string) (*os.File, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s%s", id.String(), extension))

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		err = fmt.Errorf("error creating temp file %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	log.Debug().Str("path", f.Name()).Msg("created temp file")

	return f, nil
}

// RemoveTempFile removes a specified temporary file at the given path and logs success or failure.
func RemoveTempFile(path string) {
	err := os.Remove(path)
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("could not clean up temp file")
		return
	}
	log.Debug().Str("path", path).Msg("cleaned up temp file")
}

// TempStaging stages files in the system temp directory.
type TempStaging struct{}

func (TempStaging) CreateTempFile(extension string) (*os.File, error) {
	return CreateTempFile(extension)
}

func (TempStaging) RemoveTempFile(path string) {
	RemoveTempFile(path)
}
