package port

import "os"

type Staging interface {
	// CreateTempFile creates an empty temporary file with the given extension.
	CreateTempFile(extension string) (*os.File, error)
	// RemoveTempFile removes a file created by CreateTempFile.
	RemoveTempFile(path string)
}
