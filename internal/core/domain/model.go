package domain

type Message struct {
	ID       int
	ChatID   int64
	Username string
	Text     string
	Sticker  *Sticker
}

type Sticker struct {
	FileID     string
	SetName    string
	IsAnimated bool
	IsVideo    bool
}

// Descriptor returns the input descriptor identifying the sticker's conversion.
func (s *Sticker) Descriptor() InputDescriptor {
	return InputDescriptor{SourceFileID: s.FileID, GroupLabel: s.SetName}
}

type Action string

const (
	Typing          Action = "typing"
	SendingPhoto    Action = "sending_photo"
	SendingDocument Action = "sending_document"
)

// InputDescriptor identifies a source asset. An empty GroupLabel means the asset
// belongs to no group.
type InputDescriptor struct {
	SourceFileID string
	GroupLabel   string
}

// OutputReference is the transport's handle to an uploaded conversion result.
type OutputReference string

type ResultSource int

const (
	// Converted means the conversion ran for this request and the result was
	// already delivered by the upload.
	Converted ResultSource = iota
	// Joined means the request waited on a conversion owned by another request.
	Joined
	// Cached means the result came from the output cache.
	Cached
)

func (s ResultSource) String() string {
	switch s {
	case Converted:
		return "converted"
	case Joined:
		return "joined"
	case Cached:
		return "cached"
	default:
		return "unknown"
	}
}

type ConversionResult struct {
	ID        ConversionID
	Reference OutputReference
	Source    ResultSource
}

type ConversionStats struct {
	Pending int
	Cached  int64
}
