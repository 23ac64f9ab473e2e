package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrInternal
	ErrInvalidFile
	ErrUploadFailed
	ErrUnsupportedFormat
	ErrProcessingFailed
	ErrIndexNotFound
	ErrIndexEmpty
	ErrIndexingFailed
	ErrGenerationFailed
	ErrAIUnavailable
)
