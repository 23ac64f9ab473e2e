package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal")

	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrParseFailed       = errors.New("document parse failed")

	ErrEmbeddingUnavailable  = errors.New("embedding model unavailable")
	ErrGenerationUnavailable = errors.New("generation model unavailable")
	ErrGenerationFailed      = errors.New("generation failed")

	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrIndexNotFound     = errors.New("vector index not found")
	ErrIndexEmpty        = errors.New("vector index empty")

	ErrTemplateMissing = errors.New("prompt template missing")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
