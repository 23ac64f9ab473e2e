package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/pkg/errcode"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
	"github.com/xxxsen/literag/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrIndexNotFound):
		response.Error(c, errcode.ErrIndexNotFound, "vector index not found")
	case errors.Is(err, appErr.ErrIndexEmpty):
		response.Error(c, errcode.ErrIndexEmpty, "vector index is empty")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrUnsupportedFormat):
		response.Error(c, errcode.ErrUnsupportedFormat, "unsupported document format")
	case errors.Is(err, appErr.ErrParseFailed):
		response.Error(c, errcode.ErrProcessingFailed, "document processing failed")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrDimensionMismatch):
		response.Error(c, errcode.ErrIndexingFailed, "vector indexing failed")
	case errors.Is(err, appErr.ErrEmbeddingUnavailable), errors.Is(err, appErr.ErrGenerationUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai model unavailable")
	case errors.Is(err, appErr.ErrGenerationFailed), errors.Is(err, appErr.ErrTemplateMissing):
		response.Error(c, errcode.ErrGenerationFailed, "answer generation failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
