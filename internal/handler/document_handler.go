package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/literag/internal/pkg/errcode"
	"github.com/xxxsen/literag/internal/pkg/response"
	"github.com/xxxsen/literag/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type processRequest struct {
	AssetID      string `json:"asset_id"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	Reset        bool   `json:"reset"`
}

// Process chunks one asset when asset_id is set, otherwise every asset in
// the project.
func (h *DocumentHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	projectID := c.Param("id")
	var (
		result *service.ProcessResult
		err    error
	)
	if req.AssetID != "" {
		result, err = h.documents.Process(c.Request.Context(), projectID, req.AssetID, req.ChunkSize, req.ChunkOverlap, req.Reset)
	} else {
		result, err = h.documents.ProcessAll(c.Request.Context(), projectID, req.ChunkSize, req.ChunkOverlap, req.Reset)
	}
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *DocumentHandler) Count(c *gin.Context) {
	count, err := h.documents.CountChunks(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chunk_count": count})
}
