package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/literag/internal/pkg/errcode"
	"github.com/xxxsen/literag/internal/pkg/response"
	"github.com/xxxsen/literag/internal/service"
)

type RAGHandler struct {
	projects *service.ProjectService
	rag      *service.RAGService
}

func NewRAGHandler(projects *service.ProjectService, rag *service.RAGService) *RAGHandler {
	return &RAGHandler{projects: projects, rag: rag}
}

type answerRequest struct {
	Query           string   `json:"query"`
	TopK            int      `json:"top_k"`
	Threshold       *float64 `json:"threshold"`
	MaxOutputTokens int      `json:"max_output_tokens"`
	Temperature     float64  `json:"temperature"`
}

func (h *RAGHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	projectID := c.Param("id")
	if _, err := h.projects.Get(c.Request.Context(), projectID); err != nil {
		handleError(c, err)
		return
	}
	result, err := h.rag.Answer(c.Request.Context(), projectID, req.Query,
		req.TopK, req.Threshold, req.MaxOutputTokens, req.Temperature)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
