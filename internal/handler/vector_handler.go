package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/literag/internal/pkg/errcode"
	"github.com/xxxsen/literag/internal/pkg/response"
	"github.com/xxxsen/literag/internal/service"
)

type VectorHandler struct {
	projects *service.ProjectService
	vectors  *service.VectorService
}

func NewVectorHandler(projects *service.ProjectService, vectors *service.VectorService) *VectorHandler {
	return &VectorHandler{projects: projects, vectors: vectors}
}

type indexRequest struct {
	Reset bool `json:"reset"`
}

func (h *VectorHandler) Index(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	projectID := c.Param("id")
	if _, err := h.projects.Get(c.Request.Context(), projectID); err != nil {
		handleError(c, err)
		return
	}
	inserted, err := h.vectors.IndexProject(c.Request.Context(), projectID, req.Reset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"inserted_count": inserted})
}

type queryRequest struct {
	Query     string   `json:"query"`
	TopK      int      `json:"top_k"`
	Threshold *float64 `json:"threshold"`
}

func (h *VectorHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	projectID := c.Param("id")
	if _, err := h.projects.Get(c.Request.Context(), projectID); err != nil {
		handleError(c, err)
		return
	}
	results, err := h.vectors.QueryVectors(c.Request.Context(), projectID, req.Query, req.TopK, req.Threshold)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, results)
}

func (h *VectorHandler) Info(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := h.projects.Get(c.Request.Context(), projectID); err != nil {
		handleError(c, err)
		return
	}
	info, err := h.vectors.GetIndexInfo(c.Request.Context(), projectID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, info)
}
