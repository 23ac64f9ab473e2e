package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/literag/internal/pkg/errcode"
	"github.com/xxxsen/literag/internal/pkg/response"
	"github.com/xxxsen/literag/internal/service"
)

type AssetHandler struct {
	assets *service.AssetService
}

func NewAssetHandler(assets *service.AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

func (h *AssetHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "missing file field")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to open uploaded file")
		return
	}
	defer file.Close()
	contentType := header.Header.Get("Content-Type")
	asset, err := h.assets.Upload(c.Request.Context(), c.Param("id"), header.Filename, contentType, file, header.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, asset)
}

func (h *AssetHandler) List(c *gin.Context) {
	assets, err := h.assets.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, assets)
}

func (h *AssetHandler) Delete(c *gin.Context) {
	if err := h.assets.Delete(c.Request.Context(), c.Param("id"), c.Param("asset_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
