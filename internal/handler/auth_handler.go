package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/literag/internal/pkg/errcode"
	"github.com/xxxsen/literag/internal/pkg/response"
	"github.com/xxxsen/literag/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.User, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token})
}
