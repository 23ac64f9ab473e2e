package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/literag/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Projects  *ProjectHandler
	Assets    *AssetHandler
	Documents *DocumentHandler
	Vectors   *VectorHandler
	RAG       *RAGHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.POST("/auth/login", middleware.RateLimit(time.Second), deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/projects", deps.Projects.Create)
	authGroup.GET("/projects", deps.Projects.List)
	authGroup.GET("/projects/:id", deps.Projects.Get)
	authGroup.DELETE("/projects/:id", deps.Projects.Delete)

	authGroup.POST("/projects/:id/assets", deps.Assets.Upload)
	authGroup.GET("/projects/:id/assets", deps.Assets.List)
	authGroup.DELETE("/projects/:id/assets/:asset_id", deps.Assets.Delete)

	authGroup.POST("/projects/:id/documents/process", deps.Documents.Process)
	authGroup.GET("/projects/:id/documents/count", deps.Documents.Count)

	authGroup.POST("/projects/:id/vectors/index", deps.Vectors.Index)
	authGroup.POST("/projects/:id/vectors/query", deps.Vectors.Query)
	authGroup.GET("/projects/:id/vectors/info", deps.Vectors.Info)

	authGroup.POST("/projects/:id/rag/answer", deps.RAG.Answer)
}
