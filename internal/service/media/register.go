package media

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/muzz-match/internal/auth"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/server"
)

// Registrar ties the media URL endpoints into the HTTP server
type Registrar struct {
	service *Service
}

func NewRegistrar(s *Service) *Registrar {
	return &Registrar{service: s}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.POST("/chat/media/upload-url", r.uploadURL)
	rg.POST("/chat/media/read-url", r.readURL)
}

type uploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

func (r *Registrar) uploadURL(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, svcErr.InvalidArgument("fileName and contentType are required"))
		return
	}
	url, key, err := r.service.UploadURL(c.Request.Context(), auth.UserID(c), req.FileName, req.ContentType)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "key": key})
}

type readRequest struct {
	Key string `json:"key" binding:"required"`
}

func (r *Registrar) readURL(c *gin.Context) {
	var req readRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, svcErr.InvalidArgument("key is required"))
		return
	}
	url, err := r.service.ReadURL(c.Request.Context(), req.Key)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
