package blocks

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/muzz-match/internal/auth"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/server"
)

// Registrar ties the block list into the HTTP server
type Registrar struct {
	service *Service
}

func NewRegistrar(s *Service) *Registrar {
	return &Registrar{service: s}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.POST("/blocks", r.block)
	rg.DELETE("/blocks/:userId", r.unblock)
}

type blockRequest struct {
	BlockedUserID string `json:"blockedUserId" binding:"required"`
}

func (r *Registrar) block(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, svcErr.InvalidArgument("blockedUserId is required"))
		return
	}
	if err := r.service.Block(c.Request.Context(), auth.UserID(c), req.BlockedUserID); err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"blockedUserId": req.BlockedUserID})
}

func (r *Registrar) unblock(c *gin.Context) {
	if err := r.service.Unblock(c.Request.Context(), auth.UserID(c), c.Param("userId")); err != nil {
		server.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
