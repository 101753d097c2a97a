package likes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/muzz-match/internal/auth"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/server"
)

// Registrar ties the like endpoints into the HTTP server
type Registrar struct {
	ledger *Ledger
}

func NewRegistrar(l *Ledger) *Registrar {
	return &Registrar{ledger: l}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.POST("/likes", r.like)
	rg.GET("/likes/received", r.received)
	rg.GET("/likes/received/new", r.receivedNew)
	rg.GET("/likes/count", r.count)
}

type likeRequest struct {
	LikedUserID string `json:"likedUserId" binding:"required"`
	Liked       *bool  `json:"liked" binding:"required"`
}

func (r *Registrar) like(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, svcErr.InvalidArgument("likedUserId and liked are required"))
		return
	}

	pref, err := r.ledger.RecordPreference(c.Request.Context(), auth.UserID(c), req.LikedUserID, *req.Liked)
	if errors.Is(err, svcErr.ErrSelfAction) {
		// self-likes look like any other unknown target to clients
		err = svcErr.NotFound("bad user id")
	}
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, pref)
}

type likersResponse struct {
	Likers        []Liker `json:"likers"`
	NextPageToken *string `json:"nextPageToken,omitempty"`
}

func (r *Registrar) received(c *gin.Context) {
	likers, next, err := r.ledger.ListLikedYou(c.Request.Context(), auth.UserID(c), pageToken(c))
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, likersResponse{Likers: likers, NextPageToken: next})
}

func (r *Registrar) receivedNew(c *gin.Context) {
	likers, next, err := r.ledger.ListNewLikedYou(c.Request.Context(), auth.UserID(c), pageToken(c))
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, likersResponse{Likers: likers, NextPageToken: next})
}

func (r *Registrar) count(c *gin.Context) {
	n, err := r.ledger.CountLikedYou(c.Request.Context(), auth.UserID(c))
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func pageToken(c *gin.Context) *string {
	if raw := c.Query("pageToken"); raw != "" {
		return &raw
	}
	return nil
}
