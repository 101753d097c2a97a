package matches

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/muzz-match/internal/auth"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/server"
)

// Registrar ties the match endpoints into the HTTP server
type Registrar struct {
	coordinator *Coordinator
}

func NewRegistrar(c *Coordinator) *Registrar {
	return &Registrar{coordinator: c}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.GET("/matches", r.list)
	rg.DELETE("/matches/:id", r.remove)
}

type listResponse struct {
	Matches       []View  `json:"matches"`
	NextPageToken *string `json:"nextPageToken,omitempty"`
}

func (r *Registrar) list(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			server.Fail(c, svcErr.InvalidArgument("limit must be a positive integer"))
			return
		}
		limit = n
	}

	var token *string
	if raw := c.Query("pageToken"); raw != "" {
		token = &raw
	}

	views, next, err := r.coordinator.ListMatches(c.Request.Context(), auth.UserID(c), token, limit)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Matches: views, NextPageToken: next})
}

func (r *Registrar) remove(c *gin.Context) {
	if err := r.coordinator.RemoveMatch(c.Request.Context(), c.Param("id"), auth.UserID(c)); err != nil {
		server.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
