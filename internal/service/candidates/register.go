package candidates

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/muzz-match/internal/auth"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/server"
)

// Registrar ties the questionnaire list into the HTTP server
type Registrar struct {
	selector *Selector
}

func NewRegistrar(s *Selector) *Registrar {
	return &Registrar{selector: s}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.GET("/questionnaire/list/:page", r.list)
}

func (r *Registrar) list(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		server.Fail(c, svcErr.InvalidArgument("page must be an integer"))
		return
	}

	profiles, err := r.selector.ListCandidates(c.Request.Context(), auth.UserID(c), page)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}
