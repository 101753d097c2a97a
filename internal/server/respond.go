package server

import (
	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// Fail maps err to a status code and aborts with {"detail": ...}.
func Fail(c *gin.Context, err error) {
	status, detail := svcErr.Map(err)
	if status >= 500 {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
