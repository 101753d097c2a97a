package server

import "github.com/gin-gonic/gin"

// Registrar is a common interface for all HTTP feature registrars.
// The group it receives is already behind authentication.
type Registrar interface {
	Register(rg *gin.RouterGroup)
}
