package api

import (
	"github.com/gin-gonic/gin"

	"jobPortal/internal/api/middleware"
	"jobPortal/internal/auth"
)

func actorFromContext(c *gin.Context) (auth.Actor, bool) {
	return middleware.ActorFromContext(c)
}
