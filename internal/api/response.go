package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)                 { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string)       { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)        { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)         { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)         { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)         { Error(c, http.StatusInternalServerError, msg) }
func UnsupportedMedia(c *gin.Context, msg string) { Error(c, http.StatusUnsupportedMediaType, msg) }

// ValidationFailed 返回 400 并附带违规字段列表。
func ValidationFailed(c *gin.Context, fields ...string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
}

// BindingFailed 将 binding 校验错误按字段展开后返回 400。
func BindingFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		ValidationFailed(c, fields...)
		return
	}
	BadRequest(c, err.Error())
}
