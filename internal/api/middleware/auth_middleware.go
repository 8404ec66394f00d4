package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobPortal/internal/auth"
	"jobPortal/internal/database"
)

// SessionCookieName 是客户端保存会话令牌的 Cookie 名。
const SessionCookieName = "session_token"

const actorKey = "actor"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// SessionMiddleware 校验会话令牌，加载用户并将 Actor 注入上下文。
// 用户行已被管理员删除时会话同样失效。
func SessionMiddleware(sessions *auth.SessionService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractSessionToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		ctx := c.Request.Context()
		claims, err := sessions.Validate(ctx, token)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		var user database.User
		if err := db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
			abortUnauthorized(c)
			return
		}

		role, err := auth.ParseRole(user.Role)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(actorKey, auth.Actor{
			ID:       user.ID,
			Username: user.Username,
			Role:     role,
		})
		c.Set("sessionID", claims.ID)
		c.Next()
	}
}

// ActorFromContext 返回会话中间件解析出的 Actor。
func ActorFromContext(c *gin.Context) (auth.Actor, bool) {
	if value, ok := c.Get(actorKey); ok {
		if actor, ok := value.(auth.Actor); ok {
			return actor, true
		}
	}
	return auth.Actor{}, false
}

// SessionIDFromContext 返回当前请求的会话 ID。
func SessionIDFromContext(c *gin.Context) (string, bool) {
	if value, ok := c.Get("sessionID"); ok {
		if id, ok := value.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

func extractSessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
		return token
	}

	// 非浏览器客户端可以改用 Authorization 头。
	header := c.GetHeader("Authorization")
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
