package api

import (
	"errors"
	"log/slog"
	"net/http"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobPortal/internal/api/middleware"
	"jobPortal/internal/auth"
	"jobPortal/internal/database"
)

// AuthHandler 处理注册、登录与退出。
type AuthHandler struct {
	db           *gorm.DB
	sessions     *auth.SessionService
	logger       *slog.Logger
	cookieDomain string
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(db *gorm.DB, sessions *auth.SessionService, logger *slog.Logger, cookieDomain string) *AuthHandler {
	return &AuthHandler{
		db:           db,
		sessions:     sessions,
		logger:       logger,
		cookieDomain: cookieDomain,
	}
}

// RegisterForm 返回注册表单可选的身份。
// admin 不能自助注册，只能通过 cmd/admin 创建。
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	roles := auth.SelfRegistrableRoles()
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	c.JSON(http.StatusOK, gin.H{"roles": out})
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=4,max=150"`
	Email    string `json:"email" binding:"required,email,max=150"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     string `json:"role" binding:"required"`
}

// Register 创建新用户账号；注册成功不会自动登录。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFailed(c, err)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.String("username", req.Username),
	)

	role, err := auth.ParseRole(req.Role)
	if err != nil || role == auth.RoleAdmin {
		ValidationFailed(c, "role")
		return
	}

	var existing database.User
	if err := h.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		logger.Info("register conflict: email already registered")
		Conflict(c, "email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("register lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	user := database.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         string(role),
	}

	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		// 唯一索引兜底：并发注册同一邮箱/用户名时预检查会漏。
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Info("register conflict on unique index")
			Conflict(c, "username or email already registered")
			return
		}
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", user.Role),
	)
	c.Status(http.StatusCreated)
}

// LoginForm 是登录表单探测端点，表单渲染由前端负责。
func (h *AuthHandler) LoginForm(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login 校验口令；成功后建立会话并通过 Cookie 下发令牌。
// 失败响应不区分用户名错误与密码错误。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFailed(c, err)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.String("username", req.Username),
	)

	var user database.User
	if err := h.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("login failed: user not found")
			Error(c, http.StatusUnauthorized, "invalid username or password")
			return
		}
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.Uint64("user_id", uint64(user.ID)))
		Error(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := h.sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("issue session failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.setSessionCookie(c, token)
	logger.Info("user logged in", slog.Uint64("user_id", uint64(user.ID)))
	c.JSON(http.StatusOK, loginResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
}

// Logout 吊销当前会话并清除 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	logger := h.loggerFromContext(c)

	sessionID, ok := middleware.SessionIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.sessions.Revoke(c.Request.Context(), sessionID); err != nil {
		logger.Error("revoke session failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	// 清除 Cookie。
	stdhttp.SetCookie(c.Writer, &stdhttp.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   h.isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: stdhttp.SameSiteLaxMode,
		Domain:   h.getCookieDomain(),
	})
	c.Status(http.StatusOK)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	maxAge := int(h.sessions.TTL().Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Hour.Seconds())
	}
	cookie := &stdhttp.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   h.isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: stdhttp.SameSiteLaxMode,
		Domain:   h.getCookieDomain(),
		Expires:  time.Now().Add(h.sessions.TTL()),
	}
	stdhttp.SetCookie(c.Writer, cookie)
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func (h *AuthHandler) isHTTPSRequest(c *gin.Context) bool {
	if c.Request == nil {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}

func (h *AuthHandler) getCookieDomain() string { return strings.TrimSpace(h.cookieDomain) }
