package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobPortal/internal/api/middleware"
	"jobPortal/internal/auth"
	"jobPortal/internal/database"
	"jobPortal/internal/storage"
)

// AdminHandler 负责管理员的用户/职位管理操作。
type AdminHandler struct {
	db    *gorm.DB
	store storage.Store
}

// NewAdminHandler 构造 AdminHandler。
func NewAdminHandler(db *gorm.DB, store storage.Store) *AdminHandler {
	return &AdminHandler{db: db, store: store}
}

type adminUserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Dashboard 列出全部用户与职位。
func (h *AdminHandler) Dashboard(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if err := auth.Authorize(actor, auth.ActionViewAdminDashboard); err != nil {
		Forbidden(c, "admin access required")
		return
	}

	ctx := c.Request.Context()

	var users []database.User
	if err := h.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		Internal(c, "failed to query users")
		return
	}

	var jobs []database.Job
	if err := h.db.WithContext(ctx).Order("id ASC").Find(&jobs).Error; err != nil {
		Internal(c, "failed to query jobs")
		return
	}

	userList := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		userList = append(userList, adminUserResponse{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users": userList,
		"jobs":  newJobListResponse(jobs),
	})
}

// DeleteUser 删除用户并级联删除其职位与申请，整个级联在一个事务内完成。
// 事务提交后再尽力清理关联的简历对象。
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if err := auth.Authorize(actor, auth.ActionDeleteUser); err != nil {
		Forbidden(c, "admin access required")
		return
	}

	userID, err := parseUintParam(c, "user_id")
	if err != nil {
		BadRequest(c, "invalid user id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("target_user_id", uint64(userID)))

	var resumeKeys []string
	txErr := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user database.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}

		var ownedJobIDs []uint
		if err := tx.Model(&database.Job{}).
			Where("posted_by = ?", userID).
			Pluck("id", &ownedJobIDs).Error; err != nil {
			return err
		}

		if err := tx.Model(&database.Application{}).
			Where("user_id = ? OR job_id IN ?", userID, ownedJobIDs).
			Pluck("resume_key", &resumeKeys).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().
			Where("user_id = ? OR job_id IN ?", userID, ownedJobIDs).
			Delete(&database.Application{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("posted_by = ?", userID).Delete(&database.Job{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&user).Error
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			NotFound(c, "user not found")
			return
		}
		logger.Error("delete user failed", slog.Any("error", txErr))
		Internal(c, "failed to delete user")
		return
	}

	h.cleanupResumes(ctx, logger, resumeKeys)
	logger.Info("user deleted", slog.Int("removed_resumes", len(resumeKeys)))
	c.Status(http.StatusOK)
}

// DeleteJob 删除职位并级联删除其申请。
func (h *AdminHandler) DeleteJob(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if err := auth.Authorize(actor, auth.ActionDeleteJob); err != nil {
		Forbidden(c, "admin access required")
		return
	}

	jobID, err := parseUintParam(c, "job_id")
	if err != nil {
		BadRequest(c, errInvalidJobID.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("target_job_id", uint64(jobID)))

	var resumeKeys []string
	txErr := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job database.Job
		if err := tx.First(&job, jobID).Error; err != nil {
			return err
		}

		if err := tx.Model(&database.Application{}).
			Where("job_id = ?", jobID).
			Pluck("resume_key", &resumeKeys).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("job_id = ?", jobID).Delete(&database.Application{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&job).Error
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		logger.Error("delete job failed", slog.Any("error", txErr))
		Internal(c, "failed to delete job")
		return
	}

	h.cleanupResumes(ctx, logger, resumeKeys)
	logger.Info("job deleted", slog.Int("removed_resumes", len(resumeKeys)))
	c.Status(http.StatusOK)
}

// cleanupResumes 在级联事务提交后删除简历对象；失败只记录日志。
func (h *AdminHandler) cleanupResumes(ctx context.Context, logger *slog.Logger, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := h.store.Delete(ctx, key); err != nil {
			logger.Error("delete resume object failed",
				slog.String("object_key", key),
				slog.Any("error", err),
			)
		}
	}
}
