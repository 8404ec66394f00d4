package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobPortal/internal/auth"
	"jobPortal/internal/database"
)

// DashboardHandler 根据身份分流仪表盘数据。
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler 构造 DashboardHandler。
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// Dashboard 按角色返回数据：
// 雇主看到自己发布的职位；求职者看到全部职位、自己的申请与已申请集合；
// 管理员重定向到 /admin。
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	switch actor.Role {
	case auth.RoleEmployer:
		var jobs []database.Job
		if err := h.db.WithContext(ctx).
			Where("posted_by = ?", actor.ID).
			Order("id ASC").
			Find(&jobs).Error; err != nil {
			Internal(c, "failed to query jobs")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"role": string(actor.Role),
			"jobs": newJobListResponse(jobs),
		})

	case auth.RoleSeeker:
		var jobs []database.Job
		if err := h.db.WithContext(ctx).Order("id ASC").Find(&jobs).Error; err != nil {
			Internal(c, "failed to query jobs")
			return
		}

		var applications []database.Application
		if err := h.db.WithContext(ctx).
			Where("user_id = ?", actor.ID).
			Order("id ASC").
			Find(&applications).Error; err != nil {
			Internal(c, "failed to query applications")
			return
		}

		appliedJobIDs := make([]uint, 0, len(applications))
		apps := make([]applicationResponse, 0, len(applications))
		for _, app := range applications {
			appliedJobIDs = append(appliedJobIDs, app.JobID)
			apps = append(apps, newApplicationResponse(app))
		}

		c.JSON(http.StatusOK, gin.H{
			"role":            string(actor.Role),
			"jobs":            newJobListResponse(jobs),
			"applications":    apps,
			"applied_job_ids": appliedJobIDs,
		})

	case auth.RoleAdmin:
		c.Redirect(http.StatusFound, "/admin")

	default:
		Forbidden(c, "unknown role")
	}
}
