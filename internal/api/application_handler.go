package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobPortal/internal/api/middleware"
	"jobPortal/internal/auth"
	"jobPortal/internal/database"
	"jobPortal/internal/metrics"
	"jobPortal/internal/storage"
)

const (
	phoneMinLen = 10
	phoneMaxLen = 20

	resumeContentType = "application/pdf"
)

// ApplicationHandler 负责申请流程：每个 (求职者, 职位) 至多一次申请。
type ApplicationHandler struct {
	db    *gorm.DB
	store storage.Store
}

// NewApplicationHandler 构造 ApplicationHandler。
func NewApplicationHandler(db *gorm.DB, store storage.Store) *ApplicationHandler {
	return &ApplicationHandler{db: db, store: store}
}

type applicationResponse struct {
	ID             uint      `json:"id"`
	JobID          uint      `json:"job_id"`
	Phone          string    `json:"phone"`
	CoverLetter    string    `json:"cover_letter,omitempty"`
	ResumeFilename string    `json:"resume_filename"`
	CreatedAt      time.Time `json:"created_at"`
}

func newApplicationResponse(app database.Application) applicationResponse {
	return applicationResponse{
		ID:             app.ID,
		JobID:          app.JobID,
		Phone:          app.Phone,
		CoverLetter:    app.CoverLetter,
		ResumeFilename: app.ResumeFilename,
		CreatedAt:      app.CreatedAt,
	}
}

// ApplyForm 返回申请页所需的数据：职位详情与是否已申请。
func (h *ApplicationHandler) ApplyForm(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if err := auth.Authorize(actor, auth.ActionApplyToJob); err != nil {
		Forbidden(c, "only job seekers can apply")
		return
	}

	jobID, err := parseUintParam(c, "job_id")
	if err != nil {
		BadRequest(c, errInvalidJobID.Error())
		return
	}

	ctx := c.Request.Context()
	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to query job")
		return
	}

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.Application{}).
		Where("user_id = ? AND job_id = ?", actor.ID, job.ID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to query applications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job":             newJobResponse(job),
		"already_applied": count > 0,
	})
}

// Apply 提交一份申请。
// 检查顺序：鉴权 → 重复申请预检查 → 字段校验 → 扩展名校验；
// 全部通过后先写简历文件，再落库申请记录，保证 resume_key 总是指向已存在的对象。
// 并发下重复申请由 (user_id, job_id) 唯一索引兜底，落库失败时回收已写入的文件。
func (h *ApplicationHandler) Apply(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if err := auth.Authorize(actor, auth.ActionApplyToJob); err != nil {
		Forbidden(c, "only job seekers can apply")
		return
	}

	jobID, err := parseUintParam(c, "job_id")
	if err != nil {
		BadRequest(c, errInvalidJobID.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(
		slog.Uint64("user_id", uint64(actor.ID)),
		slog.Uint64("job_id", uint64(jobID)),
	)

	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to query job")
		return
	}

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.Application{}).
		Where("user_id = ? AND job_id = ?", actor.ID, job.ID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to query applications")
		return
	}
	if count > 0 {
		Conflict(c, "already applied to this job")
		return
	}

	phone := strings.TrimSpace(c.PostForm("phone"))
	coverLetter := c.PostForm("cover_letter")
	file, fileErr := c.FormFile("resume")

	var invalid []string
	if len(phone) < phoneMinLen || len(phone) > phoneMaxLen {
		invalid = append(invalid, "phone")
	}
	if fileErr != nil || file == nil {
		invalid = append(invalid, "resume")
	}
	if len(invalid) > 0 {
		ValidationFailed(c, invalid...)
		return
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		UnsupportedMedia(c, "only PDF resumes are accepted")
		return
	}

	reader, err := file.Open()
	if err != nil {
		logger.Error("open resume upload failed", slog.Any("error", err))
		Internal(c, "failed to read resume")
		return
	}
	defer reader.Close()

	// 存储名使用 uuid，原始文件名单独保存，避免覆盖与路径穿越。
	objectKey := fmt.Sprintf("resumes/%d/%d/%s.pdf", actor.ID, job.ID, uuid.NewString())
	if err := h.store.Save(ctx, objectKey, reader, file.Size, resumeContentType); err != nil {
		logger.Error("store resume failed", slog.Any("error", err))
		Internal(c, "failed to store resume")
		return
	}

	application := database.Application{
		UserID:         actor.ID,
		JobID:          job.ID,
		Phone:          phone,
		CoverLetter:    coverLetter,
		ResumeKey:      objectKey,
		ResumeFilename: filepath.Base(file.Filename),
	}

	if err := h.db.WithContext(ctx).Create(&application).Error; err != nil {
		if removeErr := h.store.Delete(ctx, objectKey); removeErr != nil {
			logger.Error("cleanup resume after failed create", slog.Any("error", removeErr))
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发提交输掉唯一索引竞争的一方走到这里。
			logger.Info("duplicate application rejected by unique index")
			Conflict(c, "already applied to this job")
			return
		}
		logger.Error("create application failed", slog.Any("error", err))
		Internal(c, "failed to create application")
		return
	}

	metrics.ApplicationSubmitted()
	logger.Info("application submitted", slog.Uint64("application_id", uint64(application.ID)))
	c.JSON(http.StatusCreated, newApplicationResponse(application))
}

// DownloadResume 返回申请人自己（或管理员）可见的简历文件。
func (h *ApplicationHandler) DownloadResume(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	applicationID, err := parseUintParam(c, "application_id")
	if err != nil {
		BadRequest(c, "invalid application id")
		return
	}

	ctx := c.Request.Context()
	var application database.Application
	if err := h.db.WithContext(ctx).First(&application, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "application not found")
			return
		}
		Internal(c, "failed to query application")
		return
	}

	if application.UserID != actor.ID && actor.Role != auth.RoleAdmin {
		Forbidden(c, "access denied")
		return
	}

	obj, err := h.store.Open(ctx, application.ResumeKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			NotFound(c, "resume not found")
			return
		}
		Internal(c, "failed to open resume")
		return
	}
	defer obj.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", application.ResumeFilename))
	c.DataFromReader(http.StatusOK, -1, resumeContentType, obj, nil)
}
