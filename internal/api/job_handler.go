package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobPortal/internal/auth"
	"jobPortal/internal/database"
	"jobPortal/internal/metrics"
)

// JobHandler 负责职位的浏览、筛选与发布。
type JobHandler struct {
	db *gorm.DB
}

// NewJobHandler 构造 JobHandler。
func NewJobHandler(db *gorm.DB) *JobHandler {
	return &JobHandler{db: db}
}

var errInvalidJobID = errors.New("invalid job id")

type jobResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	CompanyName string    `json:"company_name"`
	Description string    `json:"description"`
	Salary      string    `json:"salary,omitempty"`
	Location    string    `json:"location"`
	PostedBy    uint      `json:"posted_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func newJobResponse(job database.Job) jobResponse {
	return jobResponse{
		ID:          job.ID,
		Title:       job.Title,
		CompanyName: job.CompanyName,
		Description: job.Description,
		Salary:      job.Salary,
		Location:    job.Location,
		PostedBy:    job.PostedBy,
		CreatedAt:   job.CreatedAt,
	}
}

func newJobListResponse(jobs []database.Job) []jobResponse {
	out := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, newJobResponse(job))
	}
	return out
}

// listJobs 按可选的 location/keyword 子串过滤职位，两者都给定时取交集。
// LOWER LIKE 在 PostgreSQL 与 SQLite 上行为一致；按 id 升序保证插入序稳定。
func listJobs(db *gorm.DB, location, keyword string) ([]database.Job, error) {
	query := db.Model(&database.Job{})
	if location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(location)+"%")
	}
	if keyword != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(keyword)+"%")
	}

	var jobs []database.Job
	if err := query.Order("id ASC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListJobs 列出职位，支持 location 与 keyword 过滤。只读，无副作用。
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := listJobs(
		h.db.WithContext(c.Request.Context()),
		c.Query("location"),
		c.Query("keyword"),
	)
	if err != nil {
		Internal(c, "failed to list jobs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": newJobListResponse(jobs)})
}

// GetJob 返回单个职位详情。
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := parseUintParam(c, "job_id")
	if err != nil {
		BadRequest(c, errInvalidJobID.Error())
		return
	}

	var job database.Job
	if err := h.db.WithContext(c.Request.Context()).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to query job")
		return
	}
	c.JSON(http.StatusOK, newJobResponse(job))
}

// PostJobForm 在发布职位前确认当前身份有权发布。
func (h *JobHandler) PostJobForm(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if err := auth.Authorize(actor, auth.ActionPostJob); err != nil {
		Forbidden(c, "only employers can post jobs")
		return
	}
	c.Status(http.StatusNoContent)
}

type postJobRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	CompanyName string `json:"company_name" binding:"required,max=100"`
	Description string `json:"description" binding:"required"`
	Salary      string `json:"salary" binding:"max=50"`
	Location    string `json:"location" binding:"required,max=100"`
}

// PostJob 由雇主发布新职位。鉴权先于任何写入。
func (h *JobHandler) PostJob(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if err := auth.Authorize(actor, auth.ActionPostJob); err != nil {
		Forbidden(c, "only employers can post jobs")
		return
	}

	var req postJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFailed(c, err)
		return
	}

	job := database.Job{
		Title:       req.Title,
		CompanyName: req.CompanyName,
		Description: req.Description,
		Salary:      req.Salary,
		Location:    req.Location,
		PostedBy:    actor.ID,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&job).Error; err != nil {
		Internal(c, "failed to create job")
		return
	}

	metrics.JobPosted()
	c.JSON(http.StatusCreated, newJobResponse(job))
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(value), nil
}
