package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"jobPortal/internal/auth"
	"jobPortal/internal/database"
)

func listJobTitles(t *testing.T, router *gin.Engine, path string) []string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Jobs []jobResponse `json:"jobs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	titles := make([]string, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		titles = append(titles, job.Title)
	}
	return titles
}

func TestListJobs_Filters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	employer := seedUser(t, db, "acme", auth.RoleEmployer)
	seedJob(t, db, employer, "Backend Engineer", "Remote")
	seedJob(t, db, employer, "Frontend Engineer", "Berlin")
	seedJob(t, db, employer, "Chef", "remote kitchen")

	router := gin.New()
	router.GET("/jobs", NewJobHandler(db).ListJobs)

	cases := []struct {
		name string
		path string
		want []string
	}{
		{"no filters returns all in insertion order", "/jobs",
			[]string{"Backend Engineer", "Frontend Engineer", "Chef"}},
		{"location is case-insensitive substring", "/jobs?location=Remote",
			[]string{"Backend Engineer", "Chef"}},
		{"keyword matches title substring", "/jobs?keyword=engineer",
			[]string{"Backend Engineer", "Frontend Engineer"}},
		{"both filters are ANDed", "/jobs?location=remote&keyword=engineer",
			[]string{"Backend Engineer"}},
		{"no match yields empty list", "/jobs?location=moon",
			[]string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := listJobTitles(t, router, tc.path)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v want %v", got, tc.want)
				}
			}
		})
	}
}

func TestListJobs_Idempotent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	employer := seedUser(t, db, "acme", auth.RoleEmployer)
	seedJob(t, db, employer, "Backend Engineer", "Remote")

	router := gin.New()
	router.GET("/jobs", NewJobHandler(db).ListJobs)

	first := listJobTitles(t, router, "/jobs")
	second := listJobTitles(t, router, "/jobs")
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("repeated reads differ: %v vs %v", first, second)
	}
}

func TestPostJob_ForbiddenForSeeker(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	seeker := seedUser(t, db, "sam", auth.RoleSeeker)
	h := NewJobHandler(db)

	body, _ := json.Marshal(gin.H{
		"title":        "Backend Engineer",
		"company_name": "Acme Corp",
		"description":  "build things",
		"location":     "Remote",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/post-job", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	setActor(c, seeker)

	h.PostJob(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
	if got := countRows(t, db, &database.Job{}); got != 0 {
		t.Fatalf("forbidden post must create no job, got %d", got)
	}
}

func TestPostJob_ValidationListsFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	employer := seedUser(t, db, "acme", auth.RoleEmployer)
	h := NewJobHandler(db)

	body, _ := json.Marshal(gin.H{
		"title":        strings.Repeat("x", 101),
		"company_name": "Acme Corp",
		"description":  "build things",
		"location":     "",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/post-job", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	setActor(c, employer)

	h.PostJob(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Fields []string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Fields) != 2 {
		t.Fatalf("expected 2 violated fields got %v", resp.Fields)
	}
	if got := countRows(t, db, &database.Job{}); got != 0 {
		t.Fatalf("invalid post must create no job, got %d", got)
	}
}

func TestPostJob_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	employer := seedUser(t, db, "acme", auth.RoleEmployer)
	h := NewJobHandler(db)

	body, _ := json.Marshal(gin.H{
		"title":        "Backend Engineer",
		"company_name": "Acme Corp",
		"description":  "build things",
		"salary":       "100k",
		"location":     "Remote",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/post-job", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	setActor(c, employer)

	h.PostJob(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var job database.Job
	if err := db.First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.PostedBy != employer.ID {
		t.Fatalf("job owner %d, expected %d", job.PostedBy, employer.ID)
	}
}
