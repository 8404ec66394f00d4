package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobPortal/internal/auth"
	"jobPortal/internal/database"
)

type fakeStore struct {
	saved    map[string][]byte
	deleted  []string
	failSave bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string][]byte{}}
}

func (s *fakeStore) Save(_ context.Context, objectKey string, reader io.Reader, _ int64, _ string) error {
	if s.failSave {
		return errors.New("storage unavailable")
	}
	b, _ := io.ReadAll(reader)
	s.saved[objectKey] = b
	return nil
}

func (s *fakeStore) Open(_ context.Context, objectKey string) (io.ReadCloser, error) {
	b, ok := s.saved[objectKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fakeStore) Delete(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.saved, objectKey)
	return nil
}

type fakeSessionStore struct {
	sessions map[string]uint
	puts     int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]uint{}}
}

func (s *fakeSessionStore) Put(_ context.Context, sessionID string, userID uint, _ time.Duration) error {
	s.puts++
	s.sessions[sessionID] = userID
	return nil
}

func (s *fakeSessionStore) Exists(_ context.Context, sessionID string) (bool, error) {
	_, ok := s.sessions[sessionID]
	return ok, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	// 内存库的数据只属于单个连接。
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestSessions(t *testing.T, store auth.SessionStore) *auth.SessionService {
	t.Helper()
	sessions, err := auth.NewSessionService([]byte("test-secret"), time.Hour, store)
	if err != nil {
		t.Fatalf("new session service: %v", err)
	}
	return sessions
}

func seedUser(t *testing.T, db *gorm.DB, username string, role auth.Role) database.User {
	t.Helper()
	hashed, err := auth.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := database.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hashed,
		Role:         string(role),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}
	return user
}

func seedJob(t *testing.T, db *gorm.DB, employer database.User, title, location string) database.Job {
	t.Helper()
	job := database.Job{
		Title:       title,
		CompanyName: "Acme Corp",
		Description: "build things",
		Location:    location,
		PostedBy:    employer.ID,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job %q: %v", title, err)
	}
	return job
}

func actorFor(user database.User) auth.Actor {
	return auth.Actor{
		ID:       user.ID,
		Username: user.Username,
		Role:     auth.Role(user.Role),
	}
}

func setActor(c *gin.Context, user database.User) {
	c.Set("actor", actorFor(user))
}

func setParam(c *gin.Context, key string, id uint) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: strconv.FormatUint(uint64(id), 10)})
}

// newApplicationForm 构造 apply 的 multipart 表单；filename 为空时不附简历。
func newApplicationForm(t *testing.T, phone, coverLetter, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("phone", phone); err != nil {
		t.Fatalf("write phone: %v", err)
	}
	if coverLetter != "" {
		if err := writer.WriteField("cover_letter", coverLetter); err != nil {
			t.Fatalf("write cover letter: %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("resume", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
