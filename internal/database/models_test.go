package database

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

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
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestApplicationUniqueIndexClosesDuplicateRace(t *testing.T) {
	db := newTestDB(t)

	user := User{Username: "sam", Email: "sam@example.com", PasswordHash: "h", Role: "seeker"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	job := Job{Title: "Backend Engineer", CompanyName: "Acme", Description: "d", Location: "Remote", PostedBy: user.ID}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}

	first := Application{UserID: user.ID, JobID: job.ID, Phone: "1234567890", ResumeKey: "k1"}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("first application: %v", err)
	}

	// 预检查被绕过时，唯一索引仍要拒绝第二条记录。
	second := Application{UserID: user.ID, JobID: job.ID, Phone: "1234567890", ResumeKey: "k2"}
	err := db.Create(&second).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey got %v", err)
	}

	var count int64
	if err := db.Model(&Application{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 application got %d", count)
	}
}

func TestUserUniqueEmailAndUsername(t *testing.T) {
	db := newTestDB(t)

	if err := db.Create(&User{Username: "sam", Email: "sam@example.com", PasswordHash: "h", Role: "seeker"}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	dupEmail := db.Create(&User{Username: "other", Email: "sam@example.com", PasswordHash: "h", Role: "seeker"}).Error
	if !errors.Is(dupEmail, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate email: expected gorm.ErrDuplicatedKey got %v", dupEmail)
	}

	dupUsername := db.Create(&User{Username: "sam", Email: "new@example.com", PasswordHash: "h", Role: "seeker"}).Error
	if !errors.Is(dupUsername, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate username: expected gorm.ErrDuplicatedKey got %v", dupUsername)
	}
}

func TestDifferentSeekersMayApplyToSameJob(t *testing.T) {
	db := newTestDB(t)

	a := User{Username: "a", Email: "a@example.com", PasswordHash: "h", Role: "seeker"}
	b := User{Username: "b", Email: "b@example.com", PasswordHash: "h", Role: "seeker"}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("create b: %v", err)
	}
	job := Job{Title: "Backend Engineer", CompanyName: "Acme", Description: "d", Location: "Remote", PostedBy: 1}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := db.Create(&Application{UserID: a.ID, JobID: job.ID, Phone: "1234567890"}).Error; err != nil {
		t.Fatalf("a applies: %v", err)
	}
	if err := db.Create(&Application{UserID: b.ID, JobID: job.ID, Phone: "1234567890"}).Error; err != nil {
		t.Fatalf("b applies: %v", err)
	}
}
