package main

import (
	"context"
	"testing"
	"time"

	"github.com/funcsikk/internal/config"
	"github.com/funcsikk/internal/db"
	"github.com/funcsikk/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file:sikk-seed-"+time.Now().Format("150405.000000000")+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestSeedDemoIsRepeatable(t *testing.T) {
	gdb := setupSeedTestDB(t)

	first, err := seedDemo(gdb, "reader@example.com")
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	second, err := seedDemo(gdb, "reader@example.com")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable category token, got %q then %q", first, second)
	}

	var posts, categories, invitations int64
	gdb.Model(&db.Post{}).Count(&posts)
	gdb.Model(&db.Category{}).Count(&categories)
	gdb.Model(&db.Invitation{}).Count(&invitations)
	if posts != int64(len(demoPosts)) || categories != 4 || invitations != 1 {
		t.Fatalf("unexpected counts posts=%d categories=%d invitations=%d", posts, categories, invitations)
	}
}

func TestSeedDemoGrantsMatchResolver(t *testing.T) {
	gdb := setupSeedTestDB(t)

	token, err := seedDemo(gdb, "reader@example.com")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resolver := service.NewAccessResolver(service.NewGormContentStore(gdb), config.AccessConfig{})
	ctx := context.Background()

	result, err := resolver.ResolvePostAccess(ctx, "xss-basics", service.Anonymous{}, token)
	if err != nil || !result.Allowed {
		t.Fatalf("category token should open CTF/Web notes: %+v %v", result, err)
	}

	result, err = resolver.ResolvePostAccess(ctx, "hello-sikk", service.Anonymous{}, "")
	if err != nil || !result.Allowed {
		t.Fatalf("legacy public note should be readable: %+v %v", result, err)
	}

	result, err = resolver.ResolvePostAccess(ctx, "diary-draft", service.Authenticated{UserID: 9, Email: "reader@example.com"}, "")
	if err != nil || result.Allowed || result.Reason != service.ReasonNotInvited {
		t.Fatalf("private note must stay closed: %+v %v", result, err)
	}
}
