package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/funcsikk/internal/config"
	"github.com/funcsikk/internal/db"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	core, logs := observer.New(zapcore.DebugLevel)
	r := SetupRouter(gdb, config.AppConfig{SessionSecret: "test-secret"}, zap.New(core))
	return r, logs
}

func TestSetupRouterPing(t *testing.T) {
	r, logs := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	if logs.FilterMessage("request completed").Len() != 0 {
		t.Fatal("ping must not be logged")
	}
}

func TestRequestLogDoesNotRecordShareTokens(t *testing.T) {
	r, logs := setupRouterTest(t)
	token := "Zm9vYmFyYmF6cXV4cXV1eA"

	req := httptest.NewRequest(http.MethodGet, "/api/share/posts/"+token, nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
	if got := rr.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request.route"] != "/api/share/posts/:token" {
		t.Fatalf("unexpected route field %v", fields["request.route"])
	}
	for key, value := range fields {
		if strings.Contains(fmt.Sprint(value), token) {
			t.Fatalf("field %s leaks the share token", key)
		}
	}
}

func TestAdminRoutesRejectAnonymous(t *testing.T) {
	r, _ := setupRouterTest(t)

	for _, path := range []string{"/api/admin/posts", "/api/admin/categories", "/api/admin/shares/posts/1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusUnauthorized, rr.Code)
		}
	}
}
