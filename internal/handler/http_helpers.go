package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/funcsikk/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// parseOptionalTime 解析 RFC3339 时间，空字符串返回 nil。
func parseOptionalTime(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// respondServiceError 将 service 层的哨兵错误映射为 HTTP 状态码。
func (a *API) respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrShareNotFound),
		errors.Is(err, service.ErrShareTargetNotFound),
		errors.Is(err, service.ErrInvitationNotFound):
		respondError(c, http.StatusNotFound, "资源不存在")
	case errors.Is(err, service.ErrPostExists),
		errors.Is(err, service.ErrCategoryExists),
		errors.Is(err, service.ErrCategoryHasChildren):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPostInvalid),
		errors.Is(err, service.ErrCategoryInvalid),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrShareTargetInvalid),
		errors.Is(err, service.ErrInvalidArgument):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
