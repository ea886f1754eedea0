package handler

import (
	"strings"

	"github.com/funcsikk/internal/config"
	"github.com/funcsikk/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	posts      *service.PostService
	categories *service.CategoryService
	shares     *service.ShareService
	resolver   *service.AccessResolver
	access     config.AccessConfig
	baseURL    string
	logger     *zap.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &API{
		db:         gdb,
		posts:      service.NewPostService(gdb),
		categories: service.NewCategoryService(gdb),
		shares:     service.NewShareService(gdb),
		resolver: service.NewAccessResolver(
			service.NewGormContentStore(gdb),
			cfg.Access,
			service.WithLogger(logger.Named("access")),
		),
		access:  cfg.Access,
		baseURL: strings.TrimRight(cfg.SiteBaseURL, "/"),
		logger:  logger,
	}
}
