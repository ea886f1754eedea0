package router

import (
	"net/http"

	"github.com/funcsikk/internal/config"
	"github.com/funcsikk/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, cfg config.AppConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(handler.RequestLogger(logger.Named("http")), gin.Recovery())

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("sikk_session", store))

	api := handler.NewAPI(gdb, cfg, logger)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	public := r.Group("/api")
	{
		public.POST("/auth/login", api.Login)
		public.POST("/auth/logout", api.Logout)
		public.GET("/auth/me", api.AuthRequired(), api.Me)

		public.GET("/sikk/posts/:slug", api.GetSikkPost)
		public.GET("/share/posts/:token", api.GetSharedPost)
		public.GET("/share/categories/:token", api.GetSharedCategory)
	}

	// 后台管理路由
	admin := r.Group("/api/admin")
	admin.Use(api.AdminRequired())
	{
		admin.GET("/posts", api.ListPosts)
		admin.GET("/posts/:id", api.GetPost)
		admin.POST("/posts", api.CreatePost)
		admin.PUT("/posts/:id", api.UpdatePost)
		admin.DELETE("/posts/:id", api.DeletePost)

		admin.GET("/categories", api.ListCategories)
		admin.POST("/categories", api.CreateCategory)
		admin.DELETE("/categories/:id", api.DeleteCategory)

		admin.GET("/shares/:kind/:id", api.GetShare)
		admin.PUT("/shares/:kind/:id", api.UpdatePublicLink)
		admin.DELETE("/shares/:kind/:id", api.DeleteShare)
		admin.POST("/shares/:kind/:id/token", api.RegenerateShareToken)
		admin.GET("/shares/:kind/:id/invitations", api.ListInvitations)
		admin.POST("/shares/:kind/:id/invitations", api.CreateInvitation)

		admin.POST("/invitations/:id/revoke", api.RevokeInvitation)
		admin.DELETE("/invitations/:id", api.DeleteInvitation)
	}

	return r
}
