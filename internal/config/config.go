package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	DatabasePath  string
	SessionSecret string
	GinMode       string
	SiteBaseURL   string
	CORSOrigins   []string
	LogLevel      string
	LogFormat     string
	AdminUserName string
	AdminEmail    string
	AdminPassword string
	Access        AccessConfig
}

// AccessConfig 是访问判定所需的显式配置，启动时构造后传入 resolver，
// 判定逻辑内部不再读取环境变量。
type AccessConfig struct {
	AdminEmails []string
}

// IsAdminEmail 判断邮箱是否属于管理员，比较时忽略大小写。
func (c AccessConfig) IsAdminEmail(email string) bool {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return false
	}
	for _, admin := range c.AdminEmails {
		if admin == normalized {
			return true
		}
	}
	return false
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 工作目录下存在 .env 时会先加载，已有环境变量不会被覆盖。
func Load() AppConfig {
	_ = godotenv.Load()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "sikk.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "sikk-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	siteBaseURL := strings.TrimSpace(os.Getenv("SITE_BASE_URL"))
	if siteBaseURL == "" {
		siteBaseURL = "http://localhost:3000"
	}

	corsOrigins := splitList(os.Getenv("CORS_ORIGINS"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{siteBaseURL}
	}

	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if logFormat == "" {
		logFormat = "json"
	}

	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminEmails := splitList(strings.ToLower(os.Getenv("ADMIN_EMAILS")))
	if adminEmail != "" && !contains(adminEmails, adminEmail) {
		adminEmails = append(adminEmails, adminEmail)
	}

	return AppConfig{
		ListenAddr:    listenAddr,
		Port:          port,
		DatabasePath:  databasePath,
		SessionSecret: sessionSecret,
		GinMode:       ginMode,
		SiteBaseURL:   siteBaseURL,
		CORSOrigins:   corsOrigins,
		LogLevel:      logLevel,
		LogFormat:     logFormat,
		AdminUserName: strings.TrimSpace(os.Getenv("ADMIN_USER_NAME")),
		AdminEmail:    adminEmail,
		AdminPassword: strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		Access:        AccessConfig{AdminEmails: adminEmails},
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, trimmed)
	}
	return values
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
