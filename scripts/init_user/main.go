package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/funcsikk/internal/config"
	"github.com/funcsikk/internal/db"
)

// 为受邀读者创建登录账号，已存在的邮箱不会被修改
func main() {
	cfg := config.Load()

	var (
		dbPath   string
		username string
		email    string
		password string
	)
	flag.StringVar(&dbPath, "db", cfg.DatabasePath, "sqlite db path")
	flag.StringVar(&username, "name", "", "display name, defaults to the email local part")
	flag.StringVar(&email, "email", "", "login email")
	flag.StringVar(&password, "password", "", "initial password")
	flag.Parse()

	if email == "" || password == "" {
		flag.Usage()
		os.Exit(2)
	}

	// 初始化数据库
	if err := db.Init(dbPath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	if err := db.EnsureUser(db.DB, username, email, password); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	fmt.Println("用户已就绪:", db.NormalizeEmail(email))
	if cfg.Access.IsAdminEmail(email) {
		fmt.Println("该邮箱在 ADMIN_EMAILS 中，拥有管理员权限")
	}
}
