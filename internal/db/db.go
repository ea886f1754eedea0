package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Models 返回需要自动迁移的全部模型，测试中也复用该列表。
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Post{},
		&ShareConfig{},
		&Invitation{},
	}
}

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 sikk.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "sikk.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	// 自动迁移模式，为核心模型创建表
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return err
	}

	// 早期版本的邀请邮箱可能含有大写字母，统一小写后才能命中唯一索引
	if err := gdb.Model(&Invitation{}).
		Where("email <> LOWER(email)").
		Update("email", gorm.Expr("LOWER(email)")).Error; err != nil {
		return err
	}

	DB = gdb
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
