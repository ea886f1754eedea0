package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了用户模型，Email 统一以小写存储，用于匹配邀请
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
}

// NormalizeEmail 去除首尾空白并转为小写。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureUser 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
// 用户名缺省时取邮箱的本地部分。
func EnsureUser(gdb *gorm.DB, username, email, password string) error {
	trimmedEmail := NormalizeEmail(email)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}

	trimmedUser := strings.TrimSpace(username)
	if trimmedUser == "" {
		trimmedUser, _, _ = strings.Cut(trimmedEmail, "@")
	}

	var existing User
	if err := gdb.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return gdb.Create(&User{Username: trimmedUser, Email: trimmedEmail, Password: string(hashed)}).Error
	}

	return nil
}
