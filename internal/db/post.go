package db

import (
	"strings"

	"gorm.io/gorm"
)

// Post 定义了 Sikk 笔记模型
// Category 使用 '/' 分隔的分类名路径，例如 "CTF/Web"
// IsPublic 为早期的公开开关，仅在没有任何分享配置时生效
type Post struct {
	gorm.Model
	Slug     string `gorm:"uniqueIndex;not null"`
	Title    string `gorm:"not null"`
	Content  string
	Category string `gorm:"index"`
	IsPublic bool
	UserID   uint
	Share    *ShareConfig `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// CategorySegments 将分类路径拆分为从根到叶的分类名列表，忽略空段。
func (p Post) CategorySegments() []string {
	return SplitCategoryPath(p.Category)
}

// SplitCategoryPath 拆分 '/' 分隔的分类路径。
func SplitCategoryPath(path string) []string {
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, segment := range raw {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			continue
		}
		segments = append(segments, trimmed)
	}
	return segments
}

// JoinCategoryPath 为 SplitCategoryPath 的逆操作。
func JoinCategoryPath(segments []string) string {
	return strings.Join(segments, "/")
}
