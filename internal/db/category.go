package db

import "gorm.io/gorm"

// Category 定义了分类模型，通过 ParentID 组成一棵树
// 同一父节点下名称唯一；Share 为可选的分类级分享配置，作用于整个子树
type Category struct {
	gorm.Model
	Name     string       `gorm:"not null;uniqueIndex:idx_category_parent_name"`
	Slug     string       `gorm:"not null;index"`
	ParentID *uint        `gorm:"index;uniqueIndex:idx_category_parent_name"`
	Parent   *Category    `gorm:"foreignKey:ParentID"`
	Share    *ShareConfig `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}
