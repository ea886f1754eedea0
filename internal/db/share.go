package db

import (
	"time"

	"gorm.io/gorm"
)

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRevoked  = "revoked"
)

// ShareConfig 描述文章或分类的分享配置
// PostID 与 CategoryID 有且仅有一个非空，两者均为唯一索引以保证一对一
// PublicToken 全局唯一，PublicExpiresAt 为开区间上界（now >= expiresAt 即过期）
// IncludeSubcategories 仅对分类分享有意义
type ShareConfig struct {
	gorm.Model
	PostID               *uint     `gorm:"uniqueIndex"`
	Post                 *Post     `gorm:"foreignKey:PostID"`
	CategoryID           *uint     `gorm:"uniqueIndex"`
	Category             *Category `gorm:"foreignKey:CategoryID"`
	PublicEnabled        bool
	PublicToken          *string `gorm:"uniqueIndex"`
	PublicExpiresAt      *time.Time
	IncludeSubcategories bool
	Invitations          []Invitation `gorm:"foreignKey:ShareID;constraint:OnDelete:CASCADE"`
}

// Invitation 记录按邮箱发出的访问邀请
// ShareID + Email 采用唯一索引，重复邀请更新原记录；Email 统一存小写
type Invitation struct {
	gorm.Model
	ShareID    uint   `gorm:"not null;uniqueIndex:idx_invitation_share_email"`
	Email      string `gorm:"not null;uniqueIndex:idx_invitation_share_email"`
	Status     string `gorm:"not null;default:pending"`
	ExpiresAt  *time.Time
	UserID     *uint
	AcceptedAt *time.Time
}

// IsExpired 判断时间点 now 是否已越过 expiresAt，nil 表示永不过期。
func IsExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return !now.Before(*expiresAt)
}
