package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/funcsikk/internal/db"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gorm.io/gorm"
)

var (
	ErrShareNotFound       = errors.New("share settings not found")
	ErrShareTargetNotFound = errors.New("share target not found")
	ErrShareTargetInvalid  = errors.New("invalid share target")
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrInvalidEmail        = errors.New("invalid email")
)

const maxTokenAttempts = 5

// ShareTargetKind 区分文章分享与分类分享。
type ShareTargetKind string

const (
	ShareTargetPost     ShareTargetKind = "post"
	ShareTargetCategory ShareTargetKind = "category"
)

// ShareTarget 指向分享配置的所属对象。
type ShareTarget struct {
	Kind ShareTargetKind
	ID   uint
}

// PostTarget 构造文章分享目标。
func PostTarget(id uint) ShareTarget {
	return ShareTarget{Kind: ShareTargetPost, ID: id}
}

// CategoryTarget 构造分类分享目标。
func CategoryTarget(id uint) ShareTarget {
	return ShareTarget{Kind: ShareTargetCategory, ID: id}
}

// InviteInput 描述一次邀请。
type InviteInput struct {
	Email     string
	ExpiresAt *time.Time
}

// ShareService 负责分享配置与邀请的后台写操作
// 分享配置在第一次写入时创建，关闭分享时整体删除
type ShareService struct {
	db *gorm.DB
}

// NewShareService creates a ShareService instance.
func NewShareService(gdb *gorm.DB) *ShareService {
	return &ShareService{db: gdb}
}

// Get 返回目标当前的分享配置及邀请列表。
func (s *ShareService) Get(target ShareTarget) (*db.ShareConfig, error) {
	if err := s.ensureTarget(s.db, target); err != nil {
		return nil, err
	}

	var share db.ShareConfig
	if err := s.scoped(s.db, target).Preload("Invitations", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at asc")
	}).First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("get share: %w", err)
	}
	return &share, nil
}

// EnablePublicLink 打开公开链接，必要时生成 token；expiresAt 为 nil 表示永不过期。
func (s *ShareService) EnablePublicLink(target ShareTarget, expiresAt *time.Time) (*db.ShareConfig, error) {
	enabled := true
	return s.UpdatePublicLink(target, PublicLinkInput{Enabled: &enabled, ExpiresAt: expiresAt})
}

// RegenerateToken 替换公开 token，旧链接立即失效。
func (s *ShareService) RegenerateToken(target ShareTarget) (*db.ShareConfig, error) {
	var share *db.ShareConfig
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		share, err = s.findOrCreate(tx, target)
		if err != nil {
			return err
		}

		token, err := s.uniqueToken(tx)
		if err != nil {
			return err
		}
		share.PublicToken = &token

		if err := tx.Save(share).Error; err != nil {
			return fmt.Errorf("regenerate token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// DisablePublicLink 关闭公开链接但保留邀请。
func (s *ShareService) DisablePublicLink(target ShareTarget) (*db.ShareConfig, error) {
	enabled := false
	return s.UpdatePublicLink(target, PublicLinkInput{Enabled: &enabled})
}

// SetIncludeSubcategories 设置分类分享是否覆盖子分类，分类尚无分享配置时返回 ErrShareNotFound。
func (s *ShareService) SetIncludeSubcategories(categoryID uint, include bool) (*db.ShareConfig, error) {
	return s.UpdatePublicLink(CategoryTarget(categoryID), PublicLinkInput{IncludeSubcategories: &include})
}

// PublicLinkInput 描述一次公开链接设置，nil 字段保持原值。
type PublicLinkInput struct {
	Enabled              *bool
	ExpiresAt            *time.Time
	IncludeSubcategories *bool
}

// UpdatePublicLink 在同一事务内更新公开链接开关、过期时间和子分类范围。
// 只有开启链接才会创建分享配置；目标尚未配置分享时，其余请求返回 ErrShareNotFound 且不落库。
func (s *ShareService) UpdatePublicLink(target ShareTarget, input PublicLinkInput) (*db.ShareConfig, error) {
	if input.IncludeSubcategories != nil && target.Kind != ShareTargetCategory {
		return nil, fmt.Errorf("%w: only category shares cover subcategories", ErrShareTargetInvalid)
	}
	enable := input.Enabled != nil && *input.Enabled

	var share *db.ShareConfig
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if enable {
			share, err = s.findOrCreate(tx, target)
		} else {
			share, err = s.find(tx, target)
		}
		if err != nil {
			return err
		}

		if input.Enabled != nil {
			share.PublicEnabled = enable
			if enable {
				if share.PublicToken == nil {
					token, err := s.uniqueToken(tx)
					if err != nil {
						return err
					}
					share.PublicToken = &token
				}
				share.PublicExpiresAt = input.ExpiresAt
			}
		}
		if input.IncludeSubcategories != nil {
			share.IncludeSubcategories = *input.IncludeSubcategories
		}

		if err := tx.Save(share).Error; err != nil {
			return fmt.Errorf("update public link: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// DisableSharing 删除分享配置及其全部邀请。
func (s *ShareService) DisableSharing(target ShareTarget) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		share, err := s.find(tx, target)
		if err != nil {
			return err
		}
		return deleteShare(tx, share.ID)
	})
}

// Invite 按邮箱邀请；同一邮箱重复邀请会更新原记录，已撤销的邀请重新变为 pending。
func (s *ShareService) Invite(target ShareTarget, input InviteInput) (*db.Invitation, error) {
	email := db.NormalizeEmail(input.Email)
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	var invitation db.Invitation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		share, err := s.findOrCreate(tx, target)
		if err != nil {
			return err
		}

		err = tx.Where("share_id = ? AND email = ?", share.ID, email).First(&invitation).Error
		switch {
		case err == nil:
			invitation.ExpiresAt = input.ExpiresAt
			if invitation.Status == db.InvitationRevoked {
				invitation.Status = db.InvitationPending
				invitation.AcceptedAt = nil
				invitation.UserID = nil
			}
			return tx.Save(&invitation).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			invitation = db.Invitation{
				ShareID:   share.ID,
				Email:     email,
				Status:    db.InvitationPending,
				ExpiresAt: input.ExpiresAt,
			}
			return tx.Create(&invitation).Error
		default:
			return fmt.Errorf("find invitation: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListInvitations 返回目标下的所有邀请。
func (s *ShareService) ListInvitations(target ShareTarget) ([]db.Invitation, error) {
	share, err := s.Get(target)
	if err != nil {
		if errors.Is(err, ErrShareNotFound) {
			return []db.Invitation{}, nil
		}
		return nil, err
	}
	return share.Invitations, nil
}

// RevokeInvitation 撤销邀请，撤销为终态，只能通过重新邀请恢复。
func (s *ShareService) RevokeInvitation(id uint) (*db.Invitation, error) {
	var invitation db.Invitation
	if err := s.db.First(&invitation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}

	invitation.Status = db.InvitationRevoked
	if err := s.db.Model(&invitation).Update("status", db.InvitationRevoked).Error; err != nil {
		return nil, fmt.Errorf("revoke invitation: %w", err)
	}
	return &invitation, nil
}

// DeleteInvitation 物理删除邀请。
func (s *ShareService) DeleteInvitation(id uint) error {
	result := s.db.Unscoped().Delete(&db.Invitation{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete invitation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

func (s *ShareService) scoped(tx *gorm.DB, target ShareTarget) *gorm.DB {
	if target.Kind == ShareTargetCategory {
		return tx.Where("category_id = ?", target.ID)
	}
	return tx.Where("post_id = ?", target.ID)
}

func (s *ShareService) ensureTarget(tx *gorm.DB, target ShareTarget) error {
	var model interface{}
	switch target.Kind {
	case ShareTargetPost:
		model = &db.Post{}
	case ShareTargetCategory:
		model = &db.Category{}
	default:
		return ErrShareTargetInvalid
	}
	if target.ID == 0 {
		return ErrShareTargetInvalid
	}

	var count int64
	if err := tx.Model(model).Where("id = ?", target.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("check share target: %w", err)
	}
	if count == 0 {
		return ErrShareTargetNotFound
	}
	return nil
}

func (s *ShareService) find(tx *gorm.DB, target ShareTarget) (*db.ShareConfig, error) {
	if err := s.ensureTarget(tx, target); err != nil {
		return nil, err
	}

	var share db.ShareConfig
	if err := s.scoped(tx, target).First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("find share: %w", err)
	}
	return &share, nil
}

func (s *ShareService) findOrCreate(tx *gorm.DB, target ShareTarget) (*db.ShareConfig, error) {
	if err := s.ensureTarget(tx, target); err != nil {
		return nil, err
	}

	var share db.ShareConfig
	err := s.scoped(tx, target).First(&share).Error
	if err == nil {
		return &share, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find share: %w", err)
	}

	id := target.ID
	if target.Kind == ShareTargetCategory {
		share.CategoryID = &id
	} else {
		share.PostID = &id
	}
	if err := tx.Create(&share).Error; err != nil {
		return nil, fmt.Errorf("create share: %w", err)
	}
	return &share, nil
}

func (s *ShareService) uniqueToken(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := GenerateShareToken()
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.Model(&db.ShareConfig{}).Unscoped().Where("public_token = ?", token).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check token: %w", err)
		}
		if count == 0 {
			return token, nil
		}
	}
	return "", errors.New("could not generate a unique share token")
}

// deleteShare 物理删除分享配置及其邀请，避免软删除占用唯一索引。
func deleteShare(tx *gorm.DB, shareID uint) error {
	if err := tx.Unscoped().Where("share_id = ?", shareID).Delete(&db.Invitation{}).Error; err != nil {
		return fmt.Errorf("delete invitations: %w", err)
	}
	if err := tx.Unscoped().Delete(&db.ShareConfig{}, shareID).Error; err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	return nil
}
