package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/funcsikk/internal/db"
	"gorm.io/gorm"
)

// ErrContentNotFound 由 ContentStore 在记录不存在时返回。
var ErrContentNotFound = errors.New("content not found")

// maxCategoryDepth 限制向上遍历父分类的层数，防止脏数据形成环。
const maxCategoryDepth = 32

// ContentStore 是 resolver 依赖的读接口，外加唯一的邀请接受写操作。
type ContentStore interface {
	// FindPostBySlug 返回文章及其分享配置和邀请列表。
	FindPostBySlug(ctx context.Context, slug string) (*db.Post, error)
	// FindCategoryChain 按名称从根到叶解析分类链，遇到缺失的段即停止。
	FindCategoryChain(ctx context.Context, segments []string) ([]db.Category, error)
	// FindShareByToken 按 token 精确查找分享配置，并带出所属文章或分类。
	FindShareByToken(ctx context.Context, token string) (*db.ShareConfig, error)
	// CategoryPath 返回从根到 categoryID 的分类链。
	CategoryPath(ctx context.Context, categoryID uint) ([]db.Category, error)
	// AcceptInvitation 仅在邀请仍为 pending 时更新为 accepted。
	AcceptInvitation(ctx context.Context, invitationID, userID uint, at time.Time) error
}

// GormContentStore 是基于 gorm 的 ContentStore 实现。
type GormContentStore struct {
	db *gorm.DB
}

// NewGormContentStore 构造 GormContentStore。
func NewGormContentStore(gdb *gorm.DB) *GormContentStore {
	return &GormContentStore{db: gdb}
}

// FindPostBySlug 按 slug 查找文章，并预加载分享配置和邀请。
func (s *GormContentStore) FindPostBySlug(ctx context.Context, slug string) (*db.Post, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).
		Preload("Share.Invitations").
		Where("slug = ?", slug).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("find post %q: %w", slug, err)
	}
	return &post, nil
}

// FindCategoryChain 按名称逐级查找分类链，遇到不存在的段即停止。
func (s *GormContentStore) FindCategoryChain(ctx context.Context, segments []string) ([]db.Category, error) {
	chain := make([]db.Category, 0, len(segments))
	var parentID *uint
	for _, name := range segments {
		query := s.db.WithContext(ctx).Preload("Share.Invitations").Where("name = ?", name)
		if parentID == nil {
			query = query.Where("parent_id IS NULL")
		} else {
			query = query.Where("parent_id = ?", *parentID)
		}

		var category db.Category
		if err := query.First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, fmt.Errorf("find category %q: %w", name, err)
		}

		chain = append(chain, category)
		id := category.ID
		parentID = &id
	}
	return chain, nil
}

// FindShareByToken 按公开 token 查找分享配置及其所属文章或分类。
func (s *GormContentStore) FindShareByToken(ctx context.Context, token string) (*db.ShareConfig, error) {
	var share db.ShareConfig
	if err := s.db.WithContext(ctx).
		Preload("Post").
		Preload("Category").
		Where("public_token = ?", token).
		First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("find share by token: %w", err)
	}
	return &share, nil
}

// CategoryPath 返回分类从根到自身的链。
func (s *GormContentStore) CategoryPath(ctx context.Context, categoryID uint) ([]db.Category, error) {
	var reversed []db.Category
	nextID := &categoryID
	for depth := 0; nextID != nil; depth++ {
		if depth >= maxCategoryDepth {
			return nil, fmt.Errorf("category %d: parent chain exceeds %d levels", categoryID, maxCategoryDepth)
		}

		var category db.Category
		if err := s.db.WithContext(ctx).First(&category, *nextID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrContentNotFound
			}
			return nil, fmt.Errorf("find category %d: %w", *nextID, err)
		}
		reversed = append(reversed, category)
		nextID = category.ParentID
	}

	path := make([]db.Category, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path, nil
}

// AcceptInvitation 将 pending 邀请标记为已接受，重复调用不会改动已接受的记录。
func (s *GormContentStore) AcceptInvitation(ctx context.Context, invitationID, userID uint, at time.Time) error {
	updates := map[string]interface{}{
		"status":      db.InvitationAccepted,
		"accepted_at": at,
	}
	if userID != 0 {
		updates["user_id"] = userID
	}

	return s.db.WithContext(ctx).
		Model(&db.Invitation{}).
		Where("id = ? AND status = ?", invitationID, db.InvitationPending).
		Updates(updates).Error
}
