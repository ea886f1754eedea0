package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/funcsikk/internal/db"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

var (
	ErrCategoryExists      = errors.New("category already exists")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryHasChildren = errors.New("category has subcategories")
	ErrCategoryInvalid     = errors.New("invalid category")
)

var categoryNamePattern = regexp.MustCompile(`^[^/]+$`)

// CategoryInput 描述创建分类时可配置的字段
type CategoryInput struct {
	Name     string
	Slug     string
	ParentID *uint
}

// CategoryService wraps category tree operations.
type CategoryService struct {
	db    *gorm.DB
	store ContentStore
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb, store: NewGormContentStore(gdb)}
}

// List returns all categories ordered by parent then name.
func (s *CategoryService) List() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Order("parent_id asc").Order("name asc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Get fetches a category with its share settings.
func (s *CategoryService) Get(id uint) (*db.Category, error) {
	var category db.Category
	if err := s.db.Preload("Share.Invitations").First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// Create inserts a category; name must be unique under the same parent.
func (s *CategoryService) Create(input CategoryInput) (*db.Category, error) {
	name := strings.TrimSpace(input.Name)
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(1, 64),
		validation.Match(categoryNamePattern).Error("category name cannot contain slashes"),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCategoryInvalid, err)
	}

	slug := slugify(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: slug is empty", ErrCategoryInvalid)
	}

	query := s.db.Model(&db.Category{}).Where("name = ?", name)
	if input.ParentID != nil {
		if _, err := s.Get(*input.ParentID); err != nil {
			return nil, err
		}
		query = query.Where("parent_id = ?", *input.ParentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if count > 0 {
		return nil, ErrCategoryExists
	}

	category := db.Category{Name: name, Slug: slug, ParentID: input.ParentID}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &category, nil
}

// Delete 删除没有子分类的分类，同时删除其分享配置。
func (s *CategoryService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var category db.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("find category: %w", err)
		}

		var children int64
		if err := tx.Model(&db.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return fmt.Errorf("count subcategories: %w", err)
		}
		if children > 0 {
			return ErrCategoryHasChildren
		}

		var share db.ShareConfig
		err := tx.Where("category_id = ?", id).First(&share).Error
		switch {
		case err == nil:
			if err := deleteShare(tx, share.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find category share: %w", err)
		}

		return tx.Unscoped().Delete(&category).Error
	})
}

// ResolvePath 将 "a/b/c" 解析为从根到叶的分类链，遇到不存在的段即停止。
func (s *CategoryService) ResolvePath(ctx context.Context, path string) ([]db.Category, error) {
	return s.store.FindCategoryChain(ctx, db.SplitCategoryPath(path))
}

// NamePath 返回分类从根开始的名称路径，与文章的 Category 字段格式一致。
func (s *CategoryService) NamePath(ctx context.Context, id uint) (string, error) {
	chain, err := s.store.CategoryPath(ctx, id)
	if err != nil {
		if errors.Is(err, ErrContentNotFound) {
			return "", ErrCategoryNotFound
		}
		return "", err
	}
	names := make([]string, 0, len(chain))
	for _, category := range chain {
		names = append(names, category.Name)
	}
	return db.JoinCategoryPath(names), nil
}

// Subtree 返回以 id 为根的整棵子树（包含自身），按层序排列。
func (s *CategoryService) Subtree(id uint) ([]db.Category, error) {
	root, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	result := []db.Category{*root}
	frontier := []uint{root.ID}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= maxCategoryDepth {
			return nil, fmt.Errorf("category %d: subtree exceeds %d levels", id, maxCategoryDepth)
		}

		var children []db.Category
		if err := s.db.Where("parent_id IN ?", frontier).Order("name asc").Find(&children).Error; err != nil {
			return nil, fmt.Errorf("list subcategories: %w", err)
		}

		frontier = frontier[:0]
		for _, child := range children {
			result = append(result, child)
			frontier = append(frontier, child.ID)
		}
	}
	return result, nil
}
