package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/funcsikk/internal/db"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrPostExists   = errors.New("post slug already exists")
	ErrPostInvalid  = errors.New("invalid post")
)

var postSlugPattern = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)

// PostService wraps Sikk post related database operations.
type PostService struct {
	db *gorm.DB
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Search   string
	Category string
	Page     int
	PerPage  int
}

// PostListResult aggregates paginated list data.
type PostListResult struct {
	Posts      []db.Post
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// PostSummary 是可以暴露给分享链接访问者的最小字段集。
type PostSummary struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Slug     string
	Title    string
	Content  string
	Category string
	IsPublic bool
	UserID   uint
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// Get fetches a post by id with share settings preloaded.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Share.Invitations").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// GetBySlug fetches a post by its slug.
func (s *PostService) GetBySlug(slug string) (*db.Post, error) {
	var post db.Post
	if err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post by slug: %w", err)
	}
	return &post, nil
}

// Create persists a new post; slug defaults to the slugified title.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	normalized, err := normalizePostInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(normalized.Slug, 0); err != nil {
		return nil, err
	}

	post := db.Post{
		Slug:     normalized.Slug,
		Title:    normalized.Title,
		Content:  normalized.Content,
		Category: normalized.Category,
		IsPublic: normalized.IsPublic,
		UserID:   normalized.UserID,
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// Update applies updates to an existing post.
func (s *PostService) Update(id uint, input PostInput) (*db.Post, error) {
	normalized, err := normalizePostInput(input)
	if err != nil {
		return nil, err
	}

	var existing db.Post
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	if err := s.ensureSlugFree(normalized.Slug, existing.ID); err != nil {
		return nil, err
	}

	existing.Slug = normalized.Slug
	existing.Title = normalized.Title
	existing.Content = normalized.Content
	existing.Category = normalized.Category
	existing.IsPublic = normalized.IsPublic

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &existing, nil
}

// Delete removes a post together with its share settings.
func (s *PostService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var share db.ShareConfig
		err := tx.Where("post_id = ?", id).First(&share).Error
		switch {
		case err == nil:
			if err := deleteShare(tx, share.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find post share: %w", err)
		}

		result := tx.Unscoped().Delete(&db.Post{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete post: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

// List provides paginated posts for the admin list.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 20
	}

	if err := s.applyFilters(s.db.Model(&db.Post{}), filter).Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	offset := (result.Page - 1) * result.PerPage
	var posts []db.Post
	if err := s.applyFilters(s.db.Model(&db.Post{}), filter).
		Preload("Share").
		Order("created_at desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}
	result.Posts = posts
	return result, nil
}

// ListByCategoryPath 返回指定分类（可选含子分类）下文章的公开摘要。
func (s *PostService) ListByCategoryPath(namePath string, includeSubcategories bool) ([]PostSummary, error) {
	path := db.JoinCategoryPath(db.SplitCategoryPath(namePath))
	if path == "" {
		return []PostSummary{}, nil
	}

	query := s.db.Model(&db.Post{})
	if includeSubcategories {
		query = query.Where("category = ? OR category LIKE ? ESCAPE '\\'", path, escapeLike(path)+"/%")
	} else {
		query = query.Where("category = ?", path)
	}

	var posts []db.Post
	if err := query.Select("slug", "title", "category").Order("category asc").Order("title asc").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts by category: %w", err)
	}

	summaries := make([]PostSummary, 0, len(posts))
	for _, post := range posts {
		summaries = append(summaries, PostSummary{Slug: post.Slug, Title: post.Title, Category: post.Category})
	}
	return summaries, nil
}

func (s *PostService) ensureSlugFree(slug string, selfID uint) error {
	var count int64
	query := s.db.Model(&db.Post{}).Unscoped().Where("slug = ?", slug)
	if selfID != 0 {
		query = query.Where("id <> ?", selfID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if count > 0 {
		return ErrPostExists
	}
	return nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("(title LIKE ? OR content LIKE ?)", like, like)
	}
	if category := db.JoinCategoryPath(db.SplitCategoryPath(filter.Category)); category != "" {
		query = query.Where("category = ? OR category LIKE ? ESCAPE '\\'", category, escapeLike(category)+"/%")
	}
	return query
}

func normalizePostInput(input PostInput) (PostInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = db.JoinCategoryPath(db.SplitCategoryPath(input.Category))
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	if input.Slug == "" {
		input.Slug = slugify(input.Title)
	}

	if err := validation.ValidateStruct(&input,
		validation.Field(&input.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&input.Slug, validation.Required, validation.Length(1, 120), validation.Match(postSlugPattern)),
	); err != nil {
		return input, fmt.Errorf("%w: %v", ErrPostInvalid, err)
	}
	return input, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(value)
}
