package handler

import (
	"net/http"
	"strings"

	"github.com/funcsikk/internal/db"
	"github.com/funcsikk/internal/service"
	"github.com/gin-gonic/gin"
)

type postPayload struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	IsPublic bool   `json:"isPublic"`
}

type categoryPayload struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *uint  `json:"parentId"`
}

func postToPayload(post db.Post) gin.H {
	return gin.H{
		"id":        post.ID,
		"slug":      post.Slug,
		"title":     post.Title,
		"content":   post.Content,
		"category":  post.Category,
		"isPublic":  post.IsPublic,
		"shared":    post.Share != nil,
		"createdAt": post.CreatedAt,
		"updatedAt": post.UpdatedAt,
	}
}

func categoryToPayload(category db.Category) gin.H {
	return gin.H{
		"id":       category.ID,
		"name":     category.Name,
		"slug":     category.Slug,
		"parentId": category.ParentID,
	}
}

func (a *API) currentUserID(c *gin.Context) uint {
	if rc, ok := a.requestContext(c).(service.Authenticated); ok {
		return rc.UserID
	}
	return 0
}

// ListPosts 返回后台笔记列表
func (a *API) ListPosts(c *gin.Context) {
	result, err := a.posts.List(service.PostFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: c.Query("category"),
		Page:     parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage:  parsePositiveInt(c.DefaultQuery("per_page", "20"), 20),
	})
	if err != nil {
		a.respondServiceError(c, err, "获取笔记列表失败")
		return
	}

	items := make([]gin.H, 0, len(result.Posts))
	for _, post := range result.Posts {
		items = append(items, postToPayload(post))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      items,
		"total":      result.Total,
		"page":       result.Page,
		"perPage":    result.PerPage,
		"totalPages": result.TotalPages,
	})
}

// GetPost 获取单篇笔记
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的笔记ID")
		return
	}

	post, err := a.posts.Get(id)
	if err != nil {
		a.respondServiceError(c, err, "获取笔记失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": postToPayload(*post), "share": a.sharePayload(post.Share)})
}

// CreatePost 创建笔记
func (a *API) CreatePost(c *gin.Context) {
	var payload postPayload
	if !bindJSON(c, &payload, "笔记参数格式错误") {
		return
	}

	post, err := a.posts.Create(service.PostInput{
		Slug:     payload.Slug,
		Title:    payload.Title,
		Content:  payload.Content,
		Category: payload.Category,
		IsPublic: payload.IsPublic,
		UserID:   a.currentUserID(c),
	})
	if err != nil {
		a.respondServiceError(c, err, "创建笔记失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": postToPayload(*post)})
}

// UpdatePost 更新笔记
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的笔记ID")
		return
	}

	var payload postPayload
	if !bindJSON(c, &payload, "笔记参数格式错误") {
		return
	}

	post, err := a.posts.Update(id, service.PostInput{
		Slug:     payload.Slug,
		Title:    payload.Title,
		Content:  payload.Content,
		Category: payload.Category,
		IsPublic: payload.IsPublic,
	})
	if err != nil {
		a.respondServiceError(c, err, "更新笔记失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": postToPayload(*post)})
}

// DeletePost 删除笔记及其分享配置
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的笔记ID")
		return
	}

	if err := a.posts.Delete(id); err != nil {
		a.respondServiceError(c, err, "删除笔记失败")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCategories 返回全部分类
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		a.respondServiceError(c, err, "获取分类失败")
		return
	}

	items := make([]gin.H, 0, len(categories))
	for _, category := range categories {
		items = append(items, categoryToPayload(category))
	}
	c.JSON(http.StatusOK, gin.H{"categories": items})
}

// CreateCategory 创建分类
func (a *API) CreateCategory(c *gin.Context) {
	var payload categoryPayload
	if !bindJSON(c, &payload, "分类参数格式错误") {
		return
	}

	category, err := a.categories.Create(service.CategoryInput{
		Name:     payload.Name,
		Slug:     payload.Slug,
		ParentID: payload.ParentID,
	})
	if err != nil {
		a.respondServiceError(c, err, "创建分类失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": categoryToPayload(*category)})
}

// DeleteCategory 删除没有子分类的分类
func (a *API) DeleteCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的分类ID")
		return
	}

	if err := a.categories.Delete(id); err != nil {
		a.respondServiceError(c, err, "删除分类失败")
		return
	}
	c.Status(http.StatusNoContent)
}
