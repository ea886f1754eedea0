package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/funcsikk/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shareTokenHeader = "X-Share-Token"

// respondDenied 将拒绝原因转换为响应
// not_found 与 invalid_token 使用完全相同的 404 响应，不区分“不存在”和“无权查看”
func respondDenied(c *gin.Context, reason service.DenyReason) {
	switch reason {
	case service.ReasonNotFound, service.ReasonInvalidToken:
		respondError(c, http.StatusNotFound, "内容不存在")
	case service.ReasonLoginRequired:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "请先登录", "reason": reason})
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "没有访问权限", "reason": reason})
	}
}

func (a *API) respondResolverError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidArgument) {
		respondError(c, http.StatusBadRequest, "参数无效")
		return
	}
	a.logger.Error("resolve access failed", zap.String("route", c.FullPath()), zap.Error(err))
	respondError(c, http.StatusServiceUnavailable, "服务暂不可用")
}

// GetSikkPost 返回 Sikk 笔记，访问权限由 AccessResolver 判定
func (a *API) GetSikkPost(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = strings.TrimSpace(c.GetHeader(shareTokenHeader))
	}

	result, err := a.resolver.ResolvePostAccess(c.Request.Context(), c.Param("slug"), a.requestContext(c), token)
	if err != nil {
		a.respondResolverError(c, err)
		return
	}
	if !result.Allowed {
		respondDenied(c, result.Reason)
		return
	}

	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondDenied(c, service.ReasonNotFound)
			return
		}
		a.respondServiceError(c, err, "获取笔记失败")
		return
	}

	html, err := service.RenderMarkdown(post.Content)
	if err != nil {
		a.respondServiceError(c, err, "渲染笔记失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post": gin.H{
			"slug":      post.Slug,
			"title":     post.Title,
			"category":  post.Category,
			"content":   post.Content,
			"html":      html,
			"updatedAt": post.UpdatedAt,
		},
		"access": result,
	})
}

// GetSharedPost 处理文章分享链接，只返回 slug 与标题
func (a *API) GetSharedPost(c *gin.Context) {
	result, err := a.resolver.ResolvePostAccessByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		a.respondResolverError(c, err)
		return
	}
	if !result.Allowed {
		respondDenied(c, result.Reason)
		return
	}
	c.JSON(http.StatusOK, gin.H{"share": result})
}

// GetSharedCategory 处理分类分享链接，并展开可访问的子分类与文章
func (a *API) GetSharedCategory(c *gin.Context) {
	result, err := a.resolver.ResolveCategoryAccessByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		a.respondResolverError(c, err)
		return
	}
	if !result.Allowed {
		respondDenied(c, result.Reason)
		return
	}

	namePath, err := a.categories.NamePath(c.Request.Context(), result.CategoryID)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondDenied(c, service.ReasonNotFound)
			return
		}
		a.respondServiceError(c, err, "获取分类失败")
		return
	}

	posts, err := a.posts.ListByCategoryPath(namePath, result.IncludeSubcategories)
	if err != nil {
		a.respondServiceError(c, err, "获取分类文章失败")
		return
	}

	subcategories := make([]gin.H, 0)
	if result.IncludeSubcategories {
		subtree, err := a.categories.Subtree(result.CategoryID)
		if err != nil {
			a.respondServiceError(c, err, "获取子分类失败")
			return
		}
		// 第一个元素是分类自身
		for _, category := range subtree[1:] {
			subcategories = append(subcategories, gin.H{"name": category.Name, "slug": category.Slug})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"share":         result,
		"posts":         posts,
		"subcategories": subcategories,
	})
}
