package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/funcsikk/internal/db"
	"github.com/funcsikk/internal/service"
	"github.com/gin-gonic/gin"
)

type publicLinkPayload struct {
	Enabled              bool    `json:"enabled"`
	ExpiresAt            *string `json:"expiresAt"`
	IncludeSubcategories *bool   `json:"includeSubcategories"`
}

type invitationPayload struct {
	Email     string  `json:"email"`
	ExpiresAt *string `json:"expiresAt"`
}

func shareTargetFromParams(c *gin.Context) (service.ShareTarget, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的ID")
		return service.ShareTarget{}, false
	}

	switch c.Param("kind") {
	case "posts":
		return service.PostTarget(id), true
	case "categories":
		return service.CategoryTarget(id), true
	default:
		respondError(c, http.StatusNotFound, "资源不存在")
		return service.ShareTarget{}, false
	}
}

func (a *API) sharePayload(share *db.ShareConfig) gin.H {
	if share == nil {
		return nil
	}

	payload := gin.H{
		"publicEnabled":        share.PublicEnabled,
		"publicExpiresAt":      share.PublicExpiresAt,
		"includeSubcategories": share.IncludeSubcategories,
		"invitations":          invitationsPayload(share.Invitations),
	}
	if share.PublicToken != nil {
		payload["publicToken"] = *share.PublicToken
		if share.CategoryID != nil {
			payload["shareUrl"] = a.baseURL + "/share/category/" + *share.PublicToken
		} else {
			payload["shareUrl"] = a.baseURL + "/share/" + *share.PublicToken
		}
	}
	return payload
}

func invitationPayloadOf(invitation db.Invitation) gin.H {
	return gin.H{
		"id":         invitation.ID,
		"email":      invitation.Email,
		"status":     invitation.Status,
		"expiresAt":  invitation.ExpiresAt,
		"acceptedAt": invitation.AcceptedAt,
		"userId":     invitation.UserID,
	}
}

func invitationsPayload(invitations []db.Invitation) []gin.H {
	items := make([]gin.H, 0, len(invitations))
	for _, invitation := range invitations {
		items = append(items, invitationPayloadOf(invitation))
	}
	return items
}

// GetShare 返回文章或分类的分享配置，未配置时 share 为 null
func (a *API) GetShare(c *gin.Context) {
	target, ok := shareTargetFromParams(c)
	if !ok {
		return
	}

	share, err := a.shares.Get(target)
	if err != nil {
		if errors.Is(err, service.ErrShareNotFound) {
			c.JSON(http.StatusOK, gin.H{"share": nil})
			return
		}
		a.respondServiceError(c, err, "获取分享设置失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"share": a.sharePayload(share)})
}

// UpdatePublicLink 开启或关闭公开链接
func (a *API) UpdatePublicLink(c *gin.Context) {
	target, ok := shareTargetFromParams(c)
	if !ok {
		return
	}

	var payload publicLinkPayload
	if !bindJSON(c, &payload, "分享参数格式错误") {
		return
	}
	expiresAt, err := parseOptionalTime(payload.ExpiresAt)
	if err != nil {
		respondError(c, http.StatusBadRequest, "过期时间格式错误")
		return
	}

	if payload.IncludeSubcategories != nil && target.Kind != service.ShareTargetCategory {
		respondError(c, http.StatusBadRequest, "仅分类分享支持包含子分类")
		return
	}

	// 关闭请求不会为未分享的目标创建配置
	_, err = a.shares.UpdatePublicLink(target, service.PublicLinkInput{
		Enabled:              &payload.Enabled,
		ExpiresAt:            expiresAt,
		IncludeSubcategories: payload.IncludeSubcategories,
	})
	if err != nil && !(errors.Is(err, service.ErrShareNotFound) && !payload.Enabled) {
		a.respondServiceError(c, err, "更新分享设置失败")
		return
	}

	a.GetShare(c)
}

// RegenerateShareToken 重新生成公开 token
func (a *API) RegenerateShareToken(c *gin.Context) {
	target, ok := shareTargetFromParams(c)
	if !ok {
		return
	}
	if _, err := a.shares.RegenerateToken(target); err != nil {
		a.respondServiceError(c, err, "重新生成链接失败")
		return
	}
	a.GetShare(c)
}

// DeleteShare 关闭分享并删除全部邀请
func (a *API) DeleteShare(c *gin.Context) {
	target, ok := shareTargetFromParams(c)
	if !ok {
		return
	}
	if err := a.shares.DisableSharing(target); err != nil {
		a.respondServiceError(c, err, "关闭分享失败")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListInvitations 返回邀请列表
func (a *API) ListInvitations(c *gin.Context) {
	target, ok := shareTargetFromParams(c)
	if !ok {
		return
	}
	invitations, err := a.shares.ListInvitations(target)
	if err != nil {
		a.respondServiceError(c, err, "获取邀请列表失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invitationsPayload(invitations)})
}

// CreateInvitation 邀请邮箱访问，重复邀请会更新原记录
func (a *API) CreateInvitation(c *gin.Context) {
	target, ok := shareTargetFromParams(c)
	if !ok {
		return
	}

	var payload invitationPayload
	if !bindJSON(c, &payload, "邀请参数格式错误") {
		return
	}
	expiresAt, err := parseOptionalTime(payload.ExpiresAt)
	if err != nil {
		respondError(c, http.StatusBadRequest, "过期时间格式错误")
		return
	}
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		respondError(c, http.StatusBadRequest, "过期时间必须晚于当前时间")
		return
	}

	invitation, err := a.shares.Invite(target, service.InviteInput{Email: payload.Email, ExpiresAt: expiresAt})
	if err != nil {
		a.respondServiceError(c, err, "发送邀请失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invitation": invitationPayloadOf(*invitation)})
}

// RevokeInvitation 撤销邀请
func (a *API) RevokeInvitation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的邀请ID")
		return
	}
	invitation, err := a.shares.RevokeInvitation(id)
	if err != nil {
		a.respondServiceError(c, err, "撤销邀请失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitation": invitationPayloadOf(*invitation)})
}

// DeleteInvitation 删除邀请
func (a *API) DeleteInvitation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的邀请ID")
		return
	}
	if err := a.shares.DeleteInvitation(id); err != nil {
		a.respondServiceError(c, err, "删除邀请失败")
		return
	}
	c.Status(http.StatusNoContent)
}
