package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/funcsikk/internal/config"
	"github.com/funcsikk/internal/db"
	"go.uber.org/zap"
)

// AccessResolver 判定请求能否访问 Sikk 文章或分类，并给出命中的授权方式。
// 所有“无权访问”都以结果值返回，只有存储故障和参数误用才返回 error。
type AccessResolver struct {
	store  ContentStore
	access config.AccessConfig
	logger *zap.Logger
	now    func() time.Time
}

// ResolverOption 用于定制 AccessResolver。
type ResolverOption func(*AccessResolver)

// WithClock 替换当前时间来源，主要用于测试过期边界。
func WithClock(now func() time.Time) ResolverOption {
	return func(r *AccessResolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger 设置日志器，默认不输出。
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *AccessResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewAccessResolver 构造 AccessResolver，默认使用 time.Now 且不输出日志。
func NewAccessResolver(store ContentStore, access config.AccessConfig, opts ...ResolverOption) *AccessResolver {
	r := &AccessResolver{
		store:  store,
		access: access,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolvePostAccess 按固定顺序检查各类授权，先命中者生效：
//  1. 文章不存在 → not_found
//  2. 管理员 → admin
//  3. 文章自身的公开 token
//  4. 文章自身的邀请
//  5. 分类链上第一个带分享配置的分类（按 3、4 的规则）
//  6. 旧版 isPublic，仅当文章和分类链都没有分享配置
//  7. 匿名 → login_required，否则 not_invited
//
// 顺序决定了谁能看到内容，调整前务必确认影响。
func (r *AccessResolver) ResolvePostAccess(ctx context.Context, slug string, rc RequestContext, publicToken string) (AccessResult, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return AccessResult{}, fmt.Errorf("%w: slug is required", ErrInvalidArgument)
	}

	post, err := r.store.FindPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrContentNotFound) {
			return deny(ReasonNotFound), nil
		}
		return AccessResult{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	viewer := r.viewerOf(rc)
	now := r.now()

	if viewer.admin {
		return r.logDecision(slug, allow(ModeAdmin)), nil
	}

	if post.Share != nil {
		if result, decided := r.matchShare(ctx, post.Share, publicToken, viewer, now); decided {
			return r.logDecision(slug, result), nil
		}
	}

	categoryHasShareSettings := false
	if segments := post.CategorySegments(); len(segments) > 0 {
		chain, err := r.store.FindCategoryChain(ctx, segments)
		if err != nil {
			return AccessResult{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}

		var governing *db.ShareConfig
		for i := range chain {
			if chain[i].Share == nil {
				continue
			}
			categoryHasShareSettings = true
			if governing == nil {
				governing = chain[i].Share
			}
		}

		if governing != nil {
			if result, decided := r.matchShare(ctx, governing, publicToken, viewer, now); decided {
				return r.logDecision(slug, result), nil
			}
			// 第一个带配置的分类已经给出结论，不再向其他分类回退
			return r.logDecision(slug, finalDenial(viewer)), nil
		}
	}

	if post.IsPublic && post.Share == nil && !categoryHasShareSettings {
		return r.logDecision(slug, allow(ModePublicToken)), nil
	}

	return r.logDecision(slug, finalDenial(viewer)), nil
}

// ResolvePostAccessByToken 处理无会话的文章分享链接，只做 token 判定。
func (r *AccessResolver) ResolvePostAccessByToken(ctx context.Context, token string) (TokenAccessResult, error) {
	if token == "" {
		return TokenAccessResult{}, fmt.Errorf("%w: token is required", ErrInvalidArgument)
	}
	if !ValidShareToken(token) {
		return TokenAccessResult{Reason: ReasonInvalidToken}, nil
	}

	share, err := r.store.FindShareByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrContentNotFound) {
			return TokenAccessResult{Reason: ReasonNotFound}, nil
		}
		return TokenAccessResult{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	// 已关闭的分享与不存在的 token 返回相同结果
	if share.PostID == nil || share.Post == nil || !share.PublicEnabled {
		return TokenAccessResult{Reason: ReasonNotFound}, nil
	}
	if db.IsExpired(share.PublicExpiresAt, r.now()) {
		return TokenAccessResult{Reason: ReasonExpired}, nil
	}

	return TokenAccessResult{
		Allowed: true,
		Mode:    ModePublicToken,
		Slug:    share.Post.Slug,
		Title:   share.Post.Title,
	}, nil
}

// ResolveCategoryAccessByToken 处理分类分享链接，子树展开与文章列表由调用方负责。
func (r *AccessResolver) ResolveCategoryAccessByToken(ctx context.Context, token string) (CategoryTokenAccessResult, error) {
	if token == "" {
		return CategoryTokenAccessResult{}, fmt.Errorf("%w: token is required", ErrInvalidArgument)
	}
	if !ValidShareToken(token) {
		return CategoryTokenAccessResult{Reason: ReasonInvalidToken}, nil
	}

	share, err := r.store.FindShareByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrContentNotFound) {
			return CategoryTokenAccessResult{Reason: ReasonNotFound}, nil
		}
		return CategoryTokenAccessResult{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if share.CategoryID == nil || share.Category == nil || !share.PublicEnabled {
		return CategoryTokenAccessResult{Reason: ReasonNotFound}, nil
	}
	if db.IsExpired(share.PublicExpiresAt, r.now()) {
		return CategoryTokenAccessResult{Reason: ReasonExpired}, nil
	}

	path, err := r.store.CategoryPath(ctx, *share.CategoryID)
	if err != nil {
		if errors.Is(err, ErrContentNotFound) {
			return CategoryTokenAccessResult{Reason: ReasonNotFound}, nil
		}
		return CategoryTokenAccessResult{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	slugs := make([]string, 0, len(path))
	for _, category := range path {
		slugs = append(slugs, category.Slug)
	}

	return CategoryTokenAccessResult{
		Allowed:              true,
		Mode:                 ModePublicToken,
		CategoryID:           share.Category.ID,
		Name:                 share.Category.Name,
		SlugPath:             db.JoinCategoryPath(slugs),
		IncludeSubcategories: share.IncludeSubcategories,
	}, nil
}

type viewer struct {
	authenticated bool
	admin         bool
	userID        uint
	email         string
}

func (r *AccessResolver) viewerOf(rc RequestContext) viewer {
	switch c := rc.(type) {
	case Authenticated:
		email := db.NormalizeEmail(c.Email)
		return viewer{
			authenticated: true,
			admin:         c.IsAdmin || r.access.IsAdminEmail(email),
			userID:        c.UserID,
			email:         email,
		}
	case *Authenticated:
		if c == nil {
			return viewer{}
		}
		return r.viewerOf(*c)
	default:
		return viewer{}
	}
}

// matchShare 依次检查公开 token 与邀请，decided 为 false 表示该配置未给出结论。
func (r *AccessResolver) matchShare(ctx context.Context, share *db.ShareConfig, publicToken string, v viewer, now time.Time) (AccessResult, bool) {
	if publicToken != "" && share.PublicEnabled && share.PublicToken != nil && ValidShareToken(publicToken) &&
		subtle.ConstantTimeCompare([]byte(*share.PublicToken), []byte(publicToken)) == 1 {
		if db.IsExpired(share.PublicExpiresAt, now) {
			return deny(ReasonExpired), true
		}
		return allow(ModePublicToken), true
	}

	if !v.authenticated || v.email == "" {
		return AccessResult{}, false
	}

	for i := range share.Invitations {
		invitation := &share.Invitations[i]
		if db.NormalizeEmail(invitation.Email) != v.email || invitation.Status == db.InvitationRevoked {
			continue
		}
		if db.IsExpired(invitation.ExpiresAt, now) {
			return deny(ReasonExpired), true
		}
		if invitation.Status == db.InvitationPending {
			r.acceptInvitation(ctx, invitation, v.userID, now)
		}
		return allow(ModeInvited), true
	}

	return AccessResult{}, false
}

// acceptInvitation 写失败只记录日志，已经做出的授权不受影响。
func (r *AccessResolver) acceptInvitation(ctx context.Context, invitation *db.Invitation, userID uint, now time.Time) {
	if err := r.store.AcceptInvitation(ctx, invitation.ID, userID, now); err != nil {
		r.logger.Warn("accept invitation failed",
			zap.Uint("invitation_id", invitation.ID),
			zap.Uint("share_id", invitation.ShareID),
			zap.Error(err),
		)
		return
	}
	invitation.Status = db.InvitationAccepted
	invitation.AcceptedAt = &now
	if userID != 0 {
		invitation.UserID = &userID
	}
}

func (r *AccessResolver) logDecision(slug string, result AccessResult) AccessResult {
	r.logger.Debug("post access resolved",
		zap.String("slug", slug),
		zap.Bool("allow", result.Allowed),
		zap.String("mode", string(result.Mode)),
		zap.String("reason", string(result.Reason)),
	)
	return result
}

func finalDenial(v viewer) AccessResult {
	if !v.authenticated {
		return deny(ReasonLoginRequired)
	}
	return deny(ReasonNotInvited)
}
