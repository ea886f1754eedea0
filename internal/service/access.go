package service

import (
	"errors"
	"regexp"
)

// AccessMode 表示命中的授权方式。
type AccessMode string

// DenyReason 表示拒绝访问的原因，属于预期结果而不是错误。
type DenyReason string

const (
	ModeAdmin       AccessMode = "admin"
	ModePublicToken AccessMode = "public_token"
	ModeInvited     AccessMode = "invited"
)

const (
	ReasonNotFound      DenyReason = "not_found"
	ReasonExpired       DenyReason = "expired"
	ReasonNotInvited    DenyReason = "not_invited"
	ReasonLoginRequired DenyReason = "login_required"
	ReasonInvalidToken  DenyReason = "invalid_token"
	ReasonRevoked       DenyReason = "revoked"
)

var (
	// ErrInvalidArgument 表示调用方传入了空的 slug 或 token。
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStoreUnavailable 包装所有存储层故障，resolver 不做重试。
	ErrStoreUnavailable = errors.New("content store unavailable")
)

// shareTokenPattern 与 GenerateShareToken 的输出字母表一致（base64url，无填充）。
var shareTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,}$`)

// ValidShareToken 仅校验格式，不访问存储。
func ValidShareToken(token string) bool {
	return shareTokenPattern.MatchString(token)
}

// RequestContext 是请求主体：Anonymous 或 Authenticated 二者之一。
type RequestContext interface {
	requestContext()
}

// Anonymous 表示未登录的访问者。
type Anonymous struct{}

// Authenticated 表示已登录用户，IsAdmin 由调用方依据配置填写。
type Authenticated struct {
	UserID  uint
	Email   string
	IsAdmin bool
}

func (Anonymous) requestContext()     {}
func (Authenticated) requestContext() {}

// AccessResult 是 ResolvePostAccess 的判定结果。
type AccessResult struct {
	Allowed bool       `json:"allow"`
	Mode    AccessMode `json:"mode,omitempty"`
	Reason  DenyReason `json:"reason,omitempty"`
}

// TokenAccessResult 只携带可公开的字段。
type TokenAccessResult struct {
	Allowed bool       `json:"allow"`
	Mode    AccessMode `json:"mode,omitempty"`
	Reason  DenyReason `json:"reason,omitempty"`
	Slug    string     `json:"slug,omitempty"`
	Title   string     `json:"title,omitempty"`
}

// CategoryTokenAccessResult 额外返回子树信息，子树展开由调用方完成。
type CategoryTokenAccessResult struct {
	Allowed              bool       `json:"allow"`
	Mode                 AccessMode `json:"mode,omitempty"`
	Reason               DenyReason `json:"reason,omitempty"`
	CategoryID           uint       `json:"-"`
	Name                 string     `json:"name,omitempty"`
	SlugPath             string     `json:"slugPath,omitempty"`
	IncludeSubcategories bool       `json:"includeSubcategories"`
}

func allow(mode AccessMode) AccessResult {
	return AccessResult{Allowed: true, Mode: mode}
}

func deny(reason DenyReason) AccessResult {
	return AccessResult{Reason: reason}
}
