package handler

import (
	"net/http"

	"github.com/funcsikk/internal/db"
	"github.com/funcsikk/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionUserIDKey = "user_id"
	sessionEmailKey  = "email"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p loginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.EmailFormat),
		validation.Field(&p.Password, validation.Required),
	)
}

// Login 校验邮箱与密码并写入会话
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload, "登录参数格式错误") {
		return
	}
	if err := payload.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	// 查找用户
	var user db.User
	if err := a.db.Where("email = ?", db.NormalizeEmail(payload.Email)).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionEmailKey, user.Email)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": a.userPayload(user.ID, user.Email)})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}
	c.Status(http.StatusNoContent)
}

// Me 返回当前会话的用户信息，需经过 AuthRequired
func (a *API) Me(c *gin.Context) {
	rc, ok := a.requestContext(c).(service.Authenticated)
	if !ok {
		respondError(c, http.StatusUnauthorized, "请先登录")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": a.userPayload(rc.UserID, rc.Email)})
}

// AuthRequired 要求请求带有登录会话
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.requestContext(c).(service.Authenticated); !ok {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired 要求当前用户的邮箱在管理员名单中
func (a *API) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, ok := a.requestContext(c).(service.Authenticated)
		if !ok {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		if !rc.IsAdmin {
			respondError(c, http.StatusForbidden, "需要管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestContext 从会话构造访问主体，管理员身份只依据配置判断。
func (a *API) requestContext(c *gin.Context) service.RequestContext {
	session := sessions.Default(c)
	userID, ok := session.Get(sessionUserIDKey).(uint)
	if !ok || userID == 0 {
		return service.Anonymous{}
	}
	email, _ := session.Get(sessionEmailKey).(string)
	return service.Authenticated{
		UserID:  userID,
		Email:   email,
		IsAdmin: a.access.IsAdminEmail(email),
	}
}

func (a *API) userPayload(id uint, email string) gin.H {
	return gin.H{
		"id":      id,
		"email":   email,
		"isAdmin": a.access.IsAdminEmail(email),
	}
}
