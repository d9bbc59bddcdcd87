package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"odenehouk/config"
	"odenehouk/internal/auth"
	"odenehouk/internal/middleware"
	"odenehouk/internal/models"
	"odenehouk/internal/repository"
	"odenehouk/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc       *service.AuthService
	auditRepo *repository.AuditLogRepository
	cfg       *config.Config
}

func NewAuthHandler(svc *service.AuthService, auditRepo *repository.AuditLogRepository, cfg *config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, auditRepo: auditRepo, cfg: cfg}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func userView(u *models.User) gin.H {
	return gin.H{"id": u.ID, "uuid": u.UUID, "name": u.Name, "email": u.Email, "role": u.Role}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.Register(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[auth] register failed: email=%s err=%v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	h.auditLog(u.ID, "register", c)
	c.JSON(http.StatusCreated, userView(u))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountLocked):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSuspended):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidCreds):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			log.Printf("[auth] login failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}
	h.auditLog(sess.User.ID, "login", c)
	h.setRefreshCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"accessToken": sess.AccessToken, "user": userView(sess.User)})
}

// Refresh rotates the refresh cookie. No valid session is not an error: it
// answers 204 so the frontend can boot logged out.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(auth.RefreshCookie)
	sess, err := h.svc.Refresh(c.Request.Context(), token)
	if errors.Is(err, service.ErrNoSession) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		log.Printf("[auth] refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	h.setRefreshCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"accessToken": sess.AccessToken, "user": userView(sess.User)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(auth.RefreshCookie)
	if err := h.svc.Logout(token); err != nil {
		log.Printf("[auth] logout failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, userView(u))
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, sess *service.Session) {
	c.SetSameSite(http.SameSiteStrictMode)
	maxAge := int(h.cfg.JWT.RefreshExpiry.Seconds())
	c.SetCookie(auth.RefreshCookie, sess.RefreshToken, maxAge, auth.RefreshCookiePath, "", h.cfg.Server.IsProduction(), true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.RefreshCookie, "", -1, auth.RefreshCookiePath, "", h.cfg.Server.IsProduction(), true)
}

func (h *AuthHandler) auditLog(userID uint, action string, c *gin.Context) {
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "user",
		ResourceID: strconv.FormatUint(uint64(userID), 10),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}
