package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendboard/internal/attendance"
	"attendboard/internal/auth"
)

type createSessionRequest struct {
	Role attendance.Role `json:"role"`
}

// CreateSession starts a seeded session and returns its bearer token.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	sess, err := h.sessions.Create(req.Role)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := auth.Issue(sess.ID, h.opts.Issuer, h.opts.SigningKey, h.opts.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	role := sess.Store.Role()
	c.JSON(http.StatusCreated, gin.H{
		"session_id":   sess.ID,
		"access_token": token.AccessToken,
		"expires_at":   token.ExpiresAt.Unix(),
		"role":         role,
		"navigation":   auth.Navigation(role),
	})
}

// GetSession returns the active role and the views it may see.
func (h *Handler) GetSession(c *gin.Context) {
	sess := session(c)
	role := sess.Store.Role()
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"role":       role,
		"navigation": auth.Navigation(role),
	})
}

type setRoleRequest struct {
	Role attendance.Role `json:"role" binding:"required"`
}

// SetRole switches the active role of the session.
func (h *Handler) SetRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := session(c)
	if err := sess.Store.SetRole(req.Role); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"role":       req.Role,
		"navigation": auth.Navigation(req.Role),
	})
}
