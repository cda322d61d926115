package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/google"
	"github.com/mailbridge/mailbridge/internal/models"
)

type emailListResponse struct {
	Emails  []*models.Email `json:"emails"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

type emailSendRequest struct {
	Email   string `json:"email" binding:"required,email"`
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

func (s *Server) handleSyncEmails(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	count, err := s.mailbox.Sync(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("synced %d new emails", count),
		"synced_count": count,
	})
}

func (s *Server) handleListEmails(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	page := intQuery(c, "page", 1)
	perPage := intQuery(c, "per_page", 50)
	if page < 1 || perPage < 1 || perPage > 100 {
		fail(c, apierror.Validation("page must be >= 1 and per_page between 1 and 100"))
		return
	}

	emails, total, err := s.mailbox.List(c.Request.Context(), user, page, perPage, c.Query("query"))
	if err != nil {
		fail(c, err)
		return
	}
	if emails == nil {
		emails = []*models.Email{}
	}

	c.JSON(http.StatusOK, emailListResponse{
		Emails:  emails,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

func (s *Server) handleGetEmail(c *gin.Context) {
	user, id, ok := s.userAndEmailID(c)
	if !ok {
		return
	}

	email, err := s.mailbox.Get(c.Request.Context(), user, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, email)
}

func (s *Server) handleSendEmail(c *gin.Context) {
	var req emailSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierror.Validation(err.Error()))
		return
	}

	user, err := s.accounts.GetUser(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, err)
		return
	}

	messageID, err := s.mailbox.Send(c.Request.Context(), user, google.OutgoingMessage{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "email sent successfully",
		"message_id": messageID,
	})
}

func (s *Server) handleToggleStar(c *gin.Context) {
	user, id, ok := s.userAndEmailID(c)
	if !ok {
		return
	}

	starred, err := s.mailbox.ToggleStar(c.Request.Context(), user, id)
	if err != nil {
		fail(c, err)
		return
	}

	msg := "email unstarred"
	if starred {
		msg = "email starred"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "is_starred": starred})
}

func (s *Server) handleStar(c *gin.Context) {
	user, id, ok := s.userAndEmailID(c)
	if !ok {
		return
	}

	changed, err := s.mailbox.SetStar(c.Request.Context(), user, id, true)
	if err != nil {
		fail(c, err)
		return
	}

	msg := "email starred successfully"
	if !changed {
		msg = "email is already starred"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "is_starred": true})
}

func (s *Server) handleUnstar(c *gin.Context) {
	user, id, ok := s.userAndEmailID(c)
	if !ok {
		return
	}

	changed, err := s.mailbox.SetStar(c.Request.Context(), user, id, false)
	if err != nil {
		fail(c, err)
		return
	}

	msg := "email unstarred successfully"
	if !changed {
		msg = "email is not starred"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "is_starred": false})
}

func (s *Server) handleDeleteEmail(c *gin.Context) {
	user, id, ok := s.userAndEmailID(c)
	if !ok {
		return
	}

	if err := s.mailbox.Delete(c.Request.Context(), user, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email deleted"})
}

// userAndEmailID resolves the calling user and the numeric email id from the
// path, failing the request on either miss.
func (s *Server) userAndEmailID(c *gin.Context) (*models.User, int64, bool) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return nil, 0, false
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, apierror.Validation("email id must be an integer"))
		return nil, 0, false
	}
	return user, id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
