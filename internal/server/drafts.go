package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/google"
)

// Drafts are proxied straight to the provider and never mirrored locally.

type draftRequest struct {
	Email   string `json:"email" binding:"required,email"`
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
	Cc      string `json:"cc"`
	Bcc     string `json:"bcc"`
}

func (r draftRequest) outgoing() google.OutgoingMessage {
	return google.OutgoingMessage{
		To:      r.To,
		Cc:      r.Cc,
		Bcc:     r.Bcc,
		Subject: r.Subject,
		Body:    r.Body,
	}
}

func (s *Server) handleCreateDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierror.Validation(err.Error()))
		return
	}

	user, err := s.accounts.GetUser(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, err)
		return
	}

	draft, err := s.gateway.CreateDraft(c.Request.Context(), user.Tokens(), req.outgoing())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "draft created successfully",
		"draft_id": draft.ID,
		"draft":    draft,
	})
}

func (s *Server) handleListDrafts(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	drafts, err := s.gateway.ListDrafts(c.Request.Context(), user.Tokens())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"drafts": drafts, "total": len(drafts)})
}

func (s *Server) handleGetDraft(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	draft, err := s.gateway.GetDraft(c.Request.Context(), user.Tokens(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func (s *Server) handleUpdateDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierror.Validation(err.Error()))
		return
	}

	user, err := s.accounts.GetUser(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, err)
		return
	}

	draft, err := s.gateway.UpdateDraft(c.Request.Context(), user.Tokens(), c.Param("id"), req.outgoing())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "draft updated successfully",
		"draft_id": draft.ID,
		"draft":    draft,
	})
}

func (s *Server) handleDeleteDraft(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	if err := s.gateway.DeleteDraft(c.Request.Context(), user.Tokens(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "draft deleted successfully"})
}

func (s *Server) handleSendDraft(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	messageID, err := s.gateway.SendDraft(c.Request.Context(), user.Tokens(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "draft sent successfully",
		"message_id": messageID,
	})
}
