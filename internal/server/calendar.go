package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/google"
)

// Calendar events are proxied straight to the provider's primary calendar and
// never mirrored locally.

type eventRequest struct {
	Summary     string           `json:"summary" binding:"required"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Start       google.EventTime `json:"start" binding:"required"`
	End         google.EventTime `json:"end" binding:"required"`
}

func (r eventRequest) input() google.EventInput {
	return google.EventInput{
		Summary:     r.Summary,
		Description: r.Description,
		Location:    r.Location,
		Start:       r.Start,
		End:         r.End,
	}
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierror.Validation(err.Error()))
		return
	}

	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	event, err := s.gateway.CreateEvent(c.Request.Context(), user.Tokens(), req.input())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (s *Server) handleListEvents(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	maxResults := intQuery(c, "max_results", 10)
	if maxResults < 1 || maxResults > 2500 {
		fail(c, apierror.Validation("max_results must be between 1 and 2500"))
		return
	}

	events, err := s.gateway.ListEvents(c.Request.Context(), user.Tokens(), int64(maxResults))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
}

func (s *Server) handleGetEvent(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	event, err := s.gateway.GetEvent(c.Request.Context(), user.Tokens(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierror.Validation(err.Error()))
		return
	}

	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	event, err := s.gateway.UpdateEvent(c.Request.Context(), user.Tokens(), c.Param("id"), req.input())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}

	if err := s.gateway.DeleteEvent(c.Request.Context(), user.Tokens(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "calendar event deleted successfully"})
}
