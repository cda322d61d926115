// Package server wires the REST surface. Handlers are thin glue: resolve the
// user, call a service or the provider gateway, shape the response.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/mailbridge/mailbridge/internal/account"
	"github.com/mailbridge/mailbridge/internal/google"
	"github.com/mailbridge/mailbridge/internal/mailbox"
)

type Server struct {
	accounts *account.Service
	mailbox  *mailbox.Service
	gateway  *google.Client
}

func New(accounts *account.Service, mbox *mailbox.Service, gateway *google.Client) *Server {
	return &Server{accounts: accounts, mailbox: mbox, gateway: gateway}
}

// Router builds the gin engine with the full route table.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), RequestID(), Recovery(), Errors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.GET("/login", s.handleLogin)
		auth.GET("/callback", s.handleCallback)
		auth.GET("/success", s.handleAuthSuccess)
	}

	r.GET("/users/me", s.handleGetUser)

	emails := r.Group("/emails")
	{
		emails.POST("/sync", s.handleSyncEmails)
		emails.GET("", s.handleListEmails)
		emails.GET("/:id", s.handleGetEmail)
		emails.POST("/send", s.handleSendEmail)
		emails.PUT("/:id/star", s.handleToggleStar)
		emails.PUT("/:id/star/add", s.handleStar)
		emails.PUT("/:id/star/remove", s.handleUnstar)
		emails.DELETE("/:id", s.handleDeleteEmail)
	}

	drafts := r.Group("/drafts")
	{
		drafts.POST("", s.handleCreateDraft)
		drafts.GET("", s.handleListDrafts)
		drafts.GET("/:id", s.handleGetDraft)
		drafts.PUT("/:id", s.handleUpdateDraft)
		drafts.DELETE("/:id", s.handleDeleteDraft)
		drafts.POST("/:id/send", s.handleSendDraft)
	}

	events := r.Group("/calendar/events")
	{
		events.POST("", s.handleCreateEvent)
		events.GET("", s.handleListEvents)
		events.GET("/:id", s.handleGetEvent)
		events.PUT("/:id", s.handleUpdateEvent)
		events.DELETE("/:id", s.handleDeleteEvent)
	}

	return r
}

// fail records an error for the Errors middleware to render and stops the
// handler chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
