package server

import (
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleLogin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"auth_url": s.accounts.BeginAuth()})
}

func (s *Server) handleCallback(c *gin.Context) {
	user, err := s.accounts.CompleteAuth(c.Request.Context(), c.Query("code"))
	if err != nil {
		fail(c, err)
		return
	}

	q := url.Values{}
	q.Set("email", user.Email)
	q.Set("name", user.Name)
	c.Redirect(http.StatusFound, "/auth/success?"+q.Encode())
}

func (s *Server) handleAuthSuccess(c *gin.Context) {
	email := c.Query("email")
	name := c.Query("name")

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Authentication Successful</title></head>
<body>
  <h1>Authentication Successful</h1>
  <p><strong>Email:</strong> %s</p>
  <p><strong>Name:</strong> %s</p>
  <p>You can now close this tab and call the API with your email parameter,
  e.g. <code>POST /emails/sync?email=%s</code></p>
</body>
</html>`,
		html.EscapeString(email), html.EscapeString(name), html.EscapeString(email))

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (s *Server) handleGetUser(c *gin.Context) {
	user, err := s.accounts.GetUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
