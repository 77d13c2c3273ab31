// Package web serves the chat UI over HTTP with gin.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/doeshing/sqlchat/assets"
	"github.com/doeshing/sqlchat/internal/application/auth"
	"github.com/doeshing/sqlchat/internal/application/chat"
	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

const maxQuestionLength = 4000

// Server wires HTTP routes to the chat and auth services.
type Server struct {
	Chat     *chat.Service
	Auth     *auth.Service
	Sessions *SessionStore
	Metrics  http.Handler
	Logger   ports.Logger
	Version  string
}

type askRequest struct {
	Question string `json:"question" form:"question" binding:"max=4000"`
}

type loginPage struct {
	Error    string
	UserName string
}

type chatPage struct {
	User     string
	LoggedIn bool
	Notice   string
	Error    string
	Status   int
	Result   *resultPayload
	Version  string
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() (*gin.Engine, error) {
	if s.Chat == nil || s.Auth == nil || s.Sessions == nil || s.Logger == nil {
		return nil, errors.New("web.Server dependencies not satisfied")
	}
	tmpl, err := template.ParseFS(assets.Templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.Logger))
	router.SetHTMLTemplate(tmpl)

	router.GET("/login", s.handleLoginPage)
	router.POST("/login", s.handleLogin)
	router.POST("/logout", s.handleLogout)
	router.GET("/", s.handleChatPage)
	router.POST("/ask", s.handleAsk)
	router.POST("/api/ask", s.handleAPIAsk)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.Version})
	})
	if s.Metrics != nil {
		router.GET("/metrics", gin.WrapH(s.Metrics))
	}
	return router, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	router, err := s.Router()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http server listening", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Logger.Info("http server shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleLoginPage(c *gin.Context) {
	sess := s.Sessions.Resolve(c)
	if sess.Authenticated {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", loginPage{})
}

func (s *Server) handleLogin(c *gin.Context) {
	previous := s.Sessions.Resolve(c)
	sess := s.Sessions.Fresh()
	username := c.PostForm("username")
	if err := s.Auth.Login(c.Request.Context(), sess, username, c.PostForm("password")); err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", loginPage{Error: err.Error(), UserName: username})
		return
	}
	s.Sessions.Drop(previous.ID)
	s.Sessions.Keep(c, sess)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleLogout(c *gin.Context) {
	sess := s.Sessions.Resolve(c)
	s.Auth.Logout(sess)
	s.Sessions.Drop(sess.ID)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) handleChatPage(c *gin.Context) {
	sess := s.Sessions.Resolve(c)
	page := chatPage{User: sess.UserName, LoggedIn: sess.Authenticated, Version: s.Version}
	if !sess.Authenticated {
		page.Notice = domain.NoticeLoginRequired
	}
	c.HTML(http.StatusOK, "chat.html", page)
}

func (s *Server) handleAsk(c *gin.Context) {
	sess := s.Sessions.Resolve(c)
	var req askRequest
	if err := c.ShouldBind(&req); err != nil {
		s.renderChat(c, sess, chatPage{Status: http.StatusBadRequest, Error: "Question is too long."})
		return
	}
	result, err := s.Chat.Ask(c.Request.Context(), sess, req.Question, nil)
	page := chatPage{Notice: result.Notice}
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		page.Status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrTurnInProgress):
		page.Status = http.StatusConflict
		page.Error = err.Error()
	case isPersistence(err), err == nil:
		if result.Answered() {
			payload := newResultPayload(result)
			page.Result = &payload
		}
	default:
		page.Status = http.StatusInternalServerError
		page.Error = err.Error()
	}
	s.renderChat(c, sess, page)
}

func (s *Server) renderChat(c *gin.Context, sess *domain.Session, page chatPage) {
	page.User = sess.UserName
	page.LoggedIn = sess.Authenticated
	page.Version = s.Version
	status := page.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.HTML(status, "chat.html", page)
}

func (s *Server) handleAPIAsk(c *gin.Context) {
	sess := s.Sessions.Resolve(c)
	var req askRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("question must be at most %d characters", maxQuestionLength)})
		return
	}
	if !sess.Authenticated {
		c.JSON(http.StatusUnauthorized, gin.H{"notice": domain.NoticeLoginRequired})
		return
	}

	display := newSSEDisplay(c)
	result, err := s.Chat.Ask(c.Request.Context(), sess, req.Question, display)
	switch {
	case result.Notice != "":
		display.send(EventNotice, messagePayload{Message: result.Notice})
	case isPersistence(err), err == nil:
		display.send(EventResult, newResultPayload(result))
	default:
		display.send(EventError, messagePayload{Message: err.Error()})
	}
}

func isPersistence(err error) bool {
	var persistErr *domain.PersistenceError
	return errors.As(err, &persistErr)
}

func requestLogger(logger ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
