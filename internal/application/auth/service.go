package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// Service signs sessions in and out.
type Service struct {
	Authenticator ports.Authenticator
	Metrics       ports.TurnMetrics
	Logger        ports.Logger
}

// Login authenticates the credentials and marks sess as signed in. On failure
// the session is left unchanged and the error is a *domain.AuthError.
func (s *Service) Login(ctx context.Context, sess *domain.Session, username, password string) error {
	if s.Authenticator == nil || s.Logger == nil {
		return errors.New("auth.Service dependencies not satisfied")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.observe("rejected")
		return &domain.AuthError{Reason: "username and password are required"}
	}

	if _, err := s.Authenticator.Authenticate(ctx, username, password); err != nil {
		s.observe("rejected")
		s.Logger.Warn("login rejected", map[string]interface{}{"user": username, "reason": err.Error()})
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			return authErr
		}
		return &domain.AuthError{Reason: err.Error(), Err: err}
	}

	sess.SignIn(username)
	s.observe("ok")
	s.Logger.Info("login succeeded", map[string]interface{}{"user": username, "session": sess.ID})
	return nil
}

// Logout clears the session, including its transcript.
func (s *Service) Logout(sess *domain.Session) {
	if sess == nil {
		return
	}
	user := sess.UserName
	sess.SignOut()
	if s.Logger != nil {
		s.Logger.Info("logout", map[string]interface{}{"user": user, "session": sess.ID})
	}
}

func (s *Service) observe(status string) {
	if s.Metrics != nil {
		s.Metrics.ObserveLogin(status)
	}
}
