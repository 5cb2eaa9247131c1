package api

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ai-risk-eval/backend/internal/security"
	"ai-risk-eval/backend/internal/store"
)

const (
	userIDKey         = "user_id"
	minPasswordLength = 6
	maxPasswordLength = 64
)

var errInvalidCredentials = errors.New("invalid credentials")

func (s *Server) handleRegister(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, http.StatusBadRequest, err)
		return
	}
	if err := validateCredentials(req); err != nil {
		renderError(c, http.StatusBadRequest, err)
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		renderError(c, http.StatusInternalServerError, err)
		return
	}
	user, err := s.db.CreateUser(req.Email, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			renderError(c, http.StatusBadRequest, err)
		} else {
			renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	logrus.WithField("user_id", user.ID).Info("user registered")
	s.respondToken(c, user)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, http.StatusBadRequest, err)
		return
	}
	user, err := s.db.FindUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			renderError(c, http.StatusUnauthorized, errInvalidCredentials)
		} else {
			renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	if !security.CheckPassword(user.PasswordHash, req.Password) {
		renderError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}
	s.respondToken(c, user)
}

func (s *Server) respondToken(c *gin.Context, user *store.User) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func validateCredentials(req CredentialsRequest) error {
	email := strings.TrimSpace(req.Email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errors.New("a valid email is required")
	}
	n := utf8.RuneCountInString(req.Password)
	if n < minPasswordLength || n > maxPasswordLength {
		return errors.New("password must be between 6 and 64 characters")
	}
	return nil
}

// bearerToken returns the token from the Authorization header, if any.
func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// optionalUser attaches the caller when a token is sent. A token that is
// sent but fails validation is rejected rather than ignored.
func (s *Server) optionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if !present {
			c.Next()
			return
		}
		s.authenticate(c, token)
	}
}

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if !present {
			renderError(c, http.StatusUnauthorized, errors.New("missing bearer token"))
			c.Abort()
			return
		}
		s.authenticate(c, token)
	}
}

func (s *Server) authenticate(c *gin.Context, token string) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		renderError(c, http.StatusUnauthorized, security.ErrInvalidToken)
		c.Abort()
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

func currentUser(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
