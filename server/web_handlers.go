package server

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"gochat/pkg/auth"
	"gochat/pkg/errors"
	"gochat/pkg/protocol"
	"gochat/pkg/storage"
)

// credentials is the request body for register and login
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// normalizeUsername folds visually identical unicode spellings into one
// canonical form so "josé" typed two ways is the same account.
func normalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

// identityFromRequest resolves the caller's identity from the auth cookie,
// falling back to a token query parameter and then a bearer header for
// non-browser clients.
func (s *Server) identityFromRequest(r *http.Request) (*protocol.Identity, error) {
	token := ""
	if cookie, err := r.Cookie(s.config.Auth.CookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		return nil, errors.ErrUnauthenticated
	}

	return s.tokens.Verify(token)
}

// setAuthCookie installs the identity token as an HTTP-only cookie.
func (s *Server) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(
		s.config.Auth.CookieName,
		token,
		int(s.config.Auth.TokenTTL().Seconds()),
		"/",
		"",
		s.config.Auth.CookieSecure,
		true,
	)
}

func (s *Server) handleRegister(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	username := normalizeUsername(creds.Username)
	if username == "" || creds.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	if len(username) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username too long"})
		return
	}

	if _, err := s.store.GetUserByName(username); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	} else if !stderrors.Is(err, errors.ErrUserNotFound) {
		s.log.ErrorWithErr("user lookup failed", err, "username", username)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		s.log.ErrorWithErr("password hashing failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	user := &storage.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(user); err != nil {
		if stderrors.Is(err, errors.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		s.log.ErrorWithErr("user creation failed", err, "username", username)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	identity := &protocol.Identity{UserID: user.ID, Username: user.Username}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		s.log.ErrorWithErr("token issue failed", err, "userID", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	s.setAuthCookie(c, token)
	s.log.InfoWith("user registered", "userID", user.ID, "username", user.Username)
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	username := normalizeUsername(creds.Username)

	user, err := s.store.GetUserByName(username)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		s.log.ErrorWithErr("user lookup failed", err, "username", username)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if !auth.ComparePassword(creds.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	identity := &protocol.Identity{UserID: user.ID, Username: user.Username}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		s.log.ErrorWithErr("token issue failed", err, "userID", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	s.setAuthCookie(c, token)
	s.log.InfoWith("user logged in", "userID", user.ID, "username", user.Username)
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
}

func (s *Server) handleLogout(c *gin.Context) {
	c.SetCookie(s.config.Auth.CookieName, "", -1, "/", "", s.config.Auth.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleProfile(c *gin.Context) {
	identity, err := s.identityFromRequest(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token"})
		return
	}

	c.JSON(http.StatusOK, identity)
}

func (s *Server) handlePeople(c *gin.Context) {
	users, err := s.store.ListUsers()
	if err != nil {
		s.log.ErrorWithErr("user listing failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	people := make([]gin.H, 0, len(users))
	for _, user := range users {
		people = append(people, gin.H{"id": user.ID, "username": user.Username})
	}
	c.JSON(http.StatusOK, people)
}

// handleMessages returns the full two-party conversation between the
// caller and the named user, oldest first.
func (s *Server) handleMessages(c *gin.Context) {
	identity, err := s.identityFromRequest(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token"})
		return
	}

	otherUserID := c.Param("userId")
	if otherUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id required"})
		return
	}

	messages, err := s.store.Conversation(identity.UserID, otherUserID)
	if err != nil {
		s.log.ErrorWithErr("conversation lookup failed", err,
			"userID", identity.UserID,
			"otherUserID", otherUserID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if messages == nil {
		messages = []*protocol.Message{}
	}

	c.JSON(http.StatusOK, messages)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.health.GetHealth(s.registry.Count()))
}
