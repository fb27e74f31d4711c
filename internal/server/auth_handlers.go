package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/artpar/httphub/internal/hub"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) register(c *gin.Context) {
	var body hub.Credentials
	if err := c.ShouldBindJSON(&body); err != nil || !hasAll(body.Name, body.OrgName, body.Password) {
		abortWithMessage(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), s.passwordCost)
	if err != nil {
		s.internalError(c, err)
		return
	}

	user, err := s.store.CreateUser(c, UserRecord{
		Name:         body.Name,
		OrgName:      body.OrgName,
		PasswordHash: string(hash),
	})
	if errors.Is(err, ErrConflict) {
		abortWithMessage(c, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}

	s.respondWithToken(c, http.StatusCreated, "User registered successfully", user)
}

func (s *Server) login(c *gin.Context) {
	var body hub.Credentials
	if err := c.ShouldBindJSON(&body); err != nil || !hasAll(body.Name, body.Password) {
		abortWithMessage(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	user, err := s.store.FindUserByLogin(c, body.Name)
	if errors.Is(err, ErrNotFound) {
		abortWithMessage(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
		abortWithMessage(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.respondWithToken(c, http.StatusCreated, "User login successfully", user)
}

func (s *Server) editProfile(c *gin.Context) {
	var body hub.Credentials
	if err := c.ShouldBindJSON(&body); err != nil || !hasAll(body.Name, body.OrgName) {
		abortWithMessage(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	update := UserRecord{ID: callerID(c), Name: body.Name, OrgName: body.OrgName}
	if body.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), s.passwordCost)
		if err != nil {
			s.internalError(c, err)
			return
		}
		update.PasswordHash = string(hash)
	}

	user, err := s.store.UpdateUser(c, update)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidID):
		abortWithMessage(c, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, ErrConflict):
		abortWithMessage(c, http.StatusConflict, "User already exists")
		return
	case err != nil:
		s.internalError(c, err)
		return
	}

	s.respondWithToken(c, http.StatusOK, "Profile updated successfully", user)
}

func (s *Server) respondWithToken(c *gin.Context, status int, message string, user UserRecord) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(status, hub.AuthResult{Message: message, Token: token, User: user.Public()})
}

// hasAll reports whether every value is non-blank.
func hasAll(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
