package server

import (
	"errors"
	"net/http"

	"github.com/artpar/httphub/internal/hub"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type collectionBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
}

func (s *Server) listCollections(c *gin.Context) {
	collections, err := s.store.ListCollections(c, c.Param("userId"))
	if err != nil && !errors.Is(err, ErrInvalidID) {
		s.internalError(c, err)
		return
	}
	if collections == nil {
		collections = []hub.Collection{}
	}
	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

func (s *Server) createCollection(c *gin.Context) {
	var body collectionBody
	if err := c.ShouldBindJSON(&body); err != nil || !hasAll(body.Name, body.Description) {
		abortWithMessage(c, http.StatusBadRequest, "Name and description are required")
		return
	}
	if body.CreatedBy == "" {
		body.CreatedBy = callerID(c)
	}
	if !validID(body.CreatedBy) {
		abortWithMessage(c, http.StatusBadRequest, "Invalid createdBy")
		return
	}

	collection, err := s.store.CreateCollection(c, hub.Collection{
		Name:        body.Name,
		Description: body.Description,
		CreatedBy:   body.CreatedBy,
	})
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Collection created", "collection": collection})
}

func (s *Server) renameCollection(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		abortWithMessage(c, http.StatusBadRequest, "Invalid collection ID")
		return
	}
	var body collectionBody
	if err := c.ShouldBindJSON(&body); err != nil || !hasAll(body.Name, body.Description) {
		abortWithMessage(c, http.StatusBadRequest, "Name and description are required")
		return
	}

	collection, err := s.store.RenameCollection(c, id, body.Name, body.Description)
	if errors.Is(err, ErrNotFound) {
		abortWithMessage(c, http.StatusNotFound, "Collection not found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Collection updated", "collection": collection})
}

func (s *Server) deleteCollection(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		abortWithMessage(c, http.StatusBadRequest, "Invalid collection ID")
		return
	}

	err := s.store.DeleteCollection(c, id)
	if errors.Is(err, ErrNotFound) {
		abortWithMessage(c, http.StatusNotFound, "Collection not found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Collection deleted successfully"})
}

func validID(id string) bool {
	return primitive.IsValidObjectID(id)
}
