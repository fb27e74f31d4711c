package server

import (
	"errors"
	"net/http"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/hub"
	"github.com/gin-gonic/gin"
)

func (s *Server) listRequests(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		abortWithMessage(c, http.StatusBadRequest, "Invalid collection ID")
		return
	}

	requests, err := s.store.ListRequests(c, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if requests == nil {
		requests = []hub.SavedRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (s *Server) createRequest(c *gin.Context) {
	var body hub.SavedRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validID(body.Collection) {
		abortWithMessage(c, http.StatusBadRequest, "Valid collection ID is required")
		return
	}
	if !hasAll(body.Name, body.Method, body.URL) {
		abortWithMessage(c, http.StatusBadRequest, "Name, method and url are required")
		return
	}
	if msg := normalizeRequest(&body); msg != "" {
		abortWithMessage(c, http.StatusBadRequest, msg)
		return
	}
	body.ID = ""

	request, err := s.store.CreateRequest(c, body)
	if errors.Is(err, ErrNotFound) {
		abortWithMessage(c, http.StatusNotFound, "Collection not found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Request created", "request": request})
}

func (s *Server) getRequest(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		abortWithMessage(c, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, err := s.store.GetRequest(c, id)
	if errors.Is(err, ErrNotFound) {
		abortWithMessage(c, http.StatusNotFound, "Request not found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": request})
}

func (s *Server) updateRequest(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		abortWithMessage(c, http.StatusBadRequest, "Invalid request ID")
		return
	}
	var patch hub.RequestPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validatePatch(&patch); msg != "" {
		abortWithMessage(c, http.StatusBadRequest, msg)
		return
	}

	request, err := s.store.UpdateRequest(c, id, patch)
	if errors.Is(err, ErrNotFound) {
		abortWithMessage(c, http.StatusNotFound, "Request not found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request updated", "request": request})
}

func (s *Server) deleteRequest(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		abortWithMessage(c, http.StatusBadRequest, "Invalid request ID")
		return
	}

	err := s.store.DeleteRequest(c, id)
	if errors.Is(err, ErrNotFound) {
		abortWithMessage(c, http.StatusNotFound, "Request not found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request deleted successfully"})
}

// normalizeRequest fills document defaults and returns a message when a
// field holds a value outside its enum.
func normalizeRequest(r *hub.SavedRequest) string {
	method, err := core.ParseMethod(r.Method)
	if err != nil {
		return "Invalid method"
	}
	r.Method = string(method)
	if r.Headers == nil {
		r.Headers = []core.KeyValue{}
	}
	if r.QueryParams == nil {
		r.QueryParams = []core.KeyValue{}
	}
	if msg := normalizeBody(&r.Body); msg != "" {
		return msg
	}
	return normalizeAuth(&r.Auth)
}

func validatePatch(p *hub.RequestPatch) string {
	if p.Name != nil && !hasAll(*p.Name) {
		return "Name cannot be empty"
	}
	if p.URL != nil && !hasAll(*p.URL) {
		return "URL cannot be empty"
	}
	if p.Method != nil {
		method, err := core.ParseMethod(*p.Method)
		if err != nil {
			return "Invalid method"
		}
		m := string(method)
		p.Method = &m
	}
	if p.Body != nil {
		if msg := normalizeBody(p.Body); msg != "" {
			return msg
		}
	}
	if p.Auth != nil {
		return normalizeAuth(p.Auth)
	}
	return ""
}

func normalizeBody(b *hub.RequestBody) string {
	switch b.Mode {
	case "":
		b.Mode = hub.BodyModeRaw
	case hub.BodyModeRaw, hub.BodyModeFormData:
	default:
		return "Invalid body mode"
	}
	if b.RawType == "" {
		b.RawType = string(core.FormatText)
	} else if _, err := core.ParseRawFormat(b.RawType); err != nil {
		return "Invalid raw type"
	}
	if b.FormData == nil {
		b.FormData = []hub.FormField{}
	}
	for i := range b.FormData {
		switch b.FormData[i].Type {
		case "":
			b.FormData[i].Type = string(core.FormText)
		case string(core.FormText), string(core.FormFile):
		default:
			return "Invalid form data type"
		}
	}
	return ""
}

func normalizeAuth(a *hub.RequestAuth) string {
	switch a.Type {
	case "":
		a.Type = hub.AuthInherit
	case hub.AuthInherit, hub.AuthNoAuth,
		string(core.AuthBasic), string(core.AuthBearer), string(core.AuthOAuth2):
	case string(core.AuthAPIKey):
		if a.APIKey != nil {
			switch core.APIKeyLocation(a.APIKey.In) {
			case "":
				a.APIKey.In = string(core.APIKeyInHeader)
			case core.APIKeyInHeader, core.APIKeyInQuery:
			default:
				return "Invalid API key location"
			}
		}
	default:
		return "Invalid auth type"
	}
	return ""
}
