package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mvstories/internal/library"
	"mvstories/internal/logging"
	"mvstories/internal/mvs"
	"mvstories/internal/storyerr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string        `json:"error"`
	Code      string        `json:"code"`
	RequestID string        `json:"request_id,omitempty"`
	Scenes    []SceneDetail `json:"scenes,omitempty"`
}

// SceneDetail describes one scene that failed to compile.
type SceneDetail struct {
	SceneID string `json:"scene_id"`
	Index   int    `json:"index"`
	Header  string `json:"header,omitempty"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// ItemResponse wraps a single library item.
type ItemResponse struct {
	Item *library.Item `json:"item"`
}

// ItemListResponse wraps a list of library items.
type ItemListResponse struct {
	Items []*library.Item `json:"items"`
}

// HealthResponse reports that the server is up.
type HealthResponse struct {
	Status         string `json:"status"`
	MVSVersion     string `json:"mvs_version"`
	MolstarVersion string `json:"molstar_version"`
}

func requestID(c *gin.Context) string {
	if id, ok := storyerr.RequestIDFromContext(c.Request.Context()); ok {
		return id
	}
	return ""
}

func writeErrorMessage(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID(c),
	})
}

// writeError maps err onto an HTTP status and writes the error body.
func (s *Server) writeError(c *gin.Context, err error) {
	status, code := classify(err)
	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: requestID(c),
	}
	var compileErr *mvs.CompileError
	if errors.As(err, &compileErr) {
		resp.Error = "one or more scenes failed to compile"
		for _, scene := range compileErr.Scenes {
			_, sceneCode := classify(scene.Err)
			resp.Scenes = append(resp.Scenes, SceneDetail{
				SceneID: scene.SceneID,
				Index:   scene.Index,
				Header:  scene.Header,
				Error:   scene.Err.Error(),
				Code:    sceneCode,
			})
		}
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), s.logger), "request error", "api_error",
			logging.String("path", c.Request.URL.Path),
			logging.Error(err),
		)
		resp.Error = "internal server error"
	}
	c.AbortWithStatusJSON(status, resp)
}

func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, storyerr.ErrInvalidFormat):
		return http.StatusBadRequest, "invalid_format"
	case errors.Is(err, storyerr.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, storyerr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, storyerr.ErrTimeout):
		return http.StatusUnprocessableEntity, "timeout"
	case errors.Is(err, storyerr.ErrScript):
		return http.StatusUnprocessableEntity, "script"
	}
	return http.StatusInternalServerError, "internal"
}
