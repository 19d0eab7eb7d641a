package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mvstories/internal/library"
	"mvstories/internal/logging"
	"mvstories/internal/story"
	"mvstories/internal/storyerr"
	"mvstories/internal/textutil"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		MVSVersion:     s.cfg.Compiler.MVSVersion,
		MolstarVersion: s.svc.Engine.Version(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListSessions(c *gin.Context) {
	s.listItems(c, library.KindSession)
}

func (s *Server) handleListStories(c *gin.Context) {
	s.listItems(c, library.KindStory)
}

func (s *Server) listItems(c *gin.Context, kind library.Kind) {
	items, err := s.store.List(c.Request.Context(), kind)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if items == nil {
		items = []*library.Item{}
	}
	c.JSON(http.StatusOK, ItemListResponse{Items: items})
}

func (s *Server) handleGetSession(c *gin.Context) {
	item, ok := s.lookup(c, library.KindSession)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ItemResponse{Item: item})
}

func (s *Server) handleGetStory(c *gin.Context) {
	item, ok := s.lookup(c, library.KindStory)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ItemResponse{Item: item})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	data, st, ok := s.readContainer(c)
	if !ok {
		return
	}
	meta := metaFromQuery(c)
	item, err := s.store.Create(ctx, library.NewItem{
		Kind:        library.KindSession,
		Title:       titleOr(meta.Title, st),
		Description: valueOr(meta.Description),
		Tags:        tagsOr(meta.Tags),
		Creator:     strings.TrimSpace(c.Query("creator")),
		Format:      library.FormatMVStory,
		Data:        data,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ItemResponse{Item: item})
}

// handleUpdateSession replaces the container when a body is sent and applies
// any title, description, or tags query parameters.
func (s *Server) handleUpdateSession(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, ok := s.lookup(c, library.KindSession); !ok {
		return
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.writeError(c, err)
		return
	}
	meta := metaFromQuery(c)
	if len(data) == 0 && meta.Title == nil && meta.Description == nil && meta.Tags == nil {
		writeErrorMessage(c, http.StatusBadRequest, "validation", "nothing to update")
		return
	}

	var item *library.Item
	if len(data) > 0 {
		if _, err := s.svc.Codec.Unpack(ctx, data); err != nil {
			s.writeError(c, err)
			return
		}
		if item, err = s.store.ReplacePayload(ctx, id, library.FormatMVStory, data); err != nil {
			s.writeError(c, err)
			return
		}
	}
	if meta.Title != nil || meta.Description != nil || meta.Tags != nil {
		if item, err = s.store.UpdateMeta(ctx, id, meta); err != nil {
			s.writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, ItemResponse{Item: item})
}

// handleCreateStory compiles an uploaded container and publishes the result.
func (s *Server) handleCreateStory(c *gin.Context) {
	ctx := c.Request.Context()
	_, st, ok := s.readContainer(c)
	if !ok {
		return
	}
	state, err := s.svc.Compiler.CompileStory(ctx, st)
	if err != nil {
		s.writeError(c, err)
		return
	}
	payload, err := state.Bytes()
	if err != nil {
		s.writeError(c, err)
		return
	}
	meta := metaFromQuery(c)
	item, err := s.store.Create(ctx, library.NewItem{
		Kind:        library.KindStory,
		Title:       titleOr(meta.Title, st),
		Description: valueOr(meta.Description),
		Tags:        tagsOr(meta.Tags),
		Creator:     strings.TrimSpace(c.Query("creator")),
		Format:      library.Format(state.Format()),
		Data:        payload,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	logging.WithContext(ctx, s.logger).Info("story published",
		logging.String("item_id", item.ID),
		logging.String("format", string(item.Format)),
		logging.Int("snapshots", len(state.Data.Snapshots)),
	)
	c.JSON(http.StatusCreated, ItemResponse{Item: item})
}

func (s *Server) handleDelete(kind library.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.lookup(c, kind); !ok {
			return
		}
		removed, err := s.store.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			s.writeError(c, err)
			return
		}
		if !removed {
			writeErrorMessage(c, http.StatusNotFound, "not_found", string(kind)+" not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// handleData serves the stored payload with an ETag derived from its
// checksum.
func (s *Server) handleData(kind library.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := s.lookup(c, kind)
		if !ok {
			return
		}
		etag := `"` + item.Checksum + `"`
		c.Header("ETag", etag)
		if match := c.GetHeader("If-None-Match"); match != "" && etagMatches(match, etag) {
			c.Status(http.StatusNotModified)
			return
		}
		data, err := s.store.Payload(c.Request.Context(), item.ID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		filename := textutil.Slug(item.Title, string(kind)) + "." + string(item.Format)
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, item.Format.ContentType(), data)
	}
}

func (s *Server) lookup(c *gin.Context, kind library.Kind) (*library.Item, bool) {
	id := strings.TrimSpace(c.Param("id"))
	item, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	if item == nil || item.Kind != kind {
		writeErrorMessage(c, http.StatusNotFound, "not_found", string(kind)+" not found")
		return nil, false
	}
	c.Request = c.Request.WithContext(storyerr.WithStoryID(c.Request.Context(), item.ID))
	return item, true
}

// readContainer reads the request body and validates it as a container.
func (s *Server) readContainer(c *gin.Context) ([]byte, story.Story, bool) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.writeError(c, err)
		return nil, story.Story{}, false
	}
	if len(data) == 0 {
		writeErrorMessage(c, http.StatusBadRequest, "invalid_format", "request body must be an MVStory container")
		return nil, story.Story{}, false
	}
	st, err := s.svc.Codec.Unpack(c.Request.Context(), data)
	if err != nil {
		s.writeError(c, err)
		return nil, story.Story{}, false
	}
	return data, st, true
}

func metaFromQuery(c *gin.Context) library.MetaPatch {
	var patch library.MetaPatch
	if v, ok := c.GetQuery("title"); ok {
		v = strings.TrimSpace(v)
		patch.Title = &v
	}
	if v, ok := c.GetQuery("description"); ok {
		patch.Description = &v
	}
	if v, ok := c.GetQuery("tags"); ok {
		tags := splitTags(v)
		patch.Tags = &tags
	}
	return patch
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func titleOr(title *string, st story.Story) string {
	if title != nil && *title != "" {
		return *title
	}
	return st.Metadata.Title()
}

func valueOr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func tagsOr(tags *[]string) []string {
	if tags == nil {
		return nil
	}
	return *tags
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
