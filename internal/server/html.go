package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mvstories/internal/bundle"
	"mvstories/internal/engine"
	"mvstories/internal/library"
	"mvstories/internal/mvs"
)

// handleStoryHTML renders a playback page for a published story. The viewer
// bundle is inlined when the engine is configured for offline pages.
func (s *Server) handleStoryHTML(c *gin.Context) {
	ctx := c.Request.Context()
	item, ok := s.lookup(c, library.KindStory)
	if !ok {
		return
	}
	data, err := s.store.Payload(ctx, item.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	state, err := mvs.ParseState(mvs.Format(item.Format), data)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var rt *engine.Runtime
	if s.svc.Inline {
		if rt, err = s.svc.Engine.Ready(ctx); err != nil {
			s.writeError(c, err)
			return
		}
	} else {
		rt = s.svc.Engine.Linked()
	}

	page, err := bundle.RenderBytes(bundle.Input{State: state, Runtime: rt}, bundle.Options{
		Title:  item.Title,
		Mode:   bundle.ModeEmbed,
		Inline: s.svc.Inline,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
