package devserver

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"mvstories/internal/library"
	"mvstories/internal/mvs"
)

const sessionFile = "session.mvstory"

//go:embed templates/*.tmpl reload.js
var files embed.FS

var (
	pageTemplates = template.Must(template.ParseFS(files, "templates/*.tmpl"))
	reloadScript  = mustRead("reload.js")
)

func mustRead(name string) string {
	data, err := files.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func (s *Server) routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), noCache())

	r.GET("/", s.handleIndex)
	r.GET("/index.html", s.handleIndex)
	r.GET("/story.mvsj", s.handleStateFile(mvs.FormatMVSJ))
	r.GET("/story.mvsx", s.handleStateFile(mvs.FormatMVSX))
	r.GET("/"+sessionFile, s.handleSession)
	r.GET("/api/status", s.handleStatus)
	r.GET("/ws", func(c *gin.Context) { s.hub.serve(c.Writer, c.Request) })
	return r
}

// noCache stamps permissive CORS and disables caching so the viewer always
// sees the latest build.
func noCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	b := s.currentBuild()
	if b == nil {
		s.renderFailure(c)
		return
	}
	if s.DirectServe {
		s.renderRedirect(c, b)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", b.page)
}

func (s *Server) handleStateFile(format mvs.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		b := s.currentBuild()
		if b == nil {
			c.String(http.StatusServiceUnavailable, "story has not been built yet")
			return
		}
		if b.state.Format() != format {
			c.String(http.StatusNotFound, "story is served as story.%s", b.state.Format())
			return
		}
		c.Header("Content-Disposition", `inline; filename="story.`+string(format)+`"`)
		c.Data(http.StatusOK, library.Format(format).ContentType(), b.payload)
	}
}

func (s *Server) handleSession(c *gin.Context) {
	b := s.currentBuild()
	if b == nil {
		c.String(http.StatusServiceUnavailable, "story has not been built yet")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+sessionFile+`"`)
	c.Data(http.StatusOK, library.FormatMVStory.ContentType(), b.container)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Status())
}

func (s *Server) renderFailure(c *gin.Context) {
	status := s.Status()
	title := status.Title
	if title == "" {
		title = "Story preview"
	}
	var buf bytes.Buffer
	err := pageTemplates.ExecuteTemplate(&buf, "error.html.tmpl", map[string]any{
		"Title":  title,
		"Error":  status.Error,
		"Scenes": status.Failures,
		"Reload": template.JS(reloadScript),
	})
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusServiceUnavailable, "text/html; charset=utf-8", buf.Bytes())
}

// renderRedirect points the hosted viewer at this server's data file.
func (s *Server) renderRedirect(c *gin.Context, b *build) {
	format := b.state.Format()
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	dataURL := scheme + "://" + c.Request.Host + dataPath(format)
	viewer := s.ViewerURL + "?" + string(format) + "-url=" + url.QueryEscape(dataURL)

	var buf bytes.Buffer
	err := pageTemplates.ExecuteTemplate(&buf, "redirect.html.tmpl", map[string]any{
		"Title":     b.title,
		"ViewerURL": viewer,
	})
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
