package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mvstories/internal/container"
	"mvstories/internal/engine"
	"mvstories/internal/library"
	"mvstories/internal/server"
	"mvstories/internal/services"
	"mvstories/internal/story"
	"mvstories/internal/testsupport"
)

const viewerScript = "window.mvsStories = { loadFromData: function () {} };"

type harness struct {
	srv   *server.Server
	store *library.Store
	token string
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenLibrary(t, cfg)
	svc := services.New(cfg, nil, services.WithEngineSource(engine.StaticSource{
		Script: []byte(viewerScript),
		Style:  []byte("body { margin: 0; }"),
	}))
	srv, err := server.New(cfg, store, server.WithServices(svc))
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return &harness{srv: srv, store: store, token: cfg.Paths.APIToken}
}

func (h *harness) do(t *testing.T, method, target string, body []byte, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestHealthIsPublic(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))
	h.token = ""

	w := h.do(t, http.MethodGet, "/api/health", nil)
	expectStatus(t, w, http.StatusOK)
	resp := decode[server.HealthResponse](t, w)
	if resp.Status != "ok" || resp.MVSVersion == "" {
		t.Fatalf("unexpected health response %+v", resp)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestAuthRequiresBearerToken(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))

	h.token = ""
	expectStatus(t, h.do(t, http.MethodGet, "/api/session", nil), http.StatusUnauthorized)
	h.token = "wrong"
	expectStatus(t, h.do(t, http.MethodGet, "/api/session", nil), http.StatusUnauthorized)
	h.token = "secret"
	expectStatus(t, h.do(t, http.MethodGet, "/api/session", nil), http.StatusOK)
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)
	packed := testsupport.MustPackSample(t)

	w := h.do(t, http.MethodPost, "/api/session?tags=protein,%20demo", packed)
	expectStatus(t, w, http.StatusCreated)
	created := decode[server.ItemResponse](t, w).Item
	if created.Title != "Test Story" || created.Kind != library.KindSession || created.Format != library.FormatMVStory {
		t.Fatalf("unexpected created item %+v", created)
	}
	if len(created.Tags) != 2 || created.Tags[1] != "demo" {
		t.Fatalf("unexpected tags %v", created.Tags)
	}

	list := decode[server.ItemListResponse](t, h.do(t, http.MethodGet, "/api/session", nil))
	if len(list.Items) != 1 || list.Items[0].ID != created.ID {
		t.Fatalf("unexpected session list %+v", list.Items)
	}

	w = h.do(t, http.MethodGet, "/api/session/"+created.ID+"/data", nil)
	expectStatus(t, w, http.StatusOK)
	if !bytes.Equal(w.Body.Bytes(), packed) {
		t.Fatal("session data does not match the uploaded container")
	}
	etag := w.Header().Get("ETag")
	if etag != `"`+created.Checksum+`"` {
		t.Fatalf("unexpected etag %q", etag)
	}
	expectStatus(t, h.do(t, http.MethodGet, "/api/session/"+created.ID+"/data", nil, "If-None-Match", etag), http.StatusNotModified)

	w = h.do(t, http.MethodPut, "/api/session/"+created.ID+"?title=Renamed", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[server.ItemResponse](t, w).Item; got.Title != "Renamed" || got.Version != 1 {
		t.Fatalf("unexpected item after rename %+v", got)
	}

	edited := testsupport.SampleStory()
	edited.Scenes = edited.Scenes[:1]
	repacked, err := container.Pack(context.Background(), edited)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	w = h.do(t, http.MethodPut, "/api/session/"+created.ID, repacked)
	expectStatus(t, w, http.StatusOK)
	if got := decode[server.ItemResponse](t, w).Item; got.Version != 2 || got.Checksum == created.Checksum {
		t.Fatalf("unexpected item after payload replace %+v", got)
	}

	expectStatus(t, h.do(t, http.MethodPut, "/api/session/"+created.ID, nil), http.StatusBadRequest)
	expectStatus(t, h.do(t, http.MethodDelete, "/api/session/"+created.ID, nil), http.StatusNoContent)
	expectStatus(t, h.do(t, http.MethodGet, "/api/session/"+created.ID, nil), http.StatusNotFound)
	expectStatus(t, h.do(t, http.MethodDelete, "/api/session/"+created.ID, nil), http.StatusNotFound)
}

func TestCreateSessionRejectsInvalidContainer(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/session", []byte("definitely not a container"))
	expectStatus(t, w, http.StatusBadRequest)
	if resp := decode[server.ErrorResponse](t, w); resp.Code != "invalid_format" || resp.RequestID == "" {
		t.Fatalf("unexpected error response %+v", resp)
	}
	expectStatus(t, h.do(t, http.MethodPost, "/api/session", []byte{}), http.StatusBadRequest)
}

func TestCreateSessionEnforcesBodyLimit(t *testing.T) {
	h := newHarness(t, testsupport.WithMaxUploadMB(1))

	w := h.do(t, http.MethodPost, "/api/session", make([]byte, 2<<20))
	expectStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestPublishStory(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/story?description=Kinase%20tour", testsupport.MustPackSample(t))
	expectStatus(t, w, http.StatusCreated)
	item := decode[server.ItemResponse](t, w).Item
	if item.Kind != library.KindStory || item.Format != library.FormatMVSX || item.Description != "Kinase tour" {
		t.Fatalf("unexpected story item %+v", item)
	}

	w = h.do(t, http.MethodGet, "/api/story/"+item.ID+"/data", nil)
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("unexpected content type %q", ct)
	}

	w = h.do(t, http.MethodGet, "/api/story/"+item.ID+"/html", nil)
	expectStatus(t, w, http.StatusOK)
	page := w.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "<title>Test Story</title>", viewerScript, "mvsx"} {
		if !strings.Contains(page, want) {
			t.Fatalf("playback page missing %q", want)
		}
	}

	expectStatus(t, h.do(t, http.MethodGet, "/api/session/"+item.ID, nil), http.StatusNotFound)

	stats := decode[library.Stats](t, h.do(t, http.MethodGet, "/api/stats", nil))
	if stats.Stories != 1 || stats.Sessions != 0 || stats.TotalBytes != item.Size {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPublishStoryReportsSceneFailures(t *testing.T) {
	h := newHarness(t)
	broken := story.Story{
		Metadata: story.Metadata{"title": "Broken"},
		Scenes: []story.Scene{
			{ID: "ok", Header: "Fine", JavaScript: "builder.download({ url: 'https://example.org/a.cif' }).parse({ format: 'mmcif' });"},
			{ID: "bad", Header: "Boom", JavaScript: "throw new Error('boom');"},
		},
	}
	packed, err := container.Pack(context.Background(), broken)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	w := h.do(t, http.MethodPost, "/api/story", packed)
	expectStatus(t, w, http.StatusUnprocessableEntity)
	resp := decode[server.ErrorResponse](t, w)
	if len(resp.Scenes) != 1 {
		t.Fatalf("expected one failed scene, got %+v", resp.Scenes)
	}
	if got := resp.Scenes[0]; got.SceneID != "bad" || got.Index != 1 || got.Code != "script" || !strings.Contains(got.Error, "boom") {
		t.Fatalf("unexpected scene detail %+v", got)
	}

	list := decode[server.ItemListResponse](t, h.do(t, http.MethodGet, "/api/story", nil))
	if len(list.Items) != 0 {
		t.Fatalf("failed publish must not store an item, got %d", len(list.Items))
	}
}

func TestRateLimitRejectsBursts(t *testing.T) {
	h := newHarness(t, testsupport.WithRateLimit(0.01, 2))

	expectStatus(t, h.do(t, http.MethodGet, "/api/stats", nil), http.StatusOK)
	expectStatus(t, h.do(t, http.MethodGet, "/api/stats", nil), http.StatusOK)
	w := h.do(t, http.MethodGet, "/api/stats", nil)
	expectStatus(t, w, http.StatusTooManyRequests)
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected a Retry-After header")
	}
	expectStatus(t, h.do(t, http.MethodGet, "/api/health", nil), http.StatusOK)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))
	h.token = ""

	w := h.do(t, http.MethodOptions, "/api/session", nil, "Origin", "https://viewer.example.org")
	expectStatus(t, w, http.StatusNoContent)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestStartServesUntilCancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + h.srv.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	h.srv.Stop()
	if h.srv.Addr() != "" {
		t.Fatal("expected the listener to be released")
	}
}
