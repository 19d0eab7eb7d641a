package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mvstories/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		path   string
		passed bool
		detail string
	}{
		{"writable directory", root, true, "read/write ok"},
		{"missing", filepath.Join(root, "nope"), false, "does not exist"},
		{"regular file", file, false, "is not a directory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckDirectoryAccess("data", tc.path)
			if got.Passed != tc.passed || !strings.Contains(got.Detail, tc.detail) {
				t.Fatalf("CheckDirectoryAccess(%s) = %+v, want passed=%v detail containing %q", tc.path, got, tc.passed, tc.detail)
			}
			if got.Name != "data" {
				t.Fatalf("unexpected name %q", got.Name)
			}
		})
	}
}

func TestCheckListenAddress(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	if result := CheckListenAddress("bind", listener.Addr().String()); result.Passed {
		t.Fatal("expected failure for a bound address")
	}
	if result := CheckListenAddress("bind", "127.0.0.1:0"); !result.Passed {
		t.Fatalf("expected pass for a free port, got: %s", result.Detail)
	}
}

func TestCheckViewerBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if strings.Contains(r.URL.Path, "molstar@9.9.9") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckViewerBundle(context.Background(), srv.URL, "4.18.0"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := CheckViewerBundle(context.Background(), srv.URL, "9.9.9")
	if result.Passed || !strings.Contains(result.Detail, "not published") {
		t.Fatalf("expected missing version failure, got: %+v", result)
	}
}

func TestRunAllWithoutConfig(t *testing.T) {
	if got := RunAll(context.Background(), nil); got != nil {
		t.Fatalf("expected no results, got %v", got)
	}
}

func TestRunAllHealthy(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	t.Cleanup(cdn.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Engine.CDNBaseURL = cdn.URL
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if Failed(results) {
		for _, r := range results {
			t.Logf("%s passed=%v: %s", r.Name, r.Passed, r.Detail)
		}
		t.Fatal("expected every check to pass")
	}
}

func TestRunAllReportsMissingDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Engine.CDNBaseURL = "http://127.0.0.1:1"

	results := RunAll(context.Background(), cfg)
	if !Failed(results) {
		t.Fatal("expected failures before directories exist")
	}
	if results[0].Passed {
		t.Fatalf("expected data directory check to fail: %+v", results[0])
	}
}
