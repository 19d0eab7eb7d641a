package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"mvstories/internal/config"
	"mvstories/internal/engine"
	"mvstories/internal/library"
	"mvstories/internal/logging"
)

// CheckDirectoryAccess passes when path is a directory the current user can
// list, read and write.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(format string, args ...any) Result {
		return Result{Name: name, Detail: path + " (error: " + fmt.Sprintf(format, args...) + ")"}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail("does not exist")
	case err != nil:
		return fail("stat: %v", err)
	case !info.IsDir():
		return fail("is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail("insufficient permissions: %v", err)
	}
	return Result{Name: name, Passed: true, Detail: path + " (read/write ok)"}
}

// CheckLibrary opens the library database, applying pending migrations, and
// reads its stats.
func CheckLibrary(ctx context.Context, cfg *config.Config) Result {
	const name = "Library"

	store, err := library.Open(cfg, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.LibraryPath(), err)}
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", store.Path(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d sessions, %d stories)", store.Path(), stats.Sessions, stats.Stories)}
}

// CheckListenAddress verifies that addr can be bound. It fails when another
// process, such as a running "mvs serve", already holds the port.
func CheckListenAddress(name, addr string) Result {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", addr, err)}
	}
	_ = listener.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (available)", addr)}
}

// CheckViewerBundle verifies that the viewer script for version is served by
// the CDN. It uses a 10-second timeout and a single HEAD request.
func CheckViewerBundle(ctx context.Context, baseURL, version string) Result {
	const name = "Viewer bundle"

	if version == "" {
		version = engine.DefaultVersion
	}
	url := engine.BundleURL(baseURL, version, engine.ScriptFile)

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, url, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", url, err)}
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeFetchError(url, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("molstar %s reachable", version)}
	case resp.StatusCode == http.StatusNotFound:
		return Result{Name: name, Detail: fmt.Sprintf("molstar %s not published at %s", version, url)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (status %d)", url, resp.StatusCode)}
	}
}

func summarizeFetchError(url string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s (timed out)", url)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("%s (timed out)", url)
	}
	return fmt.Sprintf("%s (error: %v)", url, err)
}
