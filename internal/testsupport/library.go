package testsupport

import (
	"context"
	"testing"

	"mvstories/internal/config"
	"mvstories/internal/container"
	"mvstories/internal/library"
	"mvstories/internal/logging"
)

// MustOpenLibrary opens a library.Store for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustPackSample encodes SampleStory as an MVStory container.
func MustPackSample(t testing.TB) []byte {
	t.Helper()

	data, err := container.Pack(context.Background(), SampleStory())
	if err != nil {
		t.Fatalf("container.Pack: %v", err)
	}
	return data
}

// MustCreateSession stores SampleStory as a session item.
func MustCreateSession(t testing.TB, store *library.Store, title string) *library.Item {
	t.Helper()

	item, err := store.Create(context.Background(), library.NewItem{
		Kind:   library.KindSession,
		Title:  title,
		Format: library.FormatMVStory,
		Data:   MustPackSample(t),
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return item
}
