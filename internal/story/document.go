package story

import "sync"

// Document owns one Story value and serializes every mutation of it.
type Document struct {
	mu    sync.RWMutex
	story Story
}

// New returns a Document holding the canonical empty story.
func New() *Document {
	return &Document{story: Empty()}
}

// NewFromStory returns a Document holding s without copying it. Mutators
// never write into the slices of the held value, so several Documents may
// start from the same Story. No minimum scene count is enforced here; only
// RemoveScene refuses to drop below one.
func NewFromStory(s Story) *Document {
	if s.Metadata == nil {
		s.Metadata = Metadata{}
	}
	return &Document{story: s}
}

// Story returns the held value. Callers must treat it as read-only; use
// Snapshot for a copy that can be modified freely.
func (d *Document) Story() Story {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.story
}

// Snapshot returns a deep copy of the held story.
func (d *Document) Snapshot() Story {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.story.Clone()
}

// SetStory replaces the held value wholesale.
func (d *Document) SetStory(s Story) {
	if s.Metadata == nil {
		s.Metadata = Metadata{}
	}
	d.mu.Lock()
	d.story = s
	d.mu.Unlock()
}

// Clone returns an independent Document holding a deep copy of the story.
func (d *Document) Clone() *Document {
	return &Document{story: d.Snapshot()}
}

// UpdateMetadata shallow-merges patch into the story metadata.
func (d *Document) UpdateMetadata(patch map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := make(Metadata, len(d.story.Metadata)+len(patch))
	for k, v := range d.story.Metadata {
		next[k] = v
	}
	for k, v := range patch {
		next[k] = cloneValue(v)
	}
	d.story.Metadata = next
}

// SetGlobalJavaScript replaces the story-level script.
func (d *Document) SetGlobalJavaScript(text string) {
	d.mu.Lock()
	d.story.JavaScript = text
	d.mu.Unlock()
}
