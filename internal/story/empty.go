package story

import "github.com/google/uuid"

// Empty returns the canonical empty story: one default scene, no assets, and
// an empty global script.
func Empty() Story {
	return Story{
		Metadata:   Metadata{"title": DefaultStoryTitle},
		JavaScript: "",
		Scenes:     []Scene{DefaultScene(newSceneID())},
		Assets:     []Asset{},
	}
}

// DefaultScene returns a scene populated with default field values.
func DefaultScene(id string) Scene {
	return Scene{
		ID:     id,
		Header: DefaultSceneHeader,
	}
}

func newSceneID() string {
	return uuid.NewString()
}
