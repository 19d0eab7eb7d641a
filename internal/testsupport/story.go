package testsupport

import (
	"mvstories/internal/story"
)

// SampleScript builds a small structure scene that compiles without network access.
const SampleScript = `builder
  .download({ url: 'https://files.wwpdb.org/download/1cbs.cif' })
  .parse({ format: 'mmcif' })
  .modelStructure({})
  .component({ selector: 'polymer' })
  .representation({ type: 'cartoon' })
  .color({ color: 'green' });`

// SampleStory returns a two-scene story with one small asset.
func SampleStory() story.Story {
	return story.Story{
		Metadata:   story.Metadata{"title": "Test Story"},
		JavaScript: "const shared = 1;",
		Scenes: []story.Scene{
			{ID: "scene1", Header: "Scene 1", Key: "s1", Description: "# First\n\nOverview.", JavaScript: SampleScript},
			{ID: "scene2", Header: "Scene 2", Key: "s2", Description: "second", JavaScript: "builder;",
				Camera: &story.Camera{Mode: "perspective", Target: story.Vec3{0, 0, 0}, Position: story.Vec3{0, 0, 40}, Up: story.Vec3{0, 1, 0}, FOV: 45}},
		},
		Assets: []story.Asset{{Name: "test.pdb", Content: []byte{1, 2, 3, 4, 5}}},
	}
}
