package mvs

import (
	"math"

	"mvstories/internal/story"
)

// adjustedCameraPosition moves the camera along its view direction so the
// framed region matches the viewer's field-of-view convention.
func adjustedCameraPosition(cam story.Camera) story.Vec3 {
	fov := cam.FOV
	if fov > 2*math.Pi {
		fov = fov * math.Pi / 180
	}
	if fov <= 0 {
		return cam.Position
	}
	var f float64
	if cam.Orthographic() {
		f = 1 / (2 * math.Tan(fov/2))
	} else {
		f = 1 / (2 * math.Sin(fov/2))
	}
	if f == 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return cam.Position
	}
	var out story.Vec3
	for i := range out {
		out[i] = cam.Target[i] + (cam.Position[i]-cam.Target[i])/f
	}
	return out
}

func cameraParams(cam story.Camera) map[string]any {
	pos := adjustedCameraPosition(cam)
	return map[string]any{
		"target":   []float64{cam.Target[0], cam.Target[1], cam.Target[2]},
		"position": []float64{pos[0], pos[1], pos[2]},
		"up":       []float64{cam.Up[0], cam.Up[1], cam.Up[2]},
	}
}
