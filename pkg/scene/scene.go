package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// ErrUnknownScene is returned by Create for a name with no registered preset
var ErrUnknownScene = errors.New("unknown scene")

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	World          *geometry.HittableList // Objects in the scene
	CameraConfig   renderer.CameraConfig
	SamplingConfig renderer.SamplingConfig
	Background     renderer.Background
}

// NewRaytracer builds a camera and raytracer for the scene
func (s *Scene) NewRaytracer(logger core.Logger) (*renderer.Raytracer, error) {
	camera, err := renderer.NewCamera(s.CameraConfig)
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", s.Name, err)
	}

	var world geometry.Shape
	if s.World != nil {
		world = s.World
	}

	rt, err := renderer.NewRaytracer(world, camera, s.SamplingConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", s.Name, err)
	}
	rt.SetBackground(s.Background)
	return rt, nil
}

// GetPrimitiveCount returns the number of spheres in the scene
func (s *Scene) GetPrimitiveCount() int {
	if s.World == nil {
		return 0
	}
	return s.World.Len()
}

var builtInScenes = map[string]func() *Scene{
	"default": NewDefaultScene,
	"glass":   NewGlassScene,
	"random":  func() *Scene { return NewRandomScene(renderer.DefaultSamplingConfig().Seed) },
}

// Create returns a fresh instance of the named built-in scene
func Create(name string) (*Scene, error) {
	factory, ok := builtInScenes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownScene, name, Names())
	}
	return factory(), nil
}

// Names lists the built-in scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(builtInScenes))
	for name := range builtInScenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
