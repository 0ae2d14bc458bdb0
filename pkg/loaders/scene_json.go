package loaders

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// ErrInvalidScene is returned for scene documents that parse but cannot be built
var ErrInvalidScene = errors.New("invalid scene")

// Vec3JSON is a vector written as [x, y, z]
type Vec3JSON [3]float64

func (v Vec3JSON) vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

func toVec3JSON(v core.Vec3) Vec3JSON {
	return Vec3JSON{v.X, v.Y, v.Z}
}

type CameraJSON struct {
	LookFrom      Vec3JSON `json:"lookFrom"`
	LookAt        Vec3JSON `json:"lookAt"`
	Up            Vec3JSON `json:"up"`
	Width         int      `json:"width"`
	AspectRatio   float64  `json:"aspectRatio"`
	VFov          float64  `json:"vfov"`
	DefocusAngle  float64  `json:"defocusAngle,omitempty"`
	FocusDistance float64  `json:"focusDistance,omitempty"`
}

type SamplingJSON struct {
	SamplesPerPixel int   `json:"samplesPerPixel"`
	MaxDepth        int   `json:"maxDepth"`
	Seed            int64 `json:"seed"`
}

type BackgroundJSON struct {
	Top    Vec3JSON `json:"top"`
	Bottom Vec3JSON `json:"bottom"`
}

// MaterialJSON describes one named material. Type is "lambertian", "metal" or "dielectric".
type MaterialJSON struct {
	Type            string   `json:"type"`
	Albedo          Vec3JSON `json:"albedo,omitempty"`
	Fuzz            float64  `json:"fuzz,omitempty"`
	RefractionIndex float64  `json:"refractionIndex,omitempty"`
}

type SphereJSON struct {
	Center   Vec3JSON `json:"center"`
	Radius   float64  `json:"radius"`
	Material string   `json:"material"`
}

// SceneJSON is the on-disk scene document
type SceneJSON struct {
	Name       string                  `json:"name"`
	Camera     CameraJSON              `json:"camera"`
	Sampling   SamplingJSON            `json:"sampling"`
	Background BackgroundJSON          `json:"background"`
	Materials  map[string]MaterialJSON `json:"materials"`
	Spheres    []SphereJSON            `json:"spheres"`
}

// defaultSceneJSON holds the values used for fields a document leaves out
func defaultSceneJSON() SceneJSON {
	camera := renderer.DefaultCameraConfig()
	sampling := renderer.DefaultSamplingConfig()
	background := renderer.DefaultBackground()

	return SceneJSON{
		Camera: CameraJSON{
			LookFrom:      toVec3JSON(camera.Center),
			LookAt:        toVec3JSON(camera.LookAt),
			Up:            toVec3JSON(camera.Up),
			Width:         camera.Width,
			AspectRatio:   camera.AspectRatio,
			VFov:          camera.VFov,
			DefocusAngle:  camera.DefocusAngle,
			FocusDistance: camera.FocusDistance,
		},
		Sampling: SamplingJSON{
			SamplesPerPixel: sampling.SamplesPerPixel,
			MaxDepth:        sampling.MaxDepth,
			Seed:            sampling.Seed,
		},
		Background: BackgroundJSON{
			Top:    toVec3JSON(background.Top),
			Bottom: toVec3JSON(background.Bottom),
		},
	}
}

// LoadScene reads a JSON scene file. The scene is named after the file when
// the document does not set a name.
func LoadScene(path string) (*scene.Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	s, err := ParseScene(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// ParseScene decodes a JSON scene document and builds the scene it describes
func ParseScene(r io.Reader) (*scene.Scene, error) {
	doc := defaultSceneJSON()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return doc.Build()
}

// Build converts the document into a scene, validating camera, sampling and material references
func (doc SceneJSON) Build() (*scene.Scene, error) {
	materials := make(map[string]material.Material, len(doc.Materials))
	for name, m := range doc.Materials {
		built, err := m.build()
		if err != nil {
			return nil, fmt.Errorf("%w: material %q: %v", ErrInvalidScene, name, err)
		}
		materials[name] = built
	}

	world := geometry.NewHittableList()
	for i, sphere := range doc.Spheres {
		m, ok := materials[sphere.Material]
		if !ok {
			return nil, fmt.Errorf("%w: sphere %d references unknown material %q", ErrInvalidScene, i, sphere.Material)
		}
		if sphere.Radius == 0 {
			return nil, fmt.Errorf("%w: sphere %d has zero radius", ErrInvalidScene, i)
		}
		world.Add(geometry.NewSphere(sphere.Center.vec3(), sphere.Radius, m))
	}

	cameraConfig := renderer.CameraConfig{
		Center:        doc.Camera.LookFrom.vec3(),
		LookAt:        doc.Camera.LookAt.vec3(),
		Up:            doc.Camera.Up.vec3(),
		Width:         doc.Camera.Width,
		AspectRatio:   doc.Camera.AspectRatio,
		VFov:          doc.Camera.VFov,
		DefocusAngle:  doc.Camera.DefocusAngle,
		FocusDistance: doc.Camera.FocusDistance,
	}
	if err := cameraConfig.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	samplingConfig := renderer.DefaultSamplingConfig()
	samplingConfig.SamplesPerPixel = doc.Sampling.SamplesPerPixel
	samplingConfig.MaxDepth = doc.Sampling.MaxDepth
	samplingConfig.Seed = doc.Sampling.Seed
	if err := samplingConfig.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	return &scene.Scene{
		Name:           doc.Name,
		World:          world,
		CameraConfig:   cameraConfig,
		SamplingConfig: samplingConfig,
		Background: renderer.Background{
			Top:    doc.Background.Top.vec3(),
			Bottom: doc.Background.Bottom.vec3(),
		},
	}, nil
}

func (m MaterialJSON) build() (material.Material, error) {
	switch strings.ToLower(m.Type) {
	case "lambertian":
		return material.NewLambertian(m.Albedo.vec3()), nil
	case "metal":
		return material.NewMetal(m.Albedo.vec3(), m.Fuzz), nil
	case "dielectric":
		if m.RefractionIndex <= 0 {
			return nil, fmt.Errorf("refraction index must be positive, got %g", m.RefractionIndex)
		}
		return material.NewDielectric(m.RefractionIndex), nil
	default:
		return nil, fmt.Errorf("unknown material type %q", m.Type)
	}
}
