package scene

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

func TestNames(t *testing.T) {
	expected := []string{"default", "glass", "random"}
	if diff := cmp.Diff(expected, Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := Create(name)
			if err != nil {
				t.Fatalf("Create(%q) failed: %v", name, err)
			}
			if s.Name != name {
				t.Errorf("Expected scene name %q, got %q", name, s.Name)
			}
			if s.GetPrimitiveCount() == 0 {
				t.Error("Expected a non-empty world")
			}
			if err := s.CameraConfig.Validate(); err != nil {
				t.Errorf("Invalid camera config: %v", err)
			}
			if err := s.SamplingConfig.Validate(); err != nil {
				t.Errorf("Invalid sampling config: %v", err)
			}
			if _, err := s.NewRaytracer(nil); err != nil {
				t.Errorf("NewRaytracer failed: %v", err)
			}
		})
	}
}

func TestCreate_UnknownScene(t *testing.T) {
	_, err := Create("cornell-box")
	if !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestCreate_ReturnsFreshScene(t *testing.T) {
	a, _ := Create("default")
	b, _ := Create("default")
	a.World.Add(geometry.NewSphere(core.NewVec3(0, 5, 0), 1, material.NewDielectric(1.5)))
	if a.GetPrimitiveCount() == b.GetPrimitiveCount() {
		t.Error("Scenes returned by Create should not share a world")
	}
}

func TestNewDefaultScene(t *testing.T) {
	s := NewDefaultScene()
	if s.GetPrimitiveCount() != 4 {
		t.Fatalf("Expected 4 spheres, got %d", s.GetPrimitiveCount())
	}
	if s.CameraConfig.ImageHeight() != 225 {
		t.Errorf("Expected a 400x225 image, got height %d", s.CameraConfig.ImageHeight())
	}
	if s.SamplingConfig.SamplesPerPixel != 100 || s.SamplingConfig.MaxDepth != 50 {
		t.Errorf("Expected 100 spp and depth 50, got %+v", s.SamplingConfig)
	}

	// The view ray through the image center lands on the matte center sphere
	hit, ok := s.World.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), core.NewInterval(0.001, 1e9))
	if !ok {
		t.Fatal("Expected the center ray to hit")
	}
	if _, isLambertian := hit.Material.(*material.Lambertian); !isLambertian {
		t.Errorf("Expected a Lambertian center sphere, got %T", hit.Material)
	}
	if hit.T < 0.5-1e-9 || hit.T > 0.5+1e-9 {
		t.Errorf("Expected hit at t=0.5, got %f", hit.T)
	}
}

func TestNewGlassScene_HollowShell(t *testing.T) {
	s := NewGlassScene()
	if s.CameraConfig.DefocusAngle <= 0 {
		t.Error("Expected defocus blur")
	}

	// A ray along the glass sphere's axis crosses the outer and inner surfaces
	ray := core.NewRay(core.NewVec3(-1, 0, 5), core.NewVec3(0, 0, -1))
	var crossings []float64
	tMin := 0.001
	for {
		hit, ok := s.World.Hit(ray, core.NewInterval(tMin, 100))
		if !ok {
			break
		}
		crossings = append(crossings, hit.T)
		tMin = hit.T + 0.001
	}

	expected := []float64{5.5, 5.6, 6.4, 6.5}
	if len(crossings) < len(expected) {
		t.Fatalf("Expected at least %d crossings, got %v", len(expected), crossings)
	}
	for i, want := range expected {
		if d := crossings[i] - want; d > 1e-9 || d < -1e-9 {
			t.Errorf("Crossing %d: expected t=%f, got %f", i, want, crossings[i])
		}
	}
}

func TestNewRandomScene_Deterministic(t *testing.T) {
	a := NewRandomScene(7)
	b := NewRandomScene(7)
	c := NewRandomScene(8)

	if a.GetPrimitiveCount() != b.GetPrimitiveCount() {
		t.Fatalf("Same seed produced %d and %d spheres", a.GetPrimitiveCount(), b.GetPrimitiveCount())
	}
	for i := range a.World.Shapes {
		sa := a.World.Shapes[i].(*geometry.Sphere)
		sb := b.World.Shapes[i].(*geometry.Sphere)
		if sa.Center != sb.Center || sa.Radius != sb.Radius {
			t.Fatalf("Sphere %d differs between runs with the same seed", i)
		}
	}

	// Ground plus at most 22x22 small spheres plus three large ones
	if n := a.GetPrimitiveCount(); n < 4 || n > 1+22*22+3 {
		t.Errorf("Unexpected sphere count %d", n)
	}
	if a.SamplingConfig.Seed != 7 {
		t.Errorf("Expected the render seed to follow the layout seed, got %d", a.SamplingConfig.Seed)
	}

	same := a.GetPrimitiveCount() == c.GetPrimitiveCount()
	if same {
		for i := range a.World.Shapes {
			if a.World.Shapes[i].(*geometry.Sphere).Center != c.World.Shapes[i].(*geometry.Sphere).Center {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("Different seeds produced identical layouts")
	}
}
