package renderer

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

func testCameraConfig() CameraConfig {
	return CameraConfig{
		Center:        core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		Width:         400,
		AspectRatio:   1.0,
		VFov:          90.0,
		FocusDistance: 1.0,
	}
}

func mustCamera(t *testing.T, config CameraConfig) *Camera {
	t.Helper()
	camera, err := NewCamera(config)
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}
	return camera
}

func TestCameraGetCameraForward(t *testing.T) {
	config := testCameraConfig()
	config.LookAt = core.NewVec3(0, 0, -5)
	camera := mustCamera(t, config)

	forward := camera.GetCameraForward()
	expected := core.NewVec3(0, 0, -1)
	if forward.Subtract(expected).Length() > 1e-9 {
		t.Errorf("Expected forward direction %v, got %v", expected, forward)
	}
}

func TestCameraImageDimensions(t *testing.T) {
	tests := []struct {
		width          int
		aspectRatio    float64
		expectedHeight int
	}{
		{400, 16.0 / 9.0, 225},
		{2, 1.0, 2},
		{401, 2.0, 200},
		{1, 0.5, 2},
	}

	for _, tt := range tests {
		config := testCameraConfig()
		config.Width = tt.width
		config.AspectRatio = tt.aspectRatio
		camera := mustCamera(t, config)
		if camera.Width() != tt.width || camera.Height() != tt.expectedHeight {
			t.Errorf("Width %d aspect %g: expected %dx%d, got %dx%d",
				tt.width, tt.aspectRatio, tt.width, tt.expectedHeight, camera.Width(), camera.Height())
		}
	}
}

func TestNewCamera_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *CameraConfig)
	}{
		{"zero width", func(c *CameraConfig) { c.Width = 0 }},
		{"negative width", func(c *CameraConfig) { c.Width = -10 }},
		{"zero aspect ratio", func(c *CameraConfig) { c.AspectRatio = 0 }},
		{"NaN aspect ratio", func(c *CameraConfig) { c.AspectRatio = math.NaN() }},
		{"zero derived height", func(c *CameraConfig) { c.Width = 2; c.AspectRatio = 3 }},
		{"zero field of view", func(c *CameraConfig) { c.VFov = 0 }},
		{"straight field of view", func(c *CameraConfig) { c.VFov = 180 }},
		{"negative defocus angle", func(c *CameraConfig) { c.DefocusAngle = -1 }},
		{"zero focus distance", func(c *CameraConfig) { c.FocusDistance = 0 }},
		{"negative focus distance", func(c *CameraConfig) { c.FocusDistance = -2 }},
		{"eye equals target", func(c *CameraConfig) { c.LookAt = c.Center }},
		{"up parallel to view", func(c *CameraConfig) { c.Up = core.NewVec3(0, 0, 3) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testCameraConfig()
			tt.modify(&config)

			camera, err := NewCamera(config)
			if err == nil {
				t.Fatalf("Expected error, got camera %+v", camera)
			}
			if !errors.Is(err, ErrInvalidCamera) {
				t.Errorf("Expected ErrInvalidCamera, got %v", err)
			}
			if camera != nil {
				t.Error("Expected nil camera on error")
			}
		})
	}
}

func TestCamera_PixelGrid(t *testing.T) {
	config := testCameraConfig()
	config.Width = 2
	camera := mustCamera(t, config)

	// 90 degree field of view at focus distance 1 spans [-1,1] on both axes
	tests := []struct {
		i, j     int
		expected core.Vec3
	}{
		{0, 0, core.NewVec3(-0.5, 0.5, -1)},
		{1, 0, core.NewVec3(0.5, 0.5, -1)},
		{0, 1, core.NewVec3(-0.5, -0.5, -1)},
		{1, 1, core.NewVec3(0.5, -0.5, -1)},
	}
	for _, tt := range tests {
		got := camera.PixelCenter(tt.i, tt.j)
		if diff := cmp.Diff(tt.expected, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("Pixel (%d,%d) center mismatch (-want +got):\n%s", tt.i, tt.j, diff)
		}
	}
}

func TestCamera_PinholeRays(t *testing.T) {
	config := testCameraConfig()
	config.Width = 101
	camera := mustCamera(t, config)

	// Jitter of 0.5 is the pixel center
	ray := camera.GetRay(50, 50, core.NewFixedSampler(0.5))
	if ray.Origin != config.Center {
		t.Errorf("Pinhole ray should start at the eye, got %v", ray.Origin)
	}
	if ray.Direction.Normalize().Subtract(core.NewVec3(0, 0, -1)).Length() > 1e-9 {
		t.Errorf("Center ray should look down -Z, got %v", ray.Direction)
	}

	// Random jitter stays inside the pixel footprint
	sampler := core.NewSeededSampler(42)
	center := camera.PixelCenter(10, 20)
	halfPixel := 2.0 / 101 / 2
	for k := 0; k < 200; k++ {
		ray := camera.GetRay(10, 20, sampler)
		if ray.Origin != config.Center {
			t.Fatalf("Pinhole ray should start at the eye, got %v", ray.Origin)
		}
		target := ray.At(1)
		if math.Abs(target.X-center.X) > halfPixel+1e-12 || math.Abs(target.Y-center.Y) > halfPixel+1e-12 {
			t.Fatalf("Jittered sample %v outside pixel centered at %v", target, center)
		}
	}
}

func TestCamera_DefocusDisk(t *testing.T) {
	config := testCameraConfig()
	config.Center = core.NewVec3(0, 0, 3)
	config.LookAt = core.NewVec3(0, 0, 0)
	config.FocusDistance = 3.0
	config.DefocusAngle = 10.0
	camera := mustCamera(t, config)

	lensRadius := 3.0 * math.Tan(5.0*math.Pi/180.0)
	sampler := core.NewSeededSampler(7)
	focusPoint := camera.PixelCenter(200, 200)

	sawOffset := false
	for k := 0; k < 500; k++ {
		// Fix the pixel jitter to the center and let the lens sample vary
		ray := camera.GetRay(200, 200, &centeredJitterSampler{lens: sampler})

		offset := ray.Origin.Subtract(config.Center)
		if offset.Length() > lensRadius+1e-9 {
			t.Fatalf("Ray origin %v outside lens of radius %f", ray.Origin, lensRadius)
		}
		if math.Abs(offset.Z) > 1e-12 {
			t.Fatalf("Lens samples should lie in the camera's u-v plane, got offset %v", offset)
		}
		if offset.Length() > 1e-6 {
			sawOffset = true
		}

		// Every lens ray converges on the same point of the focus plane
		if ray.At(1).Subtract(focusPoint).Length() > 1e-9 {
			t.Fatalf("Ray misses focus point %v: reaches %v", focusPoint, ray.At(1))
		}
	}
	if !sawOffset {
		t.Error("Defocus camera should produce rays away from the eye point")
	}
}

// centeredJitterSampler returns 0.5 for the pixel jitter draw and defers the lens draw
type centeredJitterSampler struct {
	lens  core.Sampler
	calls int
}

func (s *centeredJitterSampler) Get1D() float64 { return s.lens.Get1D() }

func (s *centeredJitterSampler) Get2D() core.Vec2 {
	s.calls++
	if s.calls%2 == 1 {
		return core.NewVec2(0.5, 0.5)
	}
	return s.lens.Get2D()
}
