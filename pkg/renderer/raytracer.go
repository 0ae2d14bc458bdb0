package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// ErrInvalidSampling is returned for sampling parameters the renderer cannot honor
var ErrInvalidSampling = errors.New("invalid sampling configuration")

// shadowAcneEpsilon is the minimum hit distance; it keeps a bounce from re-hitting its own origin
const shadowAcneEpsilon = 0.001

// defaultTileSize is used when SamplingConfig.TileSize is not set
const defaultTileSize = 32

// tileSeedStride separates the per-tile random streams derived from one seed
const tileSeedStride = 1_000_003

// intensity is the displayable range of a gamma-encoded channel before quantization
var intensity = core.NewInterval(0.000, 0.999)

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int   // Number of rays per pixel
	MaxDepth        int   // Maximum ray bounce depth
	Seed            int64 // Seed for the per-tile random streams
	NumWorkers      int   // Number of parallel workers (0 = use CPU count)
	TileSize        int   // Edge length of a render tile (0 = default)
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
		Seed:            42,
		NumWorkers:      0,
		TileSize:        defaultTileSize,
	}
}

// Validate checks the sampling parameters
func (c SamplingConfig) Validate() error {
	switch {
	case c.SamplesPerPixel < 1:
		return fmt.Errorf("%w: samples per pixel must be at least 1, got %d", ErrInvalidSampling, c.SamplesPerPixel)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must not be negative, got %d", ErrInvalidSampling, c.MaxDepth)
	case c.NumWorkers < 0:
		return fmt.Errorf("%w: worker count must not be negative, got %d", ErrInvalidSampling, c.NumWorkers)
	case c.TileSize < 0:
		return fmt.Errorf("%w: tile size must not be negative, got %d", ErrInvalidSampling, c.TileSize)
	}
	return nil
}

// Background is the sky gradient seen by rays that escape the scene.
// It is the only light source.
type Background struct {
	Top    core.Vec3 // Color straight up
	Bottom core.Vec3 // Color straight down
}

// DefaultBackground returns the white-to-light-blue sky
func DefaultBackground() Background {
	return Background{
		Top:    core.NewVec3(0.5, 0.7, 1.0),
		Bottom: core.NewVec3(1.0, 1.0, 1.0),
	}
}

// Color returns the background radiance along a ray
func (b Background) Color(r core.Ray) core.Vec3 {
	unitDirection := r.Direction.Normalize()

	// Map y from [-1,1] to [0,1]
	a := 0.5 * (unitDirection.Y + 1.0)
	return b.Bottom.Multiply(1.0 - a).Add(b.Top.Multiply(a))
}

// SamplerFactory creates the random stream used to render one tile
type SamplerFactory func(tileID int) core.Sampler

// Raytracer handles the rendering process
type Raytracer struct {
	world      geometry.Shape
	camera     *Camera
	config     SamplingConfig
	background Background
	newSampler SamplerFactory
	logger     core.Logger
}

// NewRaytracer creates a new raytracer. A nil world renders as an empty scene
// and a nil logger discards output.
func NewRaytracer(world geometry.Shape, camera *Camera, config SamplingConfig, logger core.Logger) (*Raytracer, error) {
	if camera == nil {
		return nil, fmt.Errorf("%w: camera is required", ErrInvalidCamera)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.TileSize == 0 {
		config.TileSize = defaultTileSize
	}
	if world == nil {
		world = geometry.NewHittableList()
	}
	if logger == nil {
		logger = NewDiscardLogger()
	}

	seed := config.Seed
	return &Raytracer{
		world:      world,
		camera:     camera,
		config:     config,
		background: DefaultBackground(),
		newSampler: func(tileID int) core.Sampler {
			return core.NewSeededSampler(seed + int64(tileID)*tileSeedStride)
		},
		logger: logger,
	}, nil
}

// SetBackground replaces the sky gradient
func (rt *Raytracer) SetBackground(background Background) {
	rt.background = background
}

// SetSamplerFactory replaces the per-tile random stream source
func (rt *Raytracer) SetSamplerFactory(factory SamplerFactory) {
	rt.newSampler = factory
}

// Camera returns the raytracer's camera
func (rt *Raytracer) Camera() *Camera {
	return rt.camera
}

// Config returns the effective sampling configuration
func (rt *Raytracer) Config() SamplingConfig {
	return rt.config
}

// RayColor estimates the radiance arriving along r using at most depth bounces.
// Attenuation is carried through an explicit loop; a path that runs out of
// depth or is absorbed contributes black.
func (rt *Raytracer) RayColor(r core.Ray, depth int, sampler core.Sampler) core.Vec3 {
	throughput := core.NewVec3(1, 1, 1)
	searchRange := core.NewInterval(shadowAcneEpsilon, math.Inf(1))

	for ; depth > 0; depth-- {
		hit, isHit := rt.world.Hit(r, searchRange)
		if !isHit {
			return throughput.MultiplyVec(rt.background.Color(r))
		}

		scatter, didScatter := hit.Material.Scatter(r, *hit, sampler)
		if !didScatter {
			return core.Vec3{}
		}

		throughput = throughput.MultiplyVec(scatter.Attenuation)
		r = scatter.Scattered
	}

	return core.Vec3{}
}

// SamplePixel returns the average linear color of pixel (i, j) over SamplesPerPixel rays
func (rt *Raytracer) SamplePixel(i, j int, sampler core.Sampler) core.Vec3 {
	var ps PixelStats
	for sample := 0; sample < rt.config.SamplesPerPixel; sample++ {
		ray := rt.camera.GetRay(i, j, sampler)
		ps.AddSample(rt.RayColor(ray, rt.config.MaxDepth, sampler))
	}
	return ps.GetColor()
}

// LinearToGamma converts a linear channel value to gamma-2 display space
func LinearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

// Vec3ToColor converts a linear Vec3 color to an 8-bit RGBA pixel with gamma correction and clamping
func Vec3ToColor(colorVec core.Vec3) color.RGBA {
	return color.RGBA{
		R: quantize(colorVec.X),
		G: quantize(colorVec.Y),
		B: quantize(colorVec.Z),
		A: 255,
	}
}

func quantize(linear float64) uint8 {
	return uint8(256 * intensity.Clamp(LinearToGamma(linear)))
}

// RenderBounds renders every pixel in bounds into img using sampler.
// Pixels are visited top row first, left to right.
func (rt *Raytracer) RenderBounds(bounds image.Rectangle, img *image.RGBA, sampler core.Sampler) RenderStats {
	stats := RenderStats{MaxSamples: rt.config.SamplesPerPixel}
	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			img.SetRGBA(i, j, Vec3ToColor(rt.SamplePixel(i, j, sampler)))
			stats.TotalPixels++
			stats.TotalSamples += rt.config.SamplesPerPixel
		}
	}
	return stats
}

// Render renders the whole image in parallel tiles and returns it with statistics.
// For a fixed seed the result does not depend on the number of workers.
func (rt *Raytracer) Render() (*image.RGBA, RenderStats, error) {
	startTime := time.Now()
	width, height := rt.camera.Width(), rt.camera.Height()
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	tiles := NewTileGrid(width, height, rt.config.TileSize)
	workerPool := NewWorkerPool(rt, len(tiles), rt.config.NumWorkers)

	rt.logger.Printf("Rendering %dx%d, %d samples per pixel, max depth %d (%d tiles, %d workers)\n",
		width, height, rt.config.SamplesPerPixel, rt.config.MaxDepth, len(tiles), workerPool.GetNumWorkers())

	workerPool.Start()
	for taskID, tile := range tiles {
		workerPool.SubmitTask(TileTask{
			Tile:   tile,
			TaskID: taskID,
			Image:  img,
		})
	}

	stats := RenderStats{MaxSamples: rt.config.SamplesPerPixel, Workers: workerPool.GetNumWorkers()}
	var renderErr error
	for range tiles {
		result, ok := workerPool.GetResult()
		if !ok {
			renderErr = fmt.Errorf("worker pool closed unexpectedly")
			break
		}
		if result.Error != nil && renderErr == nil {
			renderErr = result.Error
		}
		stats.Merge(result.Stats)
	}
	workerPool.Stop()

	if renderErr != nil {
		return nil, stats, renderErr
	}

	stats.Finalize(time.Since(startTime))
	rt.logger.Printf("Render completed in %v (%d samples)\n", stats.Elapsed, stats.TotalSamples)

	return img, stats, nil
}
