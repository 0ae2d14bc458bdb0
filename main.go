package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/df07/go-weekend-raytracer/pkg/loaders"
	"github.com/df07/go-weekend-raytracer/pkg/output"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// Config holds everything a single render run needs
type Config struct {
	SceneName string
	SceneFile string
	Width     int
	Samples   int
	MaxDepth  int
	Seed      int64
	Workers   int
	OutputDir string
	Format    string
	Thumbnail uint
	Upload    bool
	Help      bool
	S3        output.S3Config
	setFlags  map[string]bool // Flags given explicitly on the command line
}

// getEnv returns the environment variable or a fallback
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func parseConfig(args []string) (*Config, *flag.FlagSet, error) {
	cfg := &Config{
		S3: output.S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    os.Getenv("RAYTRACER_S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		setFlags: make(map[string]bool),
	}

	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.StringVar(&cfg.SceneName, "scene", "default", "Built-in scene: "+strings.Join(scene.Names(), ", "))
	fs.StringVar(&cfg.SceneFile, "scene-file", "", "Path to a JSON scene file (overrides -scene)")
	fs.IntVar(&cfg.Width, "width", 0, "Image width in pixels (default: scene setting)")
	fs.IntVar(&cfg.Samples, "spp", 0, "Samples per pixel (default: scene setting)")
	fs.IntVar(&cfg.MaxDepth, "depth", 0, "Maximum bounce depth (default: scene setting)")
	fs.Int64Var(&cfg.Seed, "seed", 0, "Random seed (default: scene setting)")
	fs.IntVar(&cfg.Workers, "workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	fs.StringVar(&cfg.OutputDir, "output", getEnv("RAYTRACER_OUTPUT_DIR", "output"), "Output directory")
	fs.StringVar(&cfg.Format, "format", "png", "Output format: png, ppm, jpg, gif, bmp or tiff")
	fs.UintVar(&cfg.Thumbnail, "thumbnail", 0, "Also save a thumbnail no larger than this many pixels per side (0 = off)")
	fs.BoolVar(&cfg.Upload, "upload", false, "Upload the render to RAYTRACER_S3_BUCKET")
	fs.BoolVar(&cfg.Help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	fs.Visit(func(f *flag.Flag) { cfg.setFlags[f.Name] = true })

	cfg.Format = strings.ToLower(strings.TrimPrefix(cfg.Format, "."))
	if output.ContentType(cfg.Format) == "application/octet-stream" {
		return nil, fs, fmt.Errorf("unsupported output format %q", cfg.Format)
	}
	return cfg, fs, nil
}

// createScene returns the scene loaded from file, or the named built-in scene
func createScene(name, file string) (*scene.Scene, error) {
	if file != "" {
		return loaders.LoadScene(file)
	}
	return scene.Create(name)
}

// applyOverrides copies explicitly set flags onto the scene's configuration
func applyOverrides(s *scene.Scene, cfg *Config) {
	if cfg.setFlags["width"] {
		s.CameraConfig.Width = cfg.Width
	}
	if cfg.setFlags["spp"] {
		s.SamplingConfig.SamplesPerPixel = cfg.Samples
	}
	if cfg.setFlags["depth"] {
		s.SamplingConfig.MaxDepth = cfg.MaxDepth
	}
	if cfg.setFlags["seed"] {
		s.SamplingConfig.Seed = cfg.Seed
	}
	s.SamplingConfig.NumWorkers = cfg.Workers
}

// outputPath returns <dir>/<scene>/render_<timestamp>.<format>
func outputPath(dir, sceneName, format string, now time.Time) string {
	timestamp := now.Format("20060102_150405")
	return filepath.Join(dir, sceneName, fmt.Sprintf("render_%s.%s", timestamp, format))
}

// thumbnailPath inserts a _thumb suffix before the extension
func thumbnailPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + "_thumb" + ext
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println("Weekend Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	fmt.Println("  default - Matte sphere between a polished and a brushed metal sphere")
	fmt.Println("  glass   - Hollow glass sphere with depth of field")
	fmt.Println("  random  - Field of random small spheres around three large ones")
	fmt.Println()
	fmt.Println("Output will be saved to <output>/<scene>/render_<timestamp>.<format>")
	fmt.Println("Environment (.env is loaded if present): RAYTRACER_OUTPUT_DIR, RAYTRACER_S3_BUCKET,")
	fmt.Println("  S3_ENDPOINT, S3_REGION, S3_ACCESS_KEY, S3_SECRET_KEY")
}

func run(cfg *Config) error {
	selectedScene, err := createScene(cfg.SceneName, cfg.SceneFile)
	if err != nil {
		return err
	}
	applyOverrides(selectedScene, cfg)

	log.Printf("Using %s scene (%d spheres)...", selectedScene.Name, selectedScene.GetPrimitiveCount())

	raytracer, err := selectedScene.NewRaytracer(renderer.NewDefaultLogger())
	if err != nil {
		return err
	}

	img, stats, err := raytracer.Render()
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	log.Printf("Samples per pixel: %.1f, %d workers, average luminance %.3f",
		stats.AverageSamples, stats.Workers, renderer.CalculateAverageLuminance(img))

	filename := outputPath(cfg.OutputDir, selectedScene.Name, cfg.Format, time.Now())
	if err := output.Save(filename, img); err != nil {
		return err
	}
	log.Printf("Render saved as %s", filename)

	var thumb image.Image
	if cfg.Thumbnail > 0 {
		thumb = output.Thumbnail(img, cfg.Thumbnail, cfg.Thumbnail)
		thumbFile := thumbnailPath(filename)
		if err := output.Save(thumbFile, thumb); err != nil {
			return err
		}
		log.Printf("Thumbnail saved as %s", thumbFile)
	}

	if cfg.Upload {
		publisher, err := output.NewS3Publisher(cfg.S3, renderer.NewDefaultLogger())
		if err != nil {
			return err
		}
		key := path.Join(selectedScene.Name, filepath.Base(filename))
		if err := publisher.PublishImage(context.Background(), key, img); err != nil {
			return err
		}
		if thumb != nil {
			if err := publisher.PublishImage(context.Background(), path.Join(selectedScene.Name, filepath.Base(thumbnailPath(filename))), thumb); err != nil {
				return err
			}
		}
	}

	return nil
}

func main() {
	_ = godotenv.Load()

	cfg, fs, err := parseConfig(os.Args[1:])
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}
	if cfg.Help {
		printHelp(fs)
		return
	}

	log.Println("Starting Weekend Raytracer...")
	if err := run(cfg); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
