package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/df07/go-weekend-raytracer/pkg/output"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene           string // Scene name (e.g., "glass")
	Width           int    // Image width; height follows the scene's aspect ratio
	SamplesPerPixel int
	MaxDepth        int
	Seed            int64
	Format          string // Output format extension, "png" by default
}

// parseRenderRequest reads render parameters, falling back to the scene's own settings
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, *scene.Scene, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: sceneParam(query), Format: "png"}

	sceneObj, err := scene.Create(req.Scene)
	if err != nil {
		return nil, nil, err
	}

	if req.Width, err = parseIntParam(query, "width", sceneObj.CameraConfig.Width, minWidth, maxWidth); err != nil {
		return nil, nil, err
	}
	if req.SamplesPerPixel, err = parseIntParam(query, "spp", sceneObj.SamplingConfig.SamplesPerPixel, minSamples, maxSamples); err != nil {
		return nil, nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "depth", sceneObj.SamplingConfig.MaxDepth, minDepth, maxDepth); err != nil {
		return nil, nil, err
	}

	req.Seed = sceneObj.SamplingConfig.Seed
	if value := query.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return nil, nil, fmt.Errorf("invalid seed: %s", value)
		}
	}

	if format := query.Get("format"); format != "" {
		req.Format = strings.ToLower(strings.TrimPrefix(format, "."))
	}
	if output.ContentType(req.Format) == "application/octet-stream" {
		return nil, nil, fmt.Errorf("unsupported format: %s", req.Format)
	}

	sceneObj.CameraConfig.Width = req.Width
	sceneObj.SamplingConfig.SamplesPerPixel = req.SamplesPerPixel
	sceneObj.SamplingConfig.MaxDepth = req.MaxDepth
	sceneObj.SamplingConfig.Seed = req.Seed

	return req, sceneObj, nil
}

// handleRender renders a scene and responds with the encoded image.
// Render statistics are reported in X-Render-* headers.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, sceneObj, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	raytracer, err := sceneObj.NewRaytracer(s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, stats, err := raytracer.Render()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Render error: "+err.Error())
		return
	}

	var buf bytes.Buffer
	if req.Format == "ppm" {
		err = output.WritePPM(&buf, img)
	} else {
		err = output.Encode(&buf, img, req.Format)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode image: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", output.ContentType(req.Format))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Pixels", strconv.Itoa(stats.TotalPixels))
	w.Header().Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	w.Header().Set("X-Render-Elapsed-Ms", strconv.FormatInt(stats.Elapsed.Milliseconds(), 10))
	w.Header().Set("X-Render-Luminance", strconv.FormatFloat(renderer.CalculateAverageLuminance(img), 'f', 4, 64))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
