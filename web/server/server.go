package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// Server handles web requests for the raytracer
type Server struct {
	port   int
	logger core.Logger
}

// NewServer creates a new web server. A nil logger discards render logs.
func NewServer(port int, logger core.Logger) *Server {
	return &Server{port: port, logger: logger}
}

// SceneConfigResponse describes a scene's defaults and the accepted request limits
type SceneConfigResponse struct {
	Scene    string                    `json:"scene"`
	Defaults SceneDefaults             `json:"defaults"`
	Limits   map[string]map[string]int `json:"limits"`
}

// SceneDefaults are the values a render request falls back to
type SceneDefaults struct {
	Width           int   `json:"width"`
	Height          int   `json:"height"`
	SamplesPerPixel int   `json:"samplesPerPixel"`
	MaxDepth        int   `json:"maxDepth"`
	Seed            int64 `json:"seed"`
}

// Request limits
const (
	minWidth, maxWidth     = 16, 2000
	minSamples, maxSamples = 1, 10000
	minDepth, maxDepth     = 0, 500
)

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scene names
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"scenes": scene.Names()})
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := sceneParam(r.URL.Query())
	sceneObj, err := scene.Create(sceneName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SceneConfigResponse{
		Scene: sceneName,
		Defaults: SceneDefaults{
			Width:           sceneObj.CameraConfig.Width,
			Height:          sceneObj.CameraConfig.ImageHeight(),
			SamplesPerPixel: sceneObj.SamplingConfig.SamplesPerPixel,
			MaxDepth:        sceneObj.SamplingConfig.MaxDepth,
			Seed:            sceneObj.SamplingConfig.Seed,
		},
		Limits: map[string]map[string]int{
			"width":           {"min": minWidth, "max": maxWidth},
			"samplesPerPixel": {"min": minSamples, "max": maxSamples},
			"maxDepth":        {"min": minDepth, "max": maxDepth},
		},
	})
}

// sceneParam returns the requested scene name, defaulting to "default"
func sceneParam(values url.Values) string {
	if name := values.Get("scene"); name != "" {
		return name
	}
	return "default"
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
