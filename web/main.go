package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/web/server"
)

func main() {
	_ = godotenv.Load()

	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	quiet := flag.Bool("quiet", false, "Do not log individual renders")
	flag.Parse()

	logger := renderer.NewDiscardLogger()
	if !*quiet {
		logger = renderer.NewDefaultLogger()
	}

	// Create and start web server
	webServer := server.NewServer(*port, logger)

	log.Printf("Weekend Raytracer Web Server")
	log.Printf("Try http://localhost:%d/api/render?scene=default&width=400&spp=20", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
