package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile = flag.String("config", "territory.yaml", "Path to territory configuration file")
	outputFile = flag.String("output", "", "Override output file from config")
	workers    = flag.Int("workers", 0, "Override concurrent unit fetches (default: from config)")
	httpMode   = flag.Bool("http", false, "Serve the built zone dataset over HTTP instead of writing a file")
	httpPort   = flag.Int("http-port", 8080, "HTTP server port")
	summaryOut = flag.String("summary", "", "Optional path to write the run summary as JSON")
)

func main() {
	// .env can supply FIELDZONES_CONFIG for containerized runs; absence
	// is fine.
	_ = godotenv.Load()

	flag.Parse()
	fmt.Printf("fieldzones version: %s\n", Version)

	app := NewApp()
	app.ConfigFile = *configFile
	if env := os.Getenv("FIELDZONES_CONFIG"); env != "" && app.ConfigFile == "territory.yaml" {
		app.ConfigFile = env
	}
	app.OutputOverride = *outputFile
	app.WorkersOverride = *workers
	app.HttpPort = *httpPort
	app.SummaryFile = *summaryOut

	if *httpMode {
		app.RunServe()
		return
	}

	app.RunBuild()
}
