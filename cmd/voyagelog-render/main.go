package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vesselware/voyagelog/internal/app"
	"github.com/vesselware/voyagelog/internal/config"
	"github.com/vesselware/voyagelog/internal/log"
	"github.com/vesselware/voyagelog/internal/render"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to config file (default: ./config.yaml)")
	snapshot := flag.String("snapshot", "trips.json", "Path to the trip snapshot to render")
	template := flag.String("template", "", "Path to a custom logbook template (default: render.template from config, or built-in)")
	output := flag.String("output", "", "Path to write the rendered logbook (default: render.output from config, or logbook.html)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("can't initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger := log.GetSugaredLogger()

	filename, _ := filepath.Abs(*cfgFile)
	cfg, err := config.Load(filename)
	if err != nil {
		logger.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %v", err)
		os.Exit(1)
	}

	// Flags override the config's render section
	templatePath := cfg.Render.Template
	if *template != "" {
		templatePath = *template
	}
	outputPath := cfg.Render.Output
	if *output != "" {
		outputPath = *output
	}
	if outputPath == "" {
		outputPath = "logbook.html"
	}

	tripList, err := app.ReadSnapshot(*snapshot)
	if err != nil {
		logger.Errorf("could not read snapshot: %v", err)
		os.Exit(1)
	}

	renderer, err := render.New(templatePath)
	if err != nil {
		logger.Errorf("could not load template: %v", err)
		os.Exit(1)
	}
	renderer.Vessel = cfg.Vessel.Name

	out, err := os.Create(outputPath)
	if err != nil {
		logger.Errorf("could not create output file: %v", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := renderer.Render(out, tripList); err != nil {
		logger.Errorf("rendering failed: %v", err)
		os.Exit(1)
	}
	logger.Infow("logbook rendered", "path", outputPath, "trips", len(tripList))
}
