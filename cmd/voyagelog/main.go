package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vesselware/voyagelog/internal/app"
	"github.com/vesselware/voyagelog/internal/config"
	"github.com/vesselware/voyagelog/internal/log"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to config file (default: ./config.yaml)")
	startFlag := flag.String("start", "", "Start of the query window, RFC3339 (required)")
	endFlag := flag.String("end", "", "End of the query window, RFC3339 (default: now)")
	output := flag.String("output", "trips.json", "Path to write the trip snapshot")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("can't initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger := log.GetSugaredLogger()

	if *startFlag == "" {
		logger.Error("the -start flag is required. Run with -h for help")
		os.Exit(1)
	}
	start, err := time.Parse(time.RFC3339, *startFlag)
	if err != nil {
		logger.Errorf("could not parse -start: %v", err)
		os.Exit(1)
	}
	end := time.Now().UTC()
	if *endFlag != "" {
		end, err = time.Parse(time.RFC3339, *endFlag)
		if err != nil {
			logger.Errorf("could not parse -end: %v", err)
			os.Exit(1)
		}
	}
	if !end.After(start) {
		logger.Error("-end must be after -start")
		os.Exit(1)
	}

	filename, _ := filepath.Abs(*cfgFile)
	cfg, err := config.Load(filename)
	if err != nil {
		logger.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("interrupted, cancelling")
		cancel()
	}()

	a := app.New(cfg, logger)
	tripList, err := a.Run(ctx, start, end)
	if err != nil {
		logger.Errorf("pipeline failed: %v", err)
		os.Exit(1)
	}

	if err := app.WriteSnapshot(*output, tripList); err != nil {
		logger.Errorf("could not write snapshot: %v", err)
		os.Exit(1)
	}
	logger.Infow("snapshot written", "path", *output, "trips", len(tripList))
}
