package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vesselware/voyagelog/internal/log"
	"github.com/vesselware/voyagelog/internal/server"
)

func main() {
	listenAddr := flag.String("listen-addr", ":8090", "Address for the editor API to listen on")
	snapshot := flag.String("snapshot", "trips.json", "Path to the trip snapshot to serve")
	annotations := flag.String("annotations", "annotations.json", "Path to the annotations overlay")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("can't initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger := log.GetSugaredLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("shutting down")
		cancel()
	}()

	s := server.New(*listenAddr, *snapshot, *annotations, logger)
	if err := s.Start(ctx); err != nil {
		logger.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}
