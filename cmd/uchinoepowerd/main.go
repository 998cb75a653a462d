// Command uchinoepowerd is the acquisition daemon: it reads the
// persisted connection profile, opens the Wi-SUN serial transport, and
// runs the supervised acquisition cycle until killed.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ak1211/uchinoepower/internal/acquisition"
	"github.com/ak1211/uchinoepower/internal/config"
	"github.com/ak1211/uchinoepower/internal/logging"
	"github.com/ak1211/uchinoepower/internal/sink"
	"github.com/ak1211/uchinoepower/internal/skstack"
)

// moduleVersion is a static stand-in for the CI-injected build banner the
// original carried; this module has no build-info generator.
const moduleVersion = "uchinoepowerd/0.1.0"

func main() {
	logging.Setup("uchinoepowerd")
	log.Printf("starting %s", moduleVersion)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	s, err := sink.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("sink: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := s.ReadSettings(ctx)
	if err != nil {
		log.Fatalf("settings: %v", err)
	}

	location, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	duplex, err := skstack.Open(cfg.SerialDevice)
	if err != nil {
		log.Fatalf("serial: %v", err)
	}
	defer duplex.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.Printf("received %s, shutting down", sig)
		cancel()
	}()

	if err := acquisition.Supervise(ctx, duplex, s, p, location); err != nil {
		log.Fatalf("acquisition: %v", err)
	}
	log.Println("uchinoepowerd stopped")
}
