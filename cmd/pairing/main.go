// Command pairing drives the pairing procedure (C8) end to end: it scans
// for a meter, reads its fixed parameters, and writes the resulting
// connection profile to the settings table.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/ak1211/uchinoepower/internal/config"
	"github.com/ak1211/uchinoepower/internal/logging"
	"github.com/ak1211/uchinoepower/internal/pairing"
	"github.com/ak1211/uchinoepower/internal/sink"
	"github.com/ak1211/uchinoepower/internal/skstack"
)

func main() {
	logging.Setup("pairing")

	routeBID := flag.String("id", "", "32-character route-B ID")
	routeBPassword := flag.String("password", "", "12-character route-B password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	id, err := skstack.ParseId(*routeBID)
	if err != nil {
		log.Fatalf("route-B id: %v", err)
	}
	password, err := skstack.ParsePassword(*routeBPassword)
	if err != nil {
		log.Fatalf("route-B password: %v", err)
	}

	duplex, err := skstack.Open(cfg.SerialDevice)
	if err != nil {
		log.Fatalf("serial: %v", err)
	}
	defer duplex.Close()

	p, err := pairing.Pair(duplex, skstack.Credentials{Id: id, Password: password})
	if err != nil {
		log.Fatalf("pairing: %v", err)
	}
	log.Printf("paired with channel=0x%02X pan=0x%04X mac=%016X", p.Channel, p.PanId, p.MacAddress)

	s, err := sink.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("sink: %v", err)
	}
	defer s.Close()

	if err := s.WriteSettings(context.Background(), p); err != nil {
		log.Fatalf("write settings: %v", err)
	}
	log.Println("connection profile saved")
}
