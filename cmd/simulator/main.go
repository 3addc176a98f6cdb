package main

import (
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	config "github.com/GetDroned/Drone/config/simulator"
	"github.com/GetDroned/Drone/logging"
	"github.com/GetDroned/Drone/protocol"
	"github.com/GetDroned/Drone/simulation"
)

func readConfig(filename string) config.Config {
	var cfg config.Config
	confFile, err := os.Open(filename)
	if err != nil {
		panic(err)
	}
	defer confFile.Close()
	if err := json.NewDecoder(confFile).Decode(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

func main() {
	configFile := flag.String("config", "config/simulator/default.json", "topology and general configuration")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg := readConfig(*configFile)
	level := cfg.General.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	if level == "" {
		level = "info"
	}
	if err := logging.Setup(level, cfg.General.LogFile); err != nil {
		panic(err)
	}

	network, err := simulation.New(cfg)
	if err != nil {
		panic(err)
	}
	network.Start()

	counts := make(map[protocol.EventKind]int)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range network.Events() {
			counts[ev.Kind]++
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	network.Shutdown()
	<-done

	log.WithFields(log.Fields{
		"event":               "simulation_finished",
		"run":                 network.RunID(),
		"packets_sent":        counts[protocol.PacketSent],
		"packets_dropped":     counts[protocol.PacketDropped],
		"controller_shortcut": counts[protocol.ControllerShortcut],
	}).Info()
}
