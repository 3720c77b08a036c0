package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Arjentix/Media-Server/internal/gateway"
)

func run() int {
	configPath := flag.String("config", "", "path to a yaml configuration file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <rtsp-stream-url>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}

	config := gateway.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = gateway.LoadConfig(*configPath)
		if err != nil {
			slog.Error("failed to load configuration", "err", err)
			return 1
		}
	}

	log := gateway.NewLogger(config)
	slog.SetDefault(log)

	gw := &gateway.Gateway{
		StreamURL: flag.Arg(0),
		Config:    config,
		Log:       log,
	}

	if err := gw.Start(); err != nil {
		log.Error("failed to start gateway", "err", err)
		return 1
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig)
		gw.Close()
		log.Info("shutdown complete")
		return 0

	case err := <-gw.FatalError():
		log.Error("fatal pipeline error", "err", err)
		gw.Close()
		return 1
	}
}

func main() {
	os.Exit(run())
}
