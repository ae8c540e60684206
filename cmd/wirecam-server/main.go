// wirecam-server runs the wirecam compile service.
//
// Usage:
//
//	wirecam-server [options]
//
// Options:
//
//	-machine string    Machine configuration file (optional)
//	-addr string       Listen address (default: [server] address, ":7130")
//	-db string         Run history database (default: [server] database)
//	-no-history        Do not record compile runs
//	-log-level string  Log level: debug, info, warn, error
//	-log-format string Log format: text, json
//	-log-file string   Mirror logs into a rotating file
//
// Examples:
//
//	# Serve with the defaults
//	wirecam-server
//
//	# Serve on another port with an in-memory history
//	wirecam-server -addr :8080 -db :memory:
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wirecam/pkg/config"
	"wirecam/pkg/history"
	"wirecam/pkg/log"
	"wirecam/pkg/server"
)

func main() {
	machineFile := flag.String("machine", "", "Machine configuration file (optional)")
	addr := flag.String("addr", "", "Listen address (default: [server] address)")
	dbPath := flag.String("db", "", "Run history database (default: [server] database)")
	noHistory := flag.Bool("no-history", false, "Do not record compile runs")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "Log format: text, json")
	logFile := flag.String("log-file", "", "Mirror logs into a rotating file")

	flag.Parse()

	machine, err := config.LoadMachine(*machineFile, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading machine config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		machine.Server.Address = *addr
	}
	if *dbPath != "" {
		machine.Server.Database = *dbPath
	}
	if *logLevel != "" {
		machine.Log.Level = *logLevel
	}
	if *logFormat != "" {
		machine.Log.Format = *logFormat
	}
	if *logFile != "" {
		machine.Log.File = *logFile
	}

	closer, err := log.Setup(log.Options{Level: machine.Log.Level, Format: machine.Log.Format, File: machine.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	logger := log.GetLogger("wirecam")
	logger.Info("wirecam-server %s starting", server.Version)

	var store *history.Store
	if !*noHistory {
		store, err = history.Open(machine.Server.Database)
		if err != nil {
			logger.WithError(err).Error("failed to open history")
			os.Exit(1)
		}
		defer store.Close()
		logger.Info("history: %s", machine.Server.Database)
	}

	srv := server.New(server.Config{
		Addr:    machine.Server.Address,
		Machine: machine,
		History: store,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received %v, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("server stopped")
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.WithError(err).Warn("shutdown")
	}
}
