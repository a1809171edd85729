package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	setupLogging()

	root := &cobra.Command{
		Use:     "casnotes",
		Short:   "CasNotes - self-hosted notes, mindmaps and research documents",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(createAdminCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging configures console output plus a server.log file when the
// log directory is writable
func setupLogging() {
	logDir := os.Getenv("CASNOTES_PATHS_LOGS")
	if logDir == "" {
		logDir = "/var/log/casnotes"
	}

	if err := os.MkdirAll(logDir, 0755); err == nil {
		serverLogPath := filepath.Join(logDir, "server.log")
		if logFile, err := os.OpenFile(serverLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			log.SetOutput(io.MultiWriter(os.Stdout, logFile))
		}
	}

	log.SetFlags(log.Ldate | log.Ltime)
}
