package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var debugMode bool

var rootCmd = &cobra.Command{
	Use:   "insightify",
	Short: "Analyze a web project with the Insightify service",
	Long: `Insightify scans a local project, classifies its source files by
structural role, and uploads the selected files to the Insightify
analysis service, which generates an architecture report.

Configuration comes from INSIGHTIFY_* environment variables (a .env
file is honored) and an optional .insightifyrc.yaml at the project
root.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// A .env next to the binary is a development convenience; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"target the local debug host and enable debug logging")
}

// newLogger builds the process logger. Structured logs go to stderr so
// stdout stays reserved for the summary output.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if debugMode {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
