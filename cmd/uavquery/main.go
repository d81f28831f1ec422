// Package main implements the uavquery CLI: a single Cobra binary
// wrapping the workflow engine.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/vectorstore"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:     "uavquery",
	Short:   "Query a UAV/DATCOM design knowledge base and generate DATCOM input files",
	Version: "dev",
}

var flagMetricsAddr string

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9091) for the lifetime of the command")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if flagMetricsAddr == "" {
			return
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			_ = http.ListenAndServe(flagMetricsAddr, mux)
		}()
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UserError{Reason: err.Error()}
	})
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(doctorCmd)
}

// UserError is a CLI-level malformed-input condition: a missing
// argument or an unusable flag value, never a remote failure.
type UserError struct {
	Reason string
}

func (e *UserError) Error() string { return fmt.Sprintf("usage error: %s", e.Reason) }

// exitCodeFor maps an error to a CLI exit code: 2 for user error, 3 for
// configuration error, 4 for anything else that made it all the way up
// to main uncaught.
func exitCodeFor(err error) int {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return 2
	}
	var configErr *config.ConfigError
	if errors.As(err, &configErr) {
		return 3
	}
	var storeErr *vectorstore.StoreError
	if errors.As(err, &storeErr) {
		return 4
	}
	return 4
}
