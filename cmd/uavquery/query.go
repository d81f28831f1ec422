package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/uavquery/queryengine/internal/agent"
	"github.com/uavquery/queryengine/internal/chatclient"
	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/datcom"
	"github.com/uavquery/queryengine/internal/embedclient"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/router"
	"github.com/uavquery/queryengine/internal/tools"
	"github.com/uavquery/queryengine/internal/vectorstore"
	"github.com/uavquery/queryengine/internal/workflow"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	flagCollection   string
	flagTopK         int
	flagRetrieveOnly bool
	flagDebug        bool
)

var queryCmd = &cobra.Command{
	Use:   "query \"<text>\"",
	Short: "Ask a UAV design question or request a DATCOM input file",
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return &UserError{Reason: err.Error()}
		}
		return nil
	},
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&flagCollection, "collection", "", "restrict retrieval to a single collection")
	queryCmd.Flags().IntVar(&flagTopK, "top-k", 0, "override default_top_k for this query")
	queryCmd.Flags().BoolVar(&flagRetrieveOnly, "retrieve-only", false, "run retrieval and print citations without a synthesized answer")
	queryCmd.Flags().BoolVar(&flagDebug, "debug", false, "dump the full message trace to stderr and enable debug-level logging, including grounding warnings")
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := args[0]
	if question == "" {
		return &UserError{Reason: "query text must not be empty"}
	}

	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	if flagTopK > 0 {
		cfg.DefaultTopK = flagTopK
	}

	logCfg := logging.NewDefaultConfig()
	if flagDebug {
		logCfg.Level = zapcore.DebugLevel
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logger.Sync()

	queryID := uuid.NewString()
	logger = logger.With(zap.String("query_id", queryID))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	embedder := embedclient.New(cfg, logger, httpClient)
	chat := chatclient.New(cfg, logger, httpClient)

	store, err := vectorstore.New(cfg, logger)
	if err != nil {
		return err
	}

	registry, err := tools.BuildRegistry(store, embedder, tools.RetrievalConfig{
		DefaultTopK:      cfg.DefaultTopK,
		ContentMaxLength: cfg.ContentMaxLength,
	})
	if err != nil {
		return fmt.Errorf("uavquery: building tool registry: %w", err)
	}

	if flagRetrieveOnly {
		return runRetrieveOnly(ctx, registry, flagCollection, question)
	}

	r := router.New(chat, logger)
	pipeline := datcom.NewPipeline(chat, logger)
	a := agent.New(chat, registry, logger, agent.DefaultMaxIterations)
	engine := workflow.New(r, pipeline, a, logger)

	state, err := engine.Run(ctx, question)
	if err != nil {
		return fmt.Errorf("uavquery: %w", err)
	}

	fmt.Println(state.Generation)

	if flagDebug {
		dumpDebugTrace(state)
	}
	return nil
}

// dumpDebugTrace prints the full message transcript as indented JSON to
// stderr, per the --debug flag's supplemented behavior.
func dumpDebugTrace(state workflow.State) {
	encoded, err := json.MarshalIndent(state.Messages, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "uavquery: failed to encode debug trace: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, string(encoded))
}

// runRetrieveOnly bypasses the router and agent, directly invoking
// retrieve_datcom_archive with the --collection value (which auto-routes
// via design_area_router when that value is empty), and prints citations
// without synthesizing an answer.
func runRetrieveOnly(ctx context.Context, registry *tools.Registry, collection, question string) error {
	args, err := json.Marshal(map[string]string{"query": question, "collection": collection})
	if err != nil {
		return err
	}
	out, err := registry.Invoke(ctx, "retrieve_datcom_archive", args)
	if err != nil {
		return fmt.Errorf("uavquery: retrieval failed: %w", err)
	}
	fmt.Println(out)
	return nil
}

