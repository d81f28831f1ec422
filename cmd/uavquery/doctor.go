package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/uavquery/queryengine/internal/chatclient"
	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/embedclient"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/vectorstore"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Exercise each external dependency and report which is unreachable",
	RunE:  runDoctor,
}

// doctorCheck is one dependency probe's outcome.
type doctorCheck struct {
	Name string
	Err  error
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(logging.NewDefaultConfig())
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	httpClient := &http.Client{Timeout: 10 * time.Second}
	embedder := embedclient.New(cfg, logger, httpClient)
	chat := chatclient.New(cfg, logger, httpClient)

	checks := []doctorCheck{
		{Name: "embed_api", Err: checkEmbed(ctx, embedder)},
		{Name: "chat_api", Err: checkChat(ctx, chat)},
		{Name: "vector_store", Err: checkStore(ctx, cfg, logger)},
	}

	var failed bool
	for _, c := range checks {
		if c.Err != nil {
			failed = true
			fmt.Fprintf(os.Stdout, "FAIL  %-20s %v\n", c.Name, c.Err)
			continue
		}
		fmt.Fprintf(os.Stdout, "OK    %-20s\n", c.Name)
	}
	if failed {
		return fmt.Errorf("uavquery doctor: one or more dependencies unreachable")
	}
	return nil
}

func checkEmbed(ctx context.Context, embedder *embedclient.Client) error {
	_, err := embedder.EmbedQuery(ctx, "ping")
	return err
}

func checkChat(ctx context.Context, chat *chatclient.Client) error {
	_, err := chat.Complete(ctx, "reply with the single word pong", []chatclient.Message{{Role: "user", Content: "ping"}}, nil, 0)
	return err
}

func checkStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	store, err := vectorstore.New(cfg, logger)
	if err != nil {
		return err
	}
	_, err = store.ListCollections(ctx)
	return err
}
