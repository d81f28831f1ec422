// Package config provides configuration loading for the query engine.
package config

import (
	"fmt"
)

// Config holds every external dependency address and tunable named in the
// external interfaces contract: the vector store, the embedding service,
// the chat service, and the defaults the CLI falls back to when a flag is
// omitted.
type Config struct {
	VectorDBURL string `koanf:"vector_db_url"`

	EmbedAPIBase   string `koanf:"embed_api_base"`
	EmbedAPIKey    Secret `koanf:"embed_api_key"`
	EmbedModel     string `koanf:"embed_model"`
	EmbedBatchSize int    `koanf:"embed_batch_size"`

	ChatAPIBase string `koanf:"chat_api_base"`
	ChatAPIKey  Secret `koanf:"chat_api_key"`
	ChatModel   string `koanf:"chat_model"`

	DefaultTopK      int     `koanf:"default_top_k"`
	ContentMaxLength int     `koanf:"content_max_length"`
	Temperature      float64 `koanf:"temperature"`
	VerifySSL        bool    `koanf:"verify_ssl"`
}

// NewDefaultConfig returns the optional-field defaults named in the
// external interfaces contract. Required fields (VectorDBURL, the
// embedding and chat service addresses/models) are left empty and must
// come from the environment.
func NewDefaultConfig() *Config {
	return &Config{
		EmbedBatchSize:   8,
		DefaultTopK:      10,
		ContentMaxLength: 800,
		Temperature:      0,
		VerifySSL:        true,
	}
}

// Validate enforces the "required unless noted" rules: the store and the
// two model service addresses/models must be set, batch size and top-k
// must be positive, and temperature must fall in the range a chat API
// accepts.
func (c *Config) Validate() error {
	var missing []string
	if c.VectorDBURL == "" {
		missing = append(missing, "vector_db_url")
	}
	if c.EmbedAPIBase == "" {
		missing = append(missing, "embed_api_base")
	}
	if c.EmbedModel == "" {
		missing = append(missing, "embed_model")
	}
	if c.ChatAPIBase == "" {
		missing = append(missing, "chat_api_base")
	}
	if c.ChatModel == "" {
		missing = append(missing, "chat_model")
	}
	if len(missing) > 0 {
		return &ConfigError{Fields: missing, Reason: "required and not set"}
	}

	if c.EmbedBatchSize <= 0 {
		return &ConfigError{Fields: []string{"embed_batch_size"}, Reason: "must be > 0"}
	}
	if c.DefaultTopK <= 0 {
		return &ConfigError{Fields: []string{"default_top_k"}, Reason: "must be > 0"}
	}
	if c.ContentMaxLength <= 0 {
		return &ConfigError{Fields: []string{"content_max_length"}, Reason: "must be > 0"}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &ConfigError{Fields: []string{"temperature"}, Reason: "must be between 0 and 2"}
	}
	return nil
}

// ConfigError reports one or more invalid or missing configuration fields.
type ConfigError struct {
	Fields []string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %v: %s", e.Fields, e.Reason)
}
