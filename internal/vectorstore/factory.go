package vectorstore

import (
	"fmt"
	"net/url"

	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/logging"
)

// New opens the Store backend named by cfg.VectorDBURL: a "chromem://"
// URL selects the embedded pure-Go backend, a "qdrant://", "http://" or
// "https://" address selects the production Qdrant backend, and any
// other scheme is an error.
func New(cfg *config.Config, logger *logging.Logger) (Store, error) {
	u, err := url.Parse(cfg.VectorDBURL)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: parsing vector_db_url: %w", err)
	}

	switch u.Scheme {
	case "chromem":
		path := u.Opaque
		if path == "" {
			path = u.Path
		}
		if path == "" {
			path = u.Host
		}
		return NewChromemStore(ChromemConfig{Path: path}, logger)
	case "qdrant", "http", "https":
		host := u.Hostname()
		port := 6334
		if u.Port() != "" {
			if p, err := portFromURL(u); err == nil {
				port = p
			}
		}
		return NewQdrantStore(QdrantConfig{
			Host:   host,
			Port:   port,
			UseTLS: u.Scheme == "https",
		}, logger)
	default:
		return nil, fmt.Errorf("vectorstore: unsupported vector_db_url scheme %q", u.Scheme)
	}
}

func portFromURL(u *url.URL) (int, error) {
	var port int
	_, err := fmt.Sscanf(u.Port(), "%d", &port)
	return port, err
}
