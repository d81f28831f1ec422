package tools

import (
	"github.com/uavquery/queryengine/internal/vectorstore"
)

// BuildRegistry assembles the eleven required tools into a frozen
// Registry: the process-wide set the reasoning agent and the chat
// model's tool schema are both built from.
func BuildRegistry(store vectorstore.Store, embedder Embedder, cfg RetrievalConfig) (*Registry, error) {
	return NewRegistry(
		NewDesignAreaRouter(store, embedder),
		NewRetrieveDatcomArchive(store, embedder, cfg),
		NewMetadataSearch(store, cfg),
		NewArticleLookup(store),
		NewPythonCalculator(),
		NewConvertWingToDatcom(),
		NewConvertTailToDatcom(),
		NewCalculateSynthesisPositions(),
		NewDefineBodyGeometry(),
		NewGenerateFltconMatrix(),
		NewValidateDatcomParameters(),
	)
}
