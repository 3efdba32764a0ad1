// Command cruxe-indexworker is the detached worker process internal/jobmgr
// spawns for one index_repo/sync_repo call. It reads its job identity from
// environment variables, runs the indexing job, and exits; it never serves
// tool calls itself.
package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/cruxe/cruxe/internal/indexer"
	"github.com/cruxe/cruxe/internal/jobmgr"
	"github.com/cruxe/cruxe/internal/semantic"
	"github.com/cruxe/cruxe/internal/store"
)

// envQdrantHost, when set, points the worker at a Qdrant instance to
// mirror newly indexed symbols into for hybrid search; unset means the
// worker only publishes the lexical overlay, same as before this
// channel existed.
const (
	envQdrantHost = "CRUXE_QDRANT_HOST"
	envQdrantPort = "CRUXE_QDRANT_PORT"
	envQdrantAPIKey = "CRUXE_QDRANT_API_KEY"
)

const semanticEmbeddingDim = 256

func main() {
	projectID := requireEnv(jobmgr.EnvProjectID)
	dataDir := requireEnv(jobmgr.EnvDataDir)
	repoRoot := requireEnv(jobmgr.EnvRepoRoot)
	jobID := requireEnv(jobmgr.EnvJobID)
	mode := indexer.Mode(os.Getenv(jobmgr.EnvMode))
	explicitRef := os.Getenv(jobmgr.EnvExplicitRef)
	progressToken := os.Getenv(jobmgr.EnvProgressToken)

	s, err := store.OpenInDataDir(dataDir, store.Config{})
	if err != nil {
		log.Fatalf("cruxe-indexworker: open store: %v", err)
	}
	defer s.Close()

	ix := indexer.New(s, dataDir, repoRoot, projectID)
	if provider, err := openSemanticProvider(); err != nil {
		log.Printf("cruxe-indexworker: semantic provider disabled: %v", err)
	} else if provider != nil {
		ix.Semantic = provider
		defer provider.Close()
	}

	result, err := ix.Run(context.Background(), indexer.Options{
		JobID:         jobID,
		ExplicitRef:   explicitRef,
		Mode:          mode,
		ProgressToken: progressToken,
	})
	if err != nil {
		log.Fatalf("cruxe-indexworker: job %s failed: %v", jobID, err)
	}
	log.Printf("cruxe-indexworker: job %s published ref=%s files_indexed=%d symbols_extracted=%d",
		jobID, result.Ref, result.FilesIndexed, result.SymbolsExtracted)
}

func requireEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		log.Fatalf("cruxe-indexworker: missing required environment variable %s", name)
	}
	return v
}

// openSemanticProvider returns nil, nil when CRUXE_QDRANT_HOST is unset:
// the worker runs lexical-only, same as a deployment that never
// configured a vector store.
func openSemanticProvider() (*semantic.QdrantProvider, error) {
	host := os.Getenv(envQdrantHost)
	if host == "" {
		return nil, nil
	}
	port := 6334
	if raw := os.Getenv(envQdrantPort); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		port = p
	}
	return semantic.NewQdrantProvider(semantic.Config{
		Host:   host,
		Port:   port,
		APIKey: os.Getenv(envQdrantAPIKey),
		Dim:    semanticEmbeddingDim,
	}, semantic.NewHashEmbedder(semanticEmbeddingDim))
}
