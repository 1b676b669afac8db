// Tarot reading orchestrator daemon: wires the pipeline together and
// exposes a minimal SSE endpoint demonstrating the streamed reading. The
// production HTTP/auth surface is an external collaborator; this binary
// shows the channel-to-SSE adaptation with nothing but net/http.
package main

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/tarot-reading/pkg/audit"
	"github.com/codeready-toolchain/tarot-reading/pkg/config"
	"github.com/codeready-toolchain/tarot-reading/pkg/database"
	"github.com/codeready-toolchain/tarot-reading/pkg/deck"
	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
	"github.com/codeready-toolchain/tarot-reading/pkg/orchestrator"
	"github.com/codeready-toolchain/tarot-reading/pkg/rag"
	"github.com/codeready-toolchain/tarot-reading/pkg/retriever"
	"github.com/codeready-toolchain/tarot-reading/pkg/significator"
	"github.com/codeready-toolchain/tarot-reading/pkg/vectorstore"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: no .env file loaded: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// The service-role connection runs migrations and all writes; policy
	// enforcement for reads belongs to the out-of-scope HTTP layer.
	dbClient, err := database.NewClient(ctx, database.DefaultConfig(cfg.ServiceDSN()))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbClient.Close()

	var client llmclient.ModelClient
	if cfg.UseOpenRouter {
		client = llmclient.NewOpenRouter(cfg.OpenRouterAPIKey)
	} else {
		client = llmclient.NewOpenAI(cfg.OpenAIAPIKey)
	}

	store := vectorstore.NewPostgres(dbClient.Pool)
	if err := store.Health(ctx); err != nil {
		slog.Warn("vector store health probe failed, continuing degraded", "error", err)
	}
	index := rag.NewRagIndex(client, store, cfg.ResolveModels().Embedding)

	repo := deck.NewPostgresRepository(dbClient.Pool)
	o := orchestrator.New(orchestrator.Deps{
		Config:       cfg,
		Client:       client,
		Selector:     deck.NewSelector(repo, rand.New(rand.NewSource(cryptoSeed()))),
		Significator: significator.NewResolver(repo),
		Retriever:    retriever.New(index),
		Store:        orchestrator.NewPostgresStore(dbClient.Pool),
		Audit:        audit.NewPostgresSink(dbClient.Pool),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+cfg.APIV1Prefix+"/readings/stream", func(w http.ResponseWriter, r *http.Request) {
		var req models.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		events, err := o.StreamReading(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		flusher, _ := w.(http.Flusher)
		enc := json.NewEncoder(w)
		for ev := range events {
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if err := enc.Encode(ev); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	})

	addr := ":" + getEnv("HTTP_PORT", "8000")
	slog.Info("tarot reading orchestrator listening", "addr", addr, "api_prefix", cfg.APIV1Prefix)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// cryptoSeed seeds the dealing PRNG from the OS entropy source so the
// shuffle is not operator-predictable, without requiring cryptographic
// randomness in the selector itself.
func cryptoSeed() int64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return int64(os.Getpid())
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
