package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tidecraft.ai/internal/agent"
	"tidecraft.ai/internal/engine"
	"tidecraft.ai/internal/persistence/indexdb"
	"tidecraft.ai/internal/persistence/store"
	"tidecraft.ai/internal/sim/tuning"
	"tidecraft.ai/internal/transport/httpapi"
	"tidecraft.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite session index")

		llmURL   = flag.String("llm_url", "", "OpenAI-compatible base url (empty runs offline; or set TC_LLM_URL)")
		llmModel = flag.String("llm_model", "gpt-4.1", "model for the game-master/NPC/narrator agents")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.Open(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
	} else {
		logger.Printf("session index disabled (-disable_db)")
	}

	st := store.Open(*dataDir, idx, logger)

	var client agent.Client
	baseURL := strings.TrimSpace(*llmURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv("TC_LLM_URL"))
	}
	if baseURL != "" {
		httpClient, err := agent.NewHTTPClient(baseURL, os.Getenv("TC_LLM_API_KEY"), *llmModel)
		if err != nil {
			logger.Fatalf("llm client: %v", err)
		}
		client = httpClient
		logger.Printf("llm: %s model=%s", baseURL, *llmModel)
	} else {
		logger.Printf("llm: offline mode, turns use deterministic fallbacks")
	}

	eng := engine.New(st, client, *llmModel, tune, logger)
	hub := ws.NewHub(logger)
	eng.OnCommit = hub.Publish

	mux := http.NewServeMux()
	httpapi.NewServer(eng, logger).Register(mux)
	mux.HandleFunc("/api/watch", hub.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
