// Command replay verifies that folding a session's turn log over its
// initial snapshot reproduces the running snapshot, digest for digest.
package main

import (
	"flag"
	"log"
	"os"

	"tidecraft.ai/internal/persistence/store"
)

func main() {
	var (
		dataDir   = flag.String("data", "./data", "runtime data directory")
		sessionID = flag.String("session", "", "session id to verify")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags)
	if *sessionID == "" {
		logger.Fatal("-session is required")
	}

	st := store.Open(*dataDir, nil, logger)
	if err := st.VerifyReplay(*sessionID, logger.Printf); err != nil {
		logger.Fatalf("session %s: %v", *sessionID, err)
	}
	logger.Printf("session %s: replay matches the running snapshot", *sessionID)
}
