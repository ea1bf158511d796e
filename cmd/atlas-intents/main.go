// README: Runs one message through the classification gate and prints the resulting intents.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"atlas/internal/ai"
	"atlas/internal/config"
	"atlas/internal/infra"
	"atlas/internal/intent"
)

func main() {
	attempts := flag.Int("attempts", 0, "classifier attempts (default from config)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	message := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if message == "" {
		fmt.Fprintln(os.Stderr, "usage: atlas-intents [-attempts N] <message>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(false)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	agent, err := ai.NewAgent(ctx, ai.Settings{
		Provider:    ai.Provider(cfg.AI.Provider),
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
	}, ai.ClassifierPrompt)
	if err != nil {
		log.Fatalf("init ai agent: %v", err)
	}
	defer agent.Close()

	n := *attempts
	if n < 1 {
		n = cfg.Turn.ClassifierAttempts
	}
	gate := intent.NewGate(ai.NewClassifier(agent), n, logger)

	fmt.Printf("User: %s\n", message)
	res, err := gate.Classify(ctx, message)
	if err != nil {
		log.Fatalf("classify: %v", err)
	}

	out, _ := json.MarshalIndent(res.Intents, "", "  ")
	fmt.Printf("Intents (%d attempt(s), degraded=%t):\n%s\n", res.Attempts, res.Degraded, out)
}
