// Command meetyai runs the transcript-to-insight pipeline and export
// dispatch from the command line.
//
// Usage:
//
//	meetyai process <transcript-id>
//	meetyai export <insight-id> <config-id>
//	meetyai test-connection <config-id>
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/eugene-nechvoloda/meetyai"
	"github.com/eugene-nechvoloda/meetyai/config"
	"github.com/eugene-nechvoloda/meetyai/export"
	"github.com/eugene-nechvoloda/meetyai/llm"
	"github.com/eugene-nechvoloda/meetyai/notify"
	"github.com/eugene-nechvoloda/meetyai/secrets"
	"github.com/eugene-nechvoloda/meetyai/store"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "meetyai.yaml", "path to the config file")
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		slog.Error("meetyai failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: meetyai [-config path] <process|export|test-connection> ...")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	st, err := store.Open(cfg.DatabasePath, store.WithMkdirAll())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	switch cmd := args[0]; cmd {
	case "process":
		if len(args) != 2 {
			return fmt.Errorf("usage: meetyai process <transcript-id>")
		}
		return runProcess(ctx, cfg, st, args[1])
	case "export":
		if len(args) != 3 {
			return fmt.Errorf("usage: meetyai export <insight-id> <config-id>")
		}
		return runExport(ctx, cfg, st, args[1], args[2])
	case "test-connection":
		if len(args) != 2 {
			return fmt.Errorf("usage: meetyai test-connection <config-id>")
		}
		return runTestConnection(ctx, cfg, st, args[1])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// llmHTTPClient applies the configured per-call timeout.
func llmHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.LLMTimeout}
}

func runProcess(ctx context.Context, cfg *config.Config, st *store.Store, transcriptID string) error {
	analysis, err := llm.NewAnthropicClient(cfg.AnthropicAPIKey,
		llm.WithAnthropicHTTPClient(llmHTTPClient(cfg)))
	if err != nil {
		return err
	}

	// Without an OpenAI key the writing stage reuses the analysis provider.
	var refine llm.Client = analysis
	if cfg.OpenAIAPIKey != "" {
		refine, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey,
			llm.WithOpenAIHTTPClient(llmHTTPClient(cfg)))
		if err != nil {
			return err
		}
	}

	opts := []meetyai.ProcessorOption{
		meetyai.WithProcessorModels(meetyai.Models{
			Classify: cfg.Models.Classify,
			Extract:  cfg.Models.Analysis,
			Refine:   cfg.Models.Refine,
		}),
	}
	if cfg.SlackBotToken != "" {
		slack, err := notify.NewSlackNotifier(cfg.SlackBotToken)
		if err != nil {
			return err
		}
		opts = append(opts, meetyai.WithProcessorNotifier(slack))
	}

	p := meetyai.NewProcessor(st, analysis, refine, opts...)
	return p.Process(ctx, transcriptID)
}

func newDispatcher(cfg *config.Config, st *store.Store) (*export.Dispatcher, error) {
	box, err := secrets.NewBox(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	client, err := llm.NewAnthropicClient(cfg.AnthropicAPIKey,
		llm.WithAnthropicHTTPClient(llmHTTPClient(cfg)))
	if err != nil {
		return nil, err
	}
	judge := export.NewJudge(client, cfg.Models.Judgment, nil)
	return export.NewDispatcher(st, box, judge), nil
}

func runExport(ctx context.Context, cfg *config.Config, st *store.Store, insightID, configID string) error {
	d, err := newDispatcher(cfg, st)
	if err != nil {
		return err
	}

	res, err := d.Export(ctx, insightID, configID)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Printf("skipped: duplicate of record %s (%s)\n", res.RecordID, res.Explanation)
		return nil
	}
	fmt.Printf("exported: record %s\n", res.RecordID)
	return nil
}

func runTestConnection(ctx context.Context, cfg *config.Config, st *store.Store, configID string) error {
	d, err := newDispatcher(cfg, st)
	if err != nil {
		return err
	}
	if err := d.TestConnection(ctx, configID); err != nil {
		return err
	}
	fmt.Println("connection ok")
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
