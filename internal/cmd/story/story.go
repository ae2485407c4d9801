// Package story parses story command flags and composes transport entrypoints.
package story

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/storyloom/storyloom/internal/platform/cmd"
	server "github.com/storyloom/storyloom/internal/services/story/app"
)

// Config holds story command configuration.
type Config struct {
	HTTPAddr             string `env:"STORYLOOM_HTTP_ADDR"              envDefault:":8080"`
	DBPath               string `env:"STORYLOOM_DB_PATH"`
	OpenAIAPIKey         string `env:"STORYLOOM_OPENAI_API_KEY"`
	OpenAIModel          string `env:"STORYLOOM_OPENAI_MODEL"           envDefault:"gpt-3.5-turbo-instruct"`
	OpenAICompletionsURL string `env:"STORYLOOM_OPENAI_COMPLETIONS_URL"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "story HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "event journal SQLite path (empty keeps rooms in memory)")
	fs.StringVar(&cfg.OpenAIAPIKey, "openai-api-key", cfg.OpenAIAPIKey, "OpenAI API key")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", cfg.OpenAIModel, "OpenAI completion model")
	fs.StringVar(&cfg.OpenAICompletionsURL, "openai-completions-url", cfg.OpenAICompletionsURL, "OpenAI completions endpoint override")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the story app and starts realtime transport behavior.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceStory, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:             cfg.HTTPAddr,
			DBPath:               cfg.DBPath,
			OpenAIAPIKey:         cfg.OpenAIAPIKey,
			OpenAIModel:          cfg.OpenAIModel,
			OpenAICompletionsURL: cfg.OpenAICompletionsURL,
		}); err != nil {
			return fmt.Errorf("serve story: %w", err)
		}
		return nil
	})
}
