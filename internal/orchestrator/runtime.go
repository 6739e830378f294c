package orchestrator

import (
	"context"
	"fmt"

	"github.com/cexll/agentsdk-go/pkg/api"
	"github.com/cexll/agentsdk-go/pkg/model"

	"github.com/Alpha200/ha-ai-tasker/internal/config"
)

// Runtime is the external decision step (allows mocking in tests).
type Runtime interface {
	Run(ctx context.Context, req api.Request) (*api.Response, error)
	Close()
}

// runtimeAdapter wraps api.Runtime to implement Runtime.
type runtimeAdapter struct {
	rt *api.Runtime
}

func (r *runtimeAdapter) Run(ctx context.Context, req api.Request) (*api.Response, error) {
	return r.rt.Run(ctx, req)
}

func (r *runtimeAdapter) Close() {
	r.rt.Close()
}

// RuntimeFactory creates a Runtime instance.
type RuntimeFactory func(cfg *config.Config) (Runtime, error)

// DefaultRuntimeFactory builds the agentsdk-go runtime with both backend
// endpoints registered as MCP servers. Missing endpoints are simply not
// registered; the decision step then runs without those tools.
func DefaultRuntimeFactory(cfg *config.Config) (Runtime, error) {
	var provider api.ModelFactory
	switch cfg.Provider.Type {
	case "anthropic":
		provider = &model.AnthropicProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			ModelName: cfg.Agent.Model,
			MaxTokens: cfg.Agent.MaxTokens,
		}
	default: // "openai" or empty
		provider = &model.OpenAIProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			ModelName: cfg.Agent.Model,
			MaxTokens: cfg.Agent.MaxTokens,
		}
	}

	var servers []string
	if cfg.Backends.MemoryURL != "" {
		servers = append(servers, cfg.Backends.MemoryURL)
	}
	if cfg.Backends.MiscURL != "" {
		servers = append(servers, cfg.Backends.MiscURL)
	}

	rt, err := api.New(context.Background(), api.Options{
		ProjectRoot:   config.ConfigDir(),
		ModelFactory:  provider,
		MaxIterations: cfg.Agent.MaxToolIterations,
		MCPServers:    servers,
	})
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	return &runtimeAdapter{rt: rt}, nil
}
