package providers

import (
	"math/rand/v2"

	"github.com/samber/do/v2"

	"github.com/polypost/polypost-server/internal/ai"
	"github.com/polypost/polypost-server/internal/config"
	"github.com/polypost/polypost-server/internal/hostbridge"
	"github.com/polypost/polypost-server/internal/logger"
	"github.com/polypost/polypost-server/internal/permission"
	"github.com/polypost/polypost-server/internal/relay"
)

// ProvideRelayer provides the relay for custom-endpoint traffic.
// A configured relay URL forwards to a remote relay; otherwise requests go out in-process.
func ProvideRelayer(i do.Injector) (relay.Relayer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Relay.URL != "" {
		log.Info("Relaying custom endpoints remotely", "url", cfg.Relay.URL)
		return relay.NewHTTPRelayer(cfg.Relay.URL, cfg.Relay.Timeout), nil
	}
	return relay.NewDirectRelayer(cfg.Relay.Timeout, log.Component("relay")), nil
}

// ProvideBridge provides the extension bridge used for consent prompts and relaying.
func ProvideBridge(i do.Injector) (*hostbridge.SSEBridge, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	relayer := do.MustInvoke[relay.Relayer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return hostbridge.NewSSEBridge(sseHandle.Manager, relayer, cfg.Permission.ConsentTimeout, log.Component("bridge")), nil
}

// ProvideGate provides the permission gate.
func ProvideGate(i do.Injector) (*permission.Gate, error) {
	cfg := do.MustInvoke[*config.Config](i)
	repo := do.MustInvoke[*RepositoryHandle](i)
	bridge := do.MustInvoke[*hostbridge.SSEBridge](i)
	log := do.MustInvoke[*logger.Logger](i)

	return permission.NewGate(permission.Config{
		Required: cfg.Permission.RequiredOrigins,
		Optional: cfg.Permission.OptionalOrigins,
	}, repo, bridge, log.Component("permission")), nil
}

// AIClientHandle wraps the transform client with shutdown capability.
type AIClientHandle struct {
	*ai.Client
}

// Shutdown implements do.Shutdownable.
func (h *AIClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideAIClient provides the chat-completion client.
func ProvideAIClient(i do.Injector) (*AIClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	relayer := do.MustInvoke[relay.Relayer](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := ai.New(ai.Config{
		DefaultBaseURL: cfg.AI.DefaultBaseURL,
		Model:          cfg.AI.Model,
		Timeout:        cfg.AI.Timeout,
		RPS:            cfg.AI.RPS,
		Burst:          cfg.AI.Burst,
	}, relayer, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), log.Component("ai"))

	log.Info("Transform client ready", "model", cfg.AI.Model, "base_url", cfg.AI.DefaultBaseURL)

	return &AIClientHandle{Client: client}, nil
}
