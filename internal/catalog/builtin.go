package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/polypost/polypost-server/internal/domain"
)

//go:embed prompts.yaml
var builtinYAML []byte

var builtins = mustParseBuiltins(builtinYAML)

func mustParseBuiltins(data []byte) []domain.Prompt {
	prompts, err := parsePrompts(data)
	if err != nil {
		panic(err)
	}
	return prompts
}

func parsePrompts(data []byte) ([]domain.Prompt, error) {
	var prompts []domain.Prompt
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("parse built-in prompts: %w", err)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("parse built-in prompts: no prompts defined")
	}
	seen := make(map[string]bool, len(prompts))
	for _, p := range prompts {
		if p.ID == "" || p.Content == "" {
			return nil, fmt.Errorf("parse built-in prompts: prompt %q is incomplete", p.ID)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("parse built-in prompts: duplicate id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return prompts, nil
}

// Builtins returns a fresh copy of the built-in prompts.
func Builtins() []domain.Prompt {
	out := make([]domain.Prompt, len(builtins))
	copy(out, builtins)
	return out
}
