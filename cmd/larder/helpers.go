// Shared helpers for larder CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/larder/pkg/engine"
	"github.com/mesh-intelligence/larder/pkg/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// buildEngine loads configuration, attaches the backend, and registers
// the configured models. The caller must invoke the returned cleanup.
func buildEngine() (*engine.Engine, func(), error) {
	v, cfg, err := resolveConfig()
	if err != nil {
		return nil, nil, err
	}
	models, err := loadModels(v)
	if err != nil {
		return nil, nil, err
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, nil, fmt.Errorf("attach backend: %w", err)
	}
	cleanup := func() {
		if err := backend.Detach(); err != nil {
			logger.Warn().Err(err).Msg("detach backend")
		}
	}

	eng := engine.New(backend, engine.WithLogger(logger))
	for _, m := range models {
		if err := eng.Register(m); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("register model %s: %w", m.Name, err)
		}
	}
	return eng, cleanup, nil
}

// parsePayload unmarshals a JSON payload argument.
func parsePayload(raw string) (types.Payload, error) {
	var p types.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return types.Payload{}, fmt.Errorf("parse payload: %w", err)
	}
	return p, nil
}

// parseParams turns key=value arguments into request parameters for
// list and count. Values stay strings; the query planner converts each
// one to its field's declared kind when the plan is built.
func parseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", arg)
		}
		// Repeated keys build a list, useful with the _in operator.
		if prev, ok := params[key]; ok {
			if list, ok := prev.([]any); ok {
				params[key] = append(list, value)
			} else {
				params[key] = []any{prev, value}
			}
			continue
		}
		params[key] = value
	}
	return params, nil
}

// printResult writes a value as indented JSON to stdout.
func printResult(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
