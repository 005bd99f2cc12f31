package app

import (
	"context"
	"strconv"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/formatting"
	"nmc-mcp/internal/registry"
	"nmc-mcp/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// PlaceholderValue is sent for required string parameters without an enum.
const PlaceholderValue = "placeholder"

const defaultSelfTestParallelism = 4

// SelfTestOptions selects and paces the self-test.
type SelfTestOptions struct {
	// Tools restricts the run to the named tools. Empty runs every tool.
	Tools []string
	// Parallelism bounds concurrent dispatches. Defaults to 4.
	Parallelism int
}

// SelfTest dispatches every selected tool once with synthesized arguments.
// Outcomes are returned in catalog order. The error is non-nil only when a
// requested tool does not exist; tool failures are reported per outcome.
func (a *Application) SelfTest(ctx context.Context, opts SelfTestOptions) ([]formatting.TestOutcome, error) {
	return runSelfTest(ctx, a.services.Registry, opts)
}

func runSelfTest(ctx context.Context, d registry.Dispatcher, opts SelfTestOptions) ([]formatting.TestOutcome, error) {
	selected, err := selectTools(d.List(), opts.Tools)
	if err != nil {
		return nil, err
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = defaultSelfTestParallelism
	}
	logging.Info("App", "Self-testing %d tools (parallelism %d)", len(selected), parallelism)

	outcomes := make([]formatting.TestOutcome, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, desc := range selected {
		g.Go(func() error {
			args, synthesized := SynthesizeArgs(desc)
			start := time.Now()
			result := d.Dispatch(gctx, desc.Name, args)
			outcomes[i] = outcomeFor(desc.Name, result, synthesized, time.Since(start))
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

func selectTools(catalog []api.ToolDescriptor, names []string) ([]api.ToolDescriptor, error) {
	if len(names) == 0 {
		return catalog, nil
	}
	byName := make(map[string]api.ToolDescriptor, len(catalog))
	for _, desc := range catalog {
		byName[desc.Name] = desc
	}
	selected := make([]api.ToolDescriptor, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		desc, ok := byName[name]
		if !ok {
			return nil, api.NewNotFoundError("tool", name)
		}
		if !seen[name] {
			seen[name] = true
			selected = append(selected, desc)
		}
	}
	return selected, nil
}

// outcomeFor grades one dispatch. A not-found failure for a tool whose
// identifiers were synthesized still proves the call path works, so it
// passes.
func outcomeFor(name string, result api.ToolResult, synthesized bool, elapsed time.Duration) formatting.TestOutcome {
	outcome := formatting.TestOutcome{Tool: name, OK: result.Success, Duration: elapsed}
	if result.Success {
		return outcome
	}
	outcome.Kind = result.Error.Kind
	outcome.Message = result.Error.Message
	if synthesized && result.Error.Kind == api.KindNotFound {
		outcome.OK = true
	}
	return outcome
}

// SynthesizeArgs builds the minimal arguments for desc: required parameters
// only, using the first enum value or a type-appropriate placeholder. The
// boolean reports whether any value was synthesized.
func SynthesizeArgs(desc api.ToolDescriptor) (map[string]interface{}, bool) {
	args := map[string]interface{}{}
	for _, p := range desc.Parameters {
		if !p.Required {
			continue
		}
		args[p.Name] = placeholderFor(p)
	}
	return args, len(args) > 0
}

func placeholderFor(p api.ParameterMetadata) interface{} {
	switch p.Type {
	case api.TypeString:
		if len(p.Enum) > 0 {
			return p.Enum[0]
		}
		return PlaceholderValue
	case api.TypeInteger:
		if len(p.Enum) > 0 {
			if n, err := strconv.Atoi(p.Enum[0]); err == nil {
				return n
			}
		}
		return 1
	case api.TypeNumber:
		if len(p.Enum) > 0 {
			if f, err := strconv.ParseFloat(p.Enum[0], 64); err == nil {
				return f
			}
		}
		return 1.0
	case api.TypeBoolean:
		return false
	case api.TypeArray:
		return []interface{}{}
	default:
		return map[string]interface{}{}
	}
}
