package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/auth"
	"nmc-mcp/internal/clock"
	"nmc-mcp/internal/nmc"
	"nmc-mcp/pkg/logging"
)

// TokenManager is the part of *auth.Manager the auth tools need.
type TokenManager interface {
	EnsureValid(ctx context.Context) (auth.Token, error)
	Refresh(ctx context.Context, force bool) (auth.Token, error)
	Status() auth.Status
}

// Registrar accepts tool descriptors. *registry.Registry implements it.
type Registrar interface {
	Register(desc api.ToolDescriptor) error
}

// Deps are the collaborators the handlers are bound to.
type Deps struct {
	NMC    *nmc.Client
	Tokens TokenManager
	// Clock anchors time-window filters such as "the last 24 hours".
	Clock clock.Clock
}

// Catalog returns every tool descriptor bound to deps, grouped by domain.
func Catalog(deps Deps) []api.ToolDescriptor {
	deps.Clock = clock.OrReal(deps.Clock)

	var all []api.ToolDescriptor
	all = append(all, filerTools(deps)...)
	all = append(all, volumeTools(deps)...)
	all = append(all, volumeReportTools(deps)...)
	all = append(all, shareTools(deps)...)
	all = append(all, healthTools(deps)...)
	all = append(all, authTools(deps)...)
	all = append(all, credentialTools(deps)...)
	all = append(all, notificationTools(deps)...)
	return all
}

// RegisterAll registers the whole catalog, stopping at the first failure.
func RegisterAll(r Registrar, deps Deps) error {
	catalog := Catalog(deps)
	for _, desc := range catalog {
		if err := r.Register(desc); err != nil {
			return fmt.Errorf("registering NMC tools: %w", err)
		}
	}
	logging.Info("Tools", "Registered %d NMC tools", len(catalog))
	return nil
}

// tool fills in the fields every NMC tool shares.
func tool(name, description string, handler api.Handler, params ...api.ParameterMetadata) api.ToolDescriptor {
	return api.ToolDescriptor{
		Name:        name,
		Description: description,
		Parameters:  params,
		Permission:  api.PermissionRead,
		Handler:     handler,
	}
}

func stringParam(name, description string, required bool) api.ParameterMetadata {
	return api.ParameterMetadata{Name: name, Type: api.TypeString, Required: required, Description: description}
}

func filerSerialParam(required bool) api.ParameterMetadata {
	return stringParam("filer_serial", "Filer serial number, e.g. SN-NYC-0001", required)
}

// notFoundOn404 turns a 404 from an item endpoint into a NotFoundError.
func notFoundOn404(err error, resourceType, name string) error {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
		return api.NewNotFoundError(resourceType, name)
	}
	return err
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type countEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// sortedCounts renders a tally ordered by count, then name.
func sortedCounts(counts map[string]int) []countEntry {
	out := make([]countEntry, 0, len(counts))
	for name, n := range counts {
		out = append(out, countEntry{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
