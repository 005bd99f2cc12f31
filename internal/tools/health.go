package tools

import (
	"context"
	"sort"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/nmc"
)

type healthList struct {
	Total  int                 `json:"total"`
	Filers []nmc.HealthSummary `json:"filers"`
}

type healthStats struct {
	Total              int          `json:"total"`
	Healthy            int          `json:"healthy"`
	Warning            int          `json:"warning"`
	Unhealthy          int          `json:"unhealthy"`
	Unknown            int          `json:"unknown"`
	HealthyPercent     float64      `json:"healthy_percent"`
	AverageScore       float64      `json:"average_health_score"`
	ComponentFailures  []countEntry `json:"component_failures"`
	ComponentWarnings  []countEntry `json:"component_warnings"`
	LowestScoringFiler string       `json:"lowest_scoring_filer,omitempty"`
}

type unhealthyFilers struct {
	Total  int                 `json:"total"`
	Filers []nmc.HealthSummary `json:"filers"`
}

type healthIssue struct {
	FilerSerialNumber string `json:"filer_serial_number"`
	Component         string `json:"component"`
	Status            string `json:"status"`
	LastUpdated       string `json:"last_updated"`
}

type criticalIssues struct {
	Total          int           `json:"total"`
	AffectedFilers int           `json:"affected_filers"`
	ByComponent    []countEntry  `json:"by_component"`
	Issues         []healthIssue `json:"issues"`
}

func healthTools(deps Deps) []api.ToolDescriptor {
	health := deps.NMC.Health
	return []api.ToolDescriptor{
		tool("list_filer_health",
			"List the per-component health of every filer with an overall status and score",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := health.List(ctx)
				if err != nil {
					return nil, err
				}
				out := healthList{Total: len(list), Filers: make([]nmc.HealthSummary, 0, len(list))}
				for _, h := range list {
					out.Filers = append(out.Filers, h.Summary())
				}
				return out, nil
			}),

		tool("get_filer_health_by_serial",
			"Get the health report of one filer",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				serial := args.String("filer_serial")
				h, err := health.Get(ctx, serial)
				if err != nil {
					return nil, notFoundOn404(err, "filer health", serial)
				}
				return h.Summary(), nil
			},
			filerSerialParam(true)),

		tool("get_filer_health_stats",
			"Aggregate health statistics across all filers, including the most frequently failing components",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := health.List(ctx)
				if err != nil {
					return nil, err
				}
				return summarizeHealth(list), nil
			}),

		tool("get_unhealthy_filers",
			"List filers whose overall health is Unhealthy or Warning, worst first",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := health.List(ctx)
				if err != nil {
					return nil, err
				}
				out := unhealthyFilers{Filers: []nmc.HealthSummary{}}
				for _, h := range list {
					switch h.OverallStatus() {
					case nmc.HealthUnhealthy, nmc.HealthWarning:
						out.Filers = append(out.Filers, h.Summary())
					}
				}
				sort.SliceStable(out.Filers, func(i, j int) bool {
					return out.Filers[i].HealthScore < out.Filers[j].HealthScore
				})
				out.Total = len(out.Filers)
				return out, nil
			}),

		tool("get_critical_health_issues",
			"List every unhealthy component on every filer",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := health.List(ctx)
				if err != nil {
					return nil, err
				}
				return criticalHealthIssues(list), nil
			}),
	}
}

func summarizeHealth(list []nmc.FilerHealth) healthStats {
	stats := healthStats{Total: len(list)}
	failures := map[string]int{}
	warnings := map[string]int{}
	var scoreSum float64
	lowest := -1.0

	for _, h := range list {
		switch h.OverallStatus() {
		case nmc.HealthHealthy:
			stats.Healthy++
		case nmc.HealthWarning:
			stats.Warning++
		case nmc.HealthUnhealthy:
			stats.Unhealthy++
		default:
			stats.Unknown++
		}
		score := h.Score()
		scoreSum += score
		if lowest < 0 || score < lowest {
			lowest = score
			stats.LowestScoringFiler = h.FilerSerialNumber
		}
		for _, c := range h.ComponentsWithStatus(nmc.HealthUnhealthy) {
			failures[c]++
		}
		for _, c := range h.ComponentsWithStatus(nmc.HealthWarning) {
			warnings[c]++
		}
	}

	if stats.Total > 0 {
		stats.AverageScore = round1(scoreSum / float64(stats.Total))
	}
	stats.HealthyPercent = percent(stats.Healthy, stats.Total)
	stats.ComponentFailures = sortedCounts(failures)
	stats.ComponentWarnings = sortedCounts(warnings)
	return stats
}

func criticalHealthIssues(list []nmc.FilerHealth) criticalIssues {
	out := criticalIssues{Issues: []healthIssue{}}
	byComponent := map[string]int{}
	for _, h := range list {
		components := h.ComponentsWithStatus(nmc.HealthUnhealthy)
		if len(components) > 0 {
			out.AffectedFilers++
		}
		for _, c := range components {
			byComponent[c]++
			out.Issues = append(out.Issues, healthIssue{
				FilerSerialNumber: h.FilerSerialNumber,
				Component:         c,
				Status:            nmc.HealthUnhealthy,
				LastUpdated:       h.LastUpdated,
			})
		}
	}
	out.Total = len(out.Issues)
	out.ByComponent = sortedCounts(byComponent)
	return out
}
