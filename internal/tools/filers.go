package tools

import (
	"context"
	"sort"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/nmc"
)

// highCachePercent flags filers whose cache is nearly full.
const highCachePercent = 80

type filerList struct {
	Total  int                `json:"total"`
	Online int                `json:"online"`
	Filers []nmc.FilerSummary `json:"filers"`
}

type filerStats struct {
	Total             int          `json:"total"`
	Online            int          `json:"online"`
	Offline           int          `json:"offline"`
	OfflineFilers     []string     `json:"offline_filers"`
	Platforms         []countEntry `json:"platforms"`
	Versions          []countEntry `json:"versions"`
	TotalCacheGB      float64      `json:"total_cache_gb"`
	UsedCacheGB       float64      `json:"used_cache_gb"`
	AverageCachePct   float64      `json:"average_cache_used_percent"`
	HighCacheFilers   []string     `json:"high_cache_filers"`
	TotalCPUCores     int          `json:"total_cpu_cores"`
	AverageUptimeDays float64      `json:"average_uptime_days"`
}

func filerTools(deps Deps) []api.ToolDescriptor {
	filers := deps.NMC.Filers
	return []api.ToolDescriptor{
		tool("list_filers",
			"List all filers (edge appliances) with status, platform, version and cache usage",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := filers.List(ctx)
				if err != nil {
					return nil, err
				}
				out := filerList{Total: len(list), Filers: make([]nmc.FilerSummary, 0, len(list))}
				for _, f := range list {
					if f.Online() {
						out.Online++
					}
					out.Filers = append(out.Filers, f.Summary())
				}
				return out, nil
			}),

		tool("get_filer_stats",
			"Aggregate filer statistics: online/offline counts, platforms, versions and cache utilization",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := filers.List(ctx)
				if err != nil {
					return nil, err
				}
				return summarizeFilers(list), nil
			}),

		tool("get_filer",
			"Get one filer by GUID, serial number or description (case-insensitive)",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				identifier := args.String("identifier")
				list, err := filers.List(ctx)
				if err != nil {
					return nil, err
				}
				for _, f := range list {
					if f.Matches(identifier) {
						return f.Summary(), nil
					}
				}
				return nil, api.NewNotFoundError("filer", identifier)
			},
			stringParam("identifier", "Filer GUID, serial number or description", true)),
	}
}

func summarizeFilers(list []nmc.Filer) filerStats {
	stats := filerStats{
		Total:           len(list),
		OfflineFilers:   []string{},
		HighCacheFilers: []string{},
	}
	platforms := map[string]int{}
	versions := map[string]int{}
	var cachePct float64
	var uptime int64

	for _, f := range list {
		if f.Online() {
			stats.Online++
		} else {
			stats.Offline++
			stats.OfflineFilers = append(stats.OfflineFilers, f.Description)
		}
		platforms[orUnknown(f.Status.Platform.PlatformName)]++
		versions[orUnknown(f.Status.OSVersion)]++

		cache := f.Status.Platform.CacheStatus
		stats.TotalCacheGB += cache.SizeGB()
		stats.UsedCacheGB += cache.UsedGB()
		cachePct += cache.PercentUsed
		if cache.PercentUsed >= highCachePercent {
			stats.HighCacheFilers = append(stats.HighCacheFilers, f.Description)
		}
		stats.TotalCPUCores += f.Status.Platform.CPU.Cores
		uptime += f.UptimeDays()
	}

	if n := len(list); n > 0 {
		stats.AverageCachePct = round1(cachePct / float64(n))
		stats.AverageUptimeDays = round1(float64(uptime) / float64(n))
	}
	stats.TotalCacheGB = round1(stats.TotalCacheGB)
	stats.UsedCacheGB = round1(stats.UsedCacheGB)
	sort.Strings(stats.OfflineFilers)
	sort.Strings(stats.HighCacheFilers)
	stats.Platforms = sortedCounts(platforms)
	stats.Versions = sortedCounts(versions)
	return stats
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
