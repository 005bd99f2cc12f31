package tools

import (
	"context"
	"sort"
	"strings"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/nmc"
)

type shareList struct {
	Total  int                `json:"total"`
	Shares []nmc.ShareSummary `json:"shares"`
}

type shareStats struct {
	Total            int          `json:"total"`
	ReadOnly         int          `json:"read_only"`
	ReadWrite        int          `json:"read_write"`
	BrowserAccess    int          `json:"browser_access"`
	MobileAccess     int          `json:"mobile_access"`
	Browseable       int          `json:"browseable"`
	RootShares       int          `json:"root_shares"`
	PreviousVersions int          `json:"previous_versions_enabled"`
	Audited          int          `json:"audit_enabled"`
	Hidden           int          `json:"hidden"`
	ByFiler          []countEntry `json:"by_filer"`
	ByVolume         []countEntry `json:"by_volume"`
}

type volumeShares struct {
	VolumeGUID string             `json:"volume_guid"`
	Total      int                `json:"total"`
	Filers     []string           `json:"filers"`
	Shares     []nmc.ShareSummary `json:"shares"`
}

type filerShares struct {
	FilerSerial string             `json:"filer_serial"`
	Total       int                `json:"total"`
	Volumes     []string           `json:"volumes"`
	Shares      []nmc.ShareSummary `json:"shares"`
}

func shareTools(deps Deps) []api.ToolDescriptor {
	shares := deps.NMC.Shares
	return []api.ToolDescriptor{
		tool("list_shares",
			"List SMB shares, optionally filtered by filer serial or volume GUID",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := shares.List(ctx)
				if err != nil {
					return nil, err
				}
				serial, guid := args.String("filer_serial"), args.String("volume_guid")
				return filterShares(list, func(s nmc.Share) bool {
					return (serial == "" || strings.EqualFold(s.FilerSerialNumber, serial)) &&
						(guid == "" || strings.EqualFold(s.VolumeGUID, guid))
				}), nil
			},
			filerSerialParam(false),
			stringParam("volume_guid", "Volume GUID", false)),

		tool("get_share_stats",
			"Aggregate share statistics: permissions, access methods and distribution across filers and volumes",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := shares.List(ctx)
				if err != nil {
					return nil, err
				}
				return summarizeShares(list), nil
			}),

		tool("get_shares_by_filer",
			"List the shares hosted on one filer",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				serial := args.String("filer_serial")
				list, err := shares.List(ctx)
				if err != nil {
					return nil, err
				}
				matched := filterShares(list, func(s nmc.Share) bool { return strings.EqualFold(s.FilerSerialNumber, serial) })
				volumes := map[string]bool{}
				for _, s := range matched.Shares {
					volumes[s.VolumeGUID] = true
				}
				return filerShares{
					FilerSerial: serial,
					Total:       matched.Total,
					Volumes:     sortedKeys(volumes),
					Shares:      matched.Shares,
				}, nil
			},
			filerSerialParam(true)),

		tool("get_browser_accessible_shares",
			"List shares reachable through the web browser",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := shares.List(ctx)
				if err != nil {
					return nil, err
				}
				return filterShares(list, func(s nmc.Share) bool { return s.BrowserAccess }), nil
			}),

		tool("get_shares_by_volume",
			"List the shares of one volume across every filer",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				guid := args.String("volume_guid")
				list, err := shares.List(ctx)
				if err != nil {
					return nil, err
				}
				matched := filterShares(list, func(s nmc.Share) bool { return strings.EqualFold(s.VolumeGUID, guid) })
				filers := map[string]bool{}
				for _, s := range matched.Shares {
					filers[s.FilerSerialNumber] = true
				}
				return volumeShares{
					VolumeGUID: guid,
					Total:      matched.Total,
					Filers:     sortedKeys(filers),
					Shares:     matched.Shares,
				}, nil
			},
			stringParam("volume_guid", "Volume GUID", true)),
	}
}

func filterShares(list []nmc.Share, keep func(nmc.Share) bool) shareList {
	out := shareList{Shares: []nmc.ShareSummary{}}
	for _, s := range list {
		if keep(s) {
			out.Shares = append(out.Shares, s.Summary())
		}
	}
	out.Total = len(out.Shares)
	return out
}

func summarizeShares(list []nmc.Share) shareStats {
	stats := shareStats{Total: len(list)}
	byFiler := map[string]int{}
	byVolume := map[string]int{}
	for _, s := range list {
		if s.Readonly {
			stats.ReadOnly++
		} else {
			stats.ReadWrite++
		}
		if s.BrowserAccess {
			stats.BrowserAccess++
		}
		if s.Mobile {
			stats.MobileAccess++
		}
		if s.Browseable {
			stats.Browseable++
		}
		if s.IsRoot() {
			stats.RootShares++
		}
		if s.EnablePreviousVers {
			stats.PreviousVersions++
		}
		if s.AuditEnabled {
			stats.Audited++
		}
		if s.Hidden {
			stats.Hidden++
		}
		byFiler[orUnknown(s.FilerSerialNumber)]++
		byVolume[orUnknown(s.VolumeGUID)]++
	}
	stats.ByFiler = sortedCounts(byFiler)
	stats.ByVolume = sortedCounts(byVolume)
	return stats
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
