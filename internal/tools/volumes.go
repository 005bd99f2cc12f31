package tools

import (
	"context"
	"slices"
	"sort"
	"strings"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/nmc"
)

type volumeList struct {
	Total   int                 `json:"total"`
	Filters map[string]string   `json:"filters,omitempty"`
	Volumes []nmc.VolumeSummary `json:"volumes"`
}

type locationGroup struct {
	Location  string   `json:"location"`
	Providers []string `json:"providers"`
	Count     int      `json:"count"`
	Volumes   []string `json:"volumes"`
}

type volumeStats struct {
	Total               int          `json:"total"`
	NMCManaged          int          `json:"nmc_managed"`
	Providers           []countEntry `json:"providers"`
	Protocols           []countEntry `json:"protocols"`
	WithQuota           int          `json:"with_quota"`
	TotalQuotaGB        float64      `json:"total_quota_gb"`
	AntivirusEnabled    int          `json:"antivirus_enabled"`
	RemoteAccessEnabled int          `json:"remote_access_enabled"`
	Public              int          `json:"public"`
	Compressed          int          `json:"compression_enabled"`
	InfiniteRetention   int          `json:"infinite_retention"`
}

type filerVolumes struct {
	FilerSerial string              `json:"filer_serial"`
	Owned       []nmc.VolumeSummary `json:"owned_volumes"`
	Connected   []nmc.VolumeSummary `json:"connected_volumes,omitempty"`
	Total       int                 `json:"total"`
}

type volumeFilerView struct {
	FilerSerialNumber string  `json:"filer_serial_number"`
	Type              string  `json:"type"`
	SnapshotStatus    string  `json:"snapshot_status"`
	SnapshotPercent   int     `json:"snapshot_percent"`
	LastSnapshot      string  `json:"last_snapshot,omitempty"`
	AccessibleDataGB  float64 `json:"accessible_data_gb"`
	UnprotectedGB     float64 `json:"unprotected_data_gb"`
	ProtectedPercent  float64 `json:"protected_percent"`
	ShareCount        int     `json:"share_count"`
	ExportCount       int     `json:"export_count"`
}

type volumeFilers struct {
	VolumeGUID string            `json:"volume_guid"`
	Total      int               `json:"total"`
	Filers     []volumeFilerView `json:"filers"`
}

const bytesPerGB = 1 << 30

func volumeTools(deps Deps) []api.ToolDescriptor {
	volumes := deps.NMC.Volumes
	return []api.ToolDescriptor{
		tool("list_volumes",
			"List volumes, optionally filtered by provider location, cloud provider or protocol",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := volumes.List(ctx)
				if err != nil {
					return nil, err
				}
				location, provider, protocol := args.String("location"), args.String("provider"), args.String("protocol")
				out := volumeList{Volumes: []nmc.VolumeSummary{}, Filters: map[string]string{}}
				for k, v := range map[string]string{"location": location, "provider": provider, "protocol": protocol} {
					if v != "" {
						out.Filters[k] = v
					}
				}
				for _, v := range list {
					if location != "" && !containsFold(v.Provider.Location, location) {
						continue
					}
					if provider != "" && !containsFold(v.Provider.Name, provider) && !containsFold(v.Provider.ShortName, provider) {
						continue
					}
					if protocol != "" && !v.HasProtocol(protocol) {
						continue
					}
					out.Volumes = append(out.Volumes, v.Summary())
				}
				out.Total = len(out.Volumes)
				return out, nil
			},
			stringParam("location", "Provider location substring, e.g. us-east-1", false),
			stringParam("provider", "Cloud provider name substring, e.g. Amazon S3", false),
			stringParam("protocol", "Protocol the volume must export: CIFS, NFS or FTP", false)),

		tool("get_volume",
			"Get one volume by GUID",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				guid := args.String("volume_guid")
				v, err := volumes.Get(ctx, guid)
				if err != nil {
					return nil, notFoundOn404(err, "volume", guid)
				}
				return v.Summary(), nil
			},
			stringParam("volume_guid", "Volume GUID", true)),

		tool("get_volumes_by_location",
			"Group volumes by cloud provider location",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := volumes.List(ctx)
				if err != nil {
					return nil, err
				}
				return groupByLocation(list), nil
			}),

		tool("get_volume_stats",
			"Aggregate volume statistics: providers, protocols, quotas and protection settings",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := volumes.List(ctx)
				if err != nil {
					return nil, err
				}
				return summarizeVolumes(list), nil
			}),

		tool("get_volumes_by_filer",
			"List volumes owned by a filer, and optionally the volumes it is connected to",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				serial := args.String("filer_serial")
				list, err := volumes.List(ctx)
				if err != nil {
					return nil, err
				}
				out := filerVolumes{FilerSerial: serial, Owned: []nmc.VolumeSummary{}}
				byGUID := make(map[string]nmc.Volume, len(list))
				for _, v := range list {
					byGUID[v.GUID] = v
					if strings.EqualFold(v.FilerSerialNumber, serial) {
						out.Owned = append(out.Owned, v.Summary())
					}
				}
				if args.Bool("include_connections") {
					conns, err := volumes.FilerConnections(ctx)
					if err != nil {
						return nil, err
					}
					out.Connected = []nmc.VolumeSummary{}
					for _, c := range conns {
						v, ok := byGUID[c.VolumeGUID]
						if !ok || !c.Connected || !strings.EqualFold(c.FilerSerialNumber, serial) ||
							strings.EqualFold(v.FilerSerialNumber, serial) {
							continue
						}
						out.Connected = append(out.Connected, v.Summary())
					}
				}
				out.Total = len(out.Owned) + len(out.Connected)
				return out, nil
			},
			filerSerialParam(true),
			api.ParameterMetadata{
				Name:        "include_connections",
				Type:        api.TypeBoolean,
				Description: "Also list volumes owned elsewhere that this filer is connected to",
				Default:     false,
			}),

		tool("get_volume_filer_details",
			"Show every filer connected to a volume with snapshot and data protection status",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				guid := args.String("volume_guid")
				details, err := volumes.ConnectedFilers(ctx, guid)
				if err != nil {
					return nil, notFoundOn404(err, "volume", guid)
				}
				out := volumeFilers{VolumeGUID: guid, Total: len(details), Filers: make([]volumeFilerView, 0, len(details))}
				for _, d := range details {
					out.Filers = append(out.Filers, volumeFilerView{
						FilerSerialNumber: d.FilerSerialNumber,
						Type:              d.Type,
						SnapshotStatus:    d.Status.SnapshotStatus,
						SnapshotPercent:   d.Status.SnapshotPercent,
						LastSnapshot:      d.Status.LastSnapshot,
						AccessibleDataGB:  round1(float64(d.Status.AccessibleData) / bytesPerGB),
						UnprotectedGB:     round1(float64(d.Status.DataNotYetProtected) / bytesPerGB),
						ProtectedPercent:  d.Status.ProtectedPercent(),
						ShareCount:        d.Status.ShareCount,
						ExportCount:       d.Status.ExportCount,
					})
				}
				return out, nil
			},
			stringParam("volume_guid", "Volume GUID", true)),
	}
}

func groupByLocation(list []nmc.Volume) []locationGroup {
	groups := map[string]*locationGroup{}
	for _, v := range list {
		loc := orUnknown(v.Provider.Location)
		g, ok := groups[loc]
		if !ok {
			g = &locationGroup{Location: loc, Providers: []string{}, Volumes: []string{}}
			groups[loc] = g
		}
		g.Count++
		g.Volumes = append(g.Volumes, v.Name)
		if name := v.Provider.Name; name != "" && !slices.Contains(g.Providers, name) {
			g.Providers = append(g.Providers, name)
		}
	}

	out := make([]locationGroup, 0, len(groups))
	for _, g := range groups {
		sort.Strings(g.Volumes)
		sort.Strings(g.Providers)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

func summarizeVolumes(list []nmc.Volume) volumeStats {
	stats := volumeStats{Total: len(list)}
	providers := map[string]int{}
	protocols := map[string]int{}
	for _, v := range list {
		providers[orUnknown(v.Provider.Name)]++
		for _, p := range v.Protocols.Protocols {
			protocols[strings.ToUpper(p)]++
		}
		if v.NMCManaged {
			stats.NMCManaged++
		}
		if v.Quota > 0 {
			stats.WithQuota++
			stats.TotalQuotaGB += v.QuotaGB()
		}
		if v.AntivirusService.Enabled {
			stats.AntivirusEnabled++
		}
		if v.RemoteAccess.Enabled {
			stats.RemoteAccessEnabled++
		}
		if v.IsPublic() {
			stats.Public++
		}
		if v.CloudIO.Compression {
			stats.Compressed++
		}
		if strings.EqualFold(v.SnapshotRetention.Retain, "INFINITE") {
			stats.InfiniteRetention++
		}
	}
	stats.TotalQuotaGB = round1(stats.TotalQuotaGB)
	stats.Providers = sortedCounts(providers)
	stats.Protocols = sortedCounts(protocols)
	return stats
}
