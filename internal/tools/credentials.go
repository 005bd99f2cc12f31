package tools

import (
	"context"
	"slices"
	"sort"
	"strings"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/nmc"

	"golang.org/x/sync/errgroup"
)

type credentialList struct {
	Total       int                     `json:"total"`
	Credentials []nmc.CredentialSummary `json:"credentials"`
}

type credentialStats struct {
	Total     int          `json:"total"`
	Unique    int          `json:"unique_credentials"`
	Synced    int          `json:"synced"`
	NotSynced int          `json:"not_synced"`
	InUse     int          `json:"in_use"`
	Unused    int          `json:"unused"`
	Providers []countEntry `json:"providers"`
	Filers    []countEntry `json:"filers"`
}

type credentialUsage struct {
	CredUUID       string   `json:"cred_uuid"`
	Name           string   `json:"name"`
	ProviderFamily string   `json:"provider_family"`
	InUse          bool     `json:"in_use"`
	Synced         bool     `json:"synced"`
	Filers         []string `json:"filers"`
	VolumeCount    int      `json:"volume_count"`
	Volumes        []string `json:"volumes"`
}

type usageAnalysis struct {
	TotalCredentials int               `json:"total_credentials"`
	UsedByVolumes    int               `json:"used_by_volumes"`
	Usage            []credentialUsage `json:"usage"`
	// Unreferenced credentials back no volume even if the NMC marks them in use.
	Unreferenced []string `json:"unreferenced_credentials"`
	// OrphanVolumes reference a credential that is not in the account.
	OrphanVolumes []string `json:"volumes_with_unknown_credential"`
}

func credentialTools(deps Deps) []api.ToolDescriptor {
	creds := deps.NMC.Credentials
	volumes := deps.NMC.Volumes
	return []api.ToolDescriptor{
		tool("list_cloud_credentials",
			"List cloud credentials with masked account identifiers, optionally filtered by provider or sync status",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := creds.List(ctx)
				if err != nil {
					return nil, err
				}
				provider, status := args.String("provider"), args.String("status")
				return filterCredentials(list, func(c nmc.CloudCredential) bool {
					if provider != "" && !strings.EqualFold(c.ProviderFamily(), provider) && !containsFold(c.CloudProvider, provider) {
						return false
					}
					return status == "" || strings.EqualFold(c.Status, status)
				}), nil
			},
			stringParam("provider", "Provider family (aws, azure, gcp) or provider name substring", false),
			stringParam("status", "Sync status, e.g. synced or not_synced", false)),

		tool("get_credential_stats",
			"Aggregate credential statistics by provider, sync status and usage",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := creds.List(ctx)
				if err != nil {
					return nil, err
				}
				return summarizeCredentials(list), nil
			}),

		tool("get_credentials_by_filer",
			"List the cloud credentials configured on one filer, or read one of them by cred_uuid",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				serial := args.String("filer_serial")
				if uuid := args.String("cred_uuid"); uuid != "" {
					c, err := creds.GetForFiler(ctx, uuid, serial)
					if err != nil {
						return nil, notFoundOn404(err, "credential", uuid+" on "+serial)
					}
					return credentialList{Total: 1, Credentials: []nmc.CredentialSummary{c.Summary()}}, nil
				}
				list, err := creds.List(ctx)
				if err != nil {
					return nil, err
				}
				return filterCredentials(list, func(c nmc.CloudCredential) bool {
					return strings.EqualFold(c.FilerSerialNumber, serial)
				}), nil
			},
			filerSerialParam(true),
			stringParam("cred_uuid", "Only this credential, as synced to the filer", false)),

		tool("analyze_credential_usage",
			"Correlate credentials with the volumes that use them and flag unreferenced credentials",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				var (
					credList []nmc.CloudCredential
					volList  []nmc.Volume
				)
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() (err error) {
					credList, err = creds.List(gctx)
					return err
				})
				g.Go(func() (err error) {
					volList, err = volumes.List(gctx)
					return err
				})
				if err := g.Wait(); err != nil {
					return nil, err
				}
				return analyzeCredentialUsage(credList, volList), nil
			}),

		tool("get_inactive_credentials",
			"List credentials that are not in use or not synced",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				list, err := creds.List(ctx)
				if err != nil {
					return nil, err
				}
				return filterCredentials(list, func(c nmc.CloudCredential) bool {
					return !c.InUse || !c.IsSynced()
				}), nil
			}),
	}
}

func filterCredentials(list []nmc.CloudCredential, keep func(nmc.CloudCredential) bool) credentialList {
	out := credentialList{Credentials: []nmc.CredentialSummary{}}
	for _, c := range list {
		if keep(c) {
			out.Credentials = append(out.Credentials, c.Summary())
		}
	}
	out.Total = len(out.Credentials)
	return out
}

func summarizeCredentials(list []nmc.CloudCredential) credentialStats {
	stats := credentialStats{Total: len(list)}
	unique := map[string]bool{}
	providers := map[string]int{}
	filers := map[string]int{}
	for _, c := range list {
		unique[c.CredUUID] = true
		providers[c.ProviderFamily()]++
		filers[orUnknown(c.FilerSerialNumber)]++
		if c.IsSynced() {
			stats.Synced++
		} else {
			stats.NotSynced++
		}
		if c.InUse {
			stats.InUse++
		} else {
			stats.Unused++
		}
	}
	stats.Unique = len(unique)
	stats.Providers = sortedCounts(providers)
	stats.Filers = sortedCounts(filers)
	return stats
}

// analyzeCredentialUsage merges per-filer credential records by UUID and
// attaches the volumes whose provider references each one.
func analyzeCredentialUsage(creds []nmc.CloudCredential, volumes []nmc.Volume) usageAnalysis {
	byUUID := map[string]*credentialUsage{}
	for _, c := range creds {
		u, ok := byUUID[c.CredUUID]
		if !ok {
			u = &credentialUsage{
				CredUUID:       c.CredUUID,
				Name:           c.Name,
				ProviderFamily: c.ProviderFamily(),
				Synced:         true,
				Filers:         []string{},
				Volumes:        []string{},
			}
			byUUID[c.CredUUID] = u
		}
		u.InUse = u.InUse || c.InUse
		u.Synced = u.Synced && c.IsSynced()
		if c.FilerSerialNumber != "" && !slices.Contains(u.Filers, c.FilerSerialNumber) {
			u.Filers = append(u.Filers, c.FilerSerialNumber)
		}
	}

	out := usageAnalysis{
		TotalCredentials: len(byUUID),
		Usage:            []credentialUsage{},
		Unreferenced:     []string{},
		OrphanVolumes:    []string{},
	}
	for _, v := range volumes {
		uuid := v.Provider.CredUUID
		if uuid == "" {
			continue
		}
		if u, ok := byUUID[uuid]; ok {
			u.Volumes = append(u.Volumes, v.Name)
		} else {
			out.OrphanVolumes = append(out.OrphanVolumes, v.Name)
		}
	}

	for _, u := range byUUID {
		u.VolumeCount = len(u.Volumes)
		sort.Strings(u.Volumes)
		sort.Strings(u.Filers)
		if u.VolumeCount > 0 {
			out.UsedByVolumes++
		} else {
			out.Unreferenced = append(out.Unreferenced, u.Name)
		}
		out.Usage = append(out.Usage, *u)
	}
	sort.Slice(out.Usage, func(i, j int) bool {
		if out.Usage[i].VolumeCount != out.Usage[j].VolumeCount {
			return out.Usage[i].VolumeCount > out.Usage[j].VolumeCount
		}
		return out.Usage[i].Name < out.Usage[j].Name
	})
	sort.Strings(out.Unreferenced)
	sort.Strings(out.OrphanVolumes)
	return out
}
