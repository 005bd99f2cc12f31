package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/nmc"
	"nmc-mcp/pkg/logging"

	"golang.org/x/sync/errgroup"
)

const (
	focusSnapshots  = "snapshots"
	focusSync       = "sync"
	focusAuditing   = "auditing"
	focusProtection = "data_protection"

	staleSnapshotHours    = 24
	criticalSnapshotHours = 48
	continuousSyncMinutes = 5
	daysPerWeek           = 7
	highRiskGB            = 100
	criticalRiskGB        = 500

	// volumeFilerFetches bounds concurrent /volumes/{guid}/filers/ reads.
	volumeFilerFetches = 4
)

var operationFocusValues = []string{focusSnapshots, focusSync, focusAuditing, focusProtection}

type protectionView struct {
	AccessibleGB     float64 `json:"accessible_data_gb"`
	UnprotectedGB    float64 `json:"unprotected_data_gb"`
	ProtectedPercent float64 `json:"protection_percentage"`
	FullyProtected   bool    `json:"fully_protected"`
}

type snapshotView struct {
	Enabled          bool     `json:"enabled"`
	FrequencyMinutes int      `json:"frequency_minutes"`
	FrequencyHours   float64  `json:"frequency_hours"`
	ActiveDays       []string `json:"active_days"`
	AllDay           bool     `json:"all_day"`
	SnapshotAccess   bool     `json:"snapshot_access"`
	LastSnapshot     string   `json:"last_snapshot,omitempty"`
	Status           string   `json:"snapshot_status"`
	Progress         int      `json:"snapshot_progress"`
	HoursSince       *float64 `json:"hours_since_last_snapshot"`
	Stale            bool     `json:"is_stale"`
	Critical         bool     `json:"is_critical"`
}

type syncView struct {
	Enabled              bool     `json:"enabled"`
	FrequencyMinutes     int      `json:"frequency_minutes"`
	FrequencyHours       float64  `json:"frequency_hours"`
	ActiveDays           []string `json:"active_days"`
	AllDay               bool     `json:"all_day"`
	AutoCacheAllowed     bool     `json:"auto_cache_allowed"`
	AutoCacheMinFileSize int64    `json:"auto_cache_min_file_size"`
}

type auditingView struct {
	Enabled          bool     `json:"enabled"`
	CollapseEvents   bool     `json:"collapse_events"`
	EventsTracked    []string `json:"events_tracked"`
	RetentionEnabled bool     `json:"retention_enabled"`
	RetentionDays    int      `json:"retention_days"`
	SyslogExport     bool     `json:"syslog_export"`
	OutputType       string   `json:"output_type"`
	Destination      string   `json:"destination,omitempty"`
}

type accessView struct {
	Shares  int `json:"share_count"`
	Exports int `json:"export_count"`
	FTPDirs int `json:"ftp_dir_count"`
	Total   int `json:"total_access_points"`
}

// connectionDetail is one volume-filer connection with derived health fields.
type connectionDetail struct {
	FilerSerial    string         `json:"filer_serial"`
	ConnectionType string         `json:"connection_type"`
	IsOwner        bool           `json:"is_owner"`
	Protection     protectionView `json:"data_protection"`
	Snapshot       snapshotView   `json:"snapshot"`
	Sync           syncView       `json:"sync"`
	Auditing       auditingView   `json:"auditing"`
	Access         accessView     `json:"access"`
	FileAlerts     bool           `json:"file_alerts_enabled"`

	unprotectedBytes int64
	accessibleBytes  int64
}

type volumeOperations struct {
	VolumeGUID    string             `json:"volume_guid"`
	VolumeName    string             `json:"volume_name"`
	UnprotectedGB float64            `json:"total_unprotected_gb,omitempty"`
	Connections   []connectionDetail `json:"filer_connections"`
}

type operationsSummary struct {
	VolumesAnalyzed      int     `json:"total_volumes_analyzed"`
	VolumesWithConns     int     `json:"volumes_with_connections"`
	Connections          int     `json:"total_connections"`
	MasterConnections    int     `json:"master_connections"`
	RemoteConnections    int     `json:"remote_connections"`
	VolumesWithUnprotect int     `json:"volumes_with_unprotected_data"`
	UnprotectedGB        float64 `json:"total_unprotected_data_gb"`
	AccessibleGB         float64 `json:"total_accessible_data_gb"`
}

type operationsFilters struct {
	IncludeProtected bool    `json:"include_protected"`
	MinUnprotectedGB float64 `json:"min_unprotected_gb"`
}

type operationsAnalysis struct {
	Timestamp  time.Time           `json:"timestamp"`
	Focus      string              `json:"focus_area"`
	Filters    operationsFilters   `json:"filters_applied"`
	Summary    operationsSummary   `json:"summary"`
	Volumes    []volumeOperations  `json:"volumes"`
	Snapshots  *snapshotAnalysis   `json:"snapshot_analysis,omitempty"`
	Sync       *syncAnalysis       `json:"sync_analysis,omitempty"`
	Auditing   *auditingAnalysis   `json:"auditing_analysis,omitempty"`
	Protection *protectionAnalysis `json:"protection_analysis,omitempty"`
}

type connectionRef struct {
	Volume       string   `json:"volume"`
	Filer        string   `json:"filer"`
	HoursSince   *float64 `json:"hours_since,omitempty"`
	LastSnapshot string   `json:"last_snapshot,omitempty"`
}

type snapshotHealth struct {
	Healthy  int `json:"healthy"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Never    int `json:"never_snapshotted"`
}

type snapshotAnalysis struct {
	Enabled          int             `json:"enabled_count"`
	Disabled         int             `json:"disabled_count"`
	Stale            []connectionRef `json:"stale_snapshots"`
	Critical         []connectionRef `json:"critical_snapshots"`
	Frequencies      []countEntry    `json:"frequency_distribution"`
	NeverSnapshotted []connectionRef `json:"never_snapshotted"`
	Health           snapshotHealth  `json:"health_summary"`
}

type syncAnalysis struct {
	Enabled     int          `json:"enabled_count"`
	Disabled    int          `json:"disabled_count"`
	AutoCache   int          `json:"auto_cache_enabled"`
	Frequencies []countEntry `json:"frequency_distribution"`
	Daily       int          `json:"daily_sync_count"`
	Continuous  int          `json:"continuous_sync_count"`
}

type auditingAnalysis struct {
	Enabled       int          `json:"enabled_count"`
	Disabled      int          `json:"disabled_count"`
	SyslogExport  int          `json:"syslog_export_count"`
	EventCoverage []countEntry `json:"event_coverage"`
	Retention     []countEntry `json:"retention_distribution"`
	Comprehensive int          `json:"comprehensive_auditing"`
	Compliance    float64      `json:"compliance_percentage"`
}

type riskEntry struct {
	Volume           string  `json:"volume"`
	Filer            string  `json:"filer"`
	UnprotectedGB    float64 `json:"unprotected_gb"`
	ProtectedPercent float64 `json:"protection_percentage"`
}

type protectionAnalysis struct {
	FullyProtected int               `json:"fully_protected_count"`
	AtRisk         int               `json:"at_risk_count"`
	HighRisk       []riskEntry       `json:"high_risk_connections"`
	CriticalRisk   []riskEntry       `json:"critical_risk_connections"`
	Distribution   protectionBuckets `json:"protection_distribution"`
	AccessibleGB   float64           `json:"total_accessible_gb"`
	UnprotectedGB  float64           `json:"total_unprotected_gb"`
	Overall        float64           `json:"overall_protection_percentage"`
}

type protectionBuckets struct {
	Full    int `json:"100%"`
	Above90 int `json:"90-99%"`
	Above75 int `json:"75-90%"`
	Above50 int `json:"50-75%"`
	Below50 int `json:"<50%"`
}

type unprotectedVolumes struct {
	MinUnprotectedGB float64     `json:"min_unprotected_gb"`
	Total            int         `json:"total"`
	UnprotectedGB    float64     `json:"total_unprotected_gb"`
	Connections      []riskEntry `json:"connections"`
}

type accessOwner struct {
	FilerSerial     string  `json:"filer_serial"`
	ShareCount      int     `json:"share_count"`
	AccessibleGB    float64 `json:"accessible_data_gb"`
	SnapshotEnabled bool    `json:"snapshot_enabled"`
	SyncEnabled     bool    `json:"sync_enabled"`
}

type accessSummary struct {
	VolumeGUID    string        `json:"volume_guid"`
	VolumeName    string        `json:"volume_name"`
	Owner         *accessOwner  `json:"owner"`
	Remote        []accessOwner `json:"remote_connections"`
	Total         int           `json:"total_connections"`
	HasRedundancy bool          `json:"has_redundancy"`
	TotalShares   int           `json:"total_shares"`
	TotalGB       float64       `json:"total_accessible_data_gb"`
}

// operationsScope selects the connections an analysis looks at.
type operationsScope struct {
	focus            string
	includeProtected bool
	minUnprotectedGB float64
	// reportAll keeps connections the focus would otherwise drop, so that
	// reports can count disabled schedules.
	reportAll bool
}

func (s operationsScope) keep(c connectionDetail) bool {
	if !s.includeProtected && c.Protection.FullyProtected {
		return false
	}
	if c.Protection.UnprotectedGB < s.minUnprotectedGB {
		return false
	}
	if s.reportAll {
		return true
	}
	switch s.focus {
	case focusSnapshots:
		return c.Snapshot.Enabled
	case focusSync:
		return c.Sync.Enabled
	}
	return true
}

func volumeReportTools(deps Deps) []api.ToolDescriptor {
	volumes := deps.NMC.Volumes
	analyze := func(ctx context.Context, scope operationsScope) (operationsAnalysis, error) {
		conns, err := fetchVolumeFilers(ctx, volumes)
		if err != nil {
			return operationsAnalysis{}, err
		}
		return analyzeOperations(conns, scope, deps.Clock.Now()), nil
	}
	report := func(focus string) api.Handler {
		return func(ctx context.Context, args api.Args) (interface{}, error) {
			return analyze(ctx, operationsScope{focus: focus, includeProtected: true, reportAll: true})
		}
	}

	return []api.ToolDescriptor{
		tool("analyze_volume_operations",
			"Analyze snapshot, sync, auditing and data protection settings across every volume-filer connection",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				return analyze(ctx, operationsScope{
					focus:            args.String("focus"),
					includeProtected: args.Bool("include_protected"),
					minUnprotectedGB: args.Float("min_unprotected_gb", 0),
				})
			},
			api.ParameterMetadata{Name: "focus", Type: api.TypeString, Enum: operationFocusValues, Description: "Limit the analysis to one area"},
			api.ParameterMetadata{Name: "include_protected", Type: api.TypeBoolean, Default: false, Description: "Include fully protected connections"},
			api.ParameterMetadata{Name: "min_unprotected_gb", Type: api.TypeNumber, Default: 0.0, Description: "Skip connections with less unprotected data than this"}),

		tool("get_volume_access_summary",
			"Show which filer owns a volume and which filers reach it remotely",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				guid := args.String("volume_guid")
				details, err := volumes.ConnectedFilers(ctx, guid)
				if err != nil {
					return nil, notFoundOn404(err, "volume", guid)
				}
				return summarizeAccess(guid, details), nil
			},
			stringParam("volume_guid", "Volume GUID", true)),

		tool("find_unprotected_volumes",
			"Find volume-filer connections holding data not yet protected in the cloud",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				minGB := args.Float("min_unprotected_gb", 1)
				a, err := analyze(ctx, operationsScope{
					focus:            focusProtection,
					includeProtected: args.Bool("include_fully_protected"),
					minUnprotectedGB: minGB,
				})
				if err != nil {
					return nil, err
				}
				out := unprotectedVolumes{MinUnprotectedGB: minGB, Connections: []riskEntry{}}
				for _, v := range a.Volumes {
					for _, c := range v.Connections {
						out.Connections = append(out.Connections, newRiskEntry(v.VolumeName, c))
					}
				}
				sort.SliceStable(out.Connections, func(i, j int) bool {
					return out.Connections[i].UnprotectedGB > out.Connections[j].UnprotectedGB
				})
				out.Total = len(out.Connections)
				out.UnprotectedGB = a.Summary.UnprotectedGB
				return out, nil
			},
			api.ParameterMetadata{Name: "min_unprotected_gb", Type: api.TypeNumber, Default: 1.0, Description: "Minimum unprotected data in GB"},
			api.ParameterMetadata{Name: "include_fully_protected", Type: api.TypeBoolean, Default: false, Description: "Also list fully protected connections"}),

		tool("get_snapshot_health_report",
			"Report snapshot schedules, stale and critical snapshots and never-snapshotted connections",
			report(focusSnapshots)),

		tool("get_sync_configuration_report",
			"Report sync schedules, frequencies and auto-cache settings",
			report(focusSync)),

		tool("get_auditing_compliance_report",
			"Report auditing coverage, tracked events, retention and syslog export",
			report(focusAuditing)),

		tool("get_data_protection_summary",
			"Summarize how much volume data is protected in the cloud and which connections are at risk",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				return analyze(ctx, operationsScope{focus: focusProtection, includeProtected: args.Bool("show_all")})
			},
			api.ParameterMetadata{Name: "show_all", Type: api.TypeBoolean, Default: false, Description: "Include fully protected connections"}),
	}
}

type volumeConnections struct {
	volume nmc.Volume
	filers []nmc.VolumeFilerDetail
}

// fetchVolumeFilers reads the filer connections of every volume. Volumes
// whose connection list is gone (404) are left out.
func fetchVolumeFilers(ctx context.Context, volumes *nmc.VolumesAPI) ([]volumeConnections, error) {
	list, err := volumes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]volumeConnections, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(volumeFilerFetches)
	for i, v := range list {
		g.Go(func() error {
			filers, err := volumes.ConnectedFilers(gctx, v.GUID)
			var reqErr *api.RequestError
			if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
				logging.Debug("Tools", "Volume %s has no filer connections", v.GUID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("volume %s: %w", v.GUID, err)
			}
			out[i] = volumeConnections{volume: v, filers: filers}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func analyzeOperations(conns []volumeConnections, scope operationsScope, now time.Time) operationsAnalysis {
	focus := scope.focus
	if focus == "" {
		focus = "all"
	}
	a := operationsAnalysis{
		Timestamp: now,
		Focus:     focus,
		Filters:   operationsFilters{IncludeProtected: scope.includeProtected, MinUnprotectedGB: scope.minUnprotectedGB},
		Summary:   operationsSummary{VolumesAnalyzed: len(conns)},
		Volumes:   []volumeOperations{},
	}
	var accessible, unprotected int64
	for _, vc := range conns {
		if len(vc.filers) == 0 {
			continue
		}
		vol := volumeOperations{VolumeGUID: vc.volume.GUID, VolumeName: vc.volume.Name}
		var volUnprotected int64
		for _, f := range vc.filers {
			c := newConnectionDetail(f, now)
			if !scope.keep(c) {
				continue
			}
			vol.Connections = append(vol.Connections, c)
			a.Summary.Connections++
			if c.IsOwner {
				a.Summary.MasterConnections++
			} else {
				a.Summary.RemoteConnections++
			}
			accessible += c.accessibleBytes
			unprotected += c.unprotectedBytes
			volUnprotected += c.unprotectedBytes
		}
		if len(vol.Connections) == 0 {
			continue
		}
		if volUnprotected > 0 {
			a.Summary.VolumesWithUnprotect++
			vol.UnprotectedGB = toGB(volUnprotected)
		}
		a.Summary.VolumesWithConns++
		a.Volumes = append(a.Volumes, vol)
	}
	a.Summary.AccessibleGB = toGB(accessible)
	a.Summary.UnprotectedGB = toGB(unprotected)

	switch scope.focus {
	case focusSnapshots:
		a.Snapshots = analyzeSnapshots(a.Volumes)
	case focusSync:
		a.Sync = analyzeSync(a.Volumes)
	case focusAuditing:
		a.Auditing = analyzeAuditing(a.Volumes)
	case focusProtection:
		a.Protection = analyzeProtection(a.Volumes, accessible, unprotected)
	}
	return a
}

func newConnectionDetail(d nmc.VolumeFilerDetail, now time.Time) connectionDetail {
	st := d.Status
	c := connectionDetail{
		FilerSerial:    d.FilerSerialNumber,
		ConnectionType: d.Type,
		IsOwner:        d.IsOwner(),
		Protection: protectionView{
			AccessibleGB:     toGB(st.AccessibleData),
			UnprotectedGB:    toGB(st.DataNotYetProtected),
			ProtectedPercent: st.ProtectedPercent(),
			FullyProtected:   st.DataNotYetProtected == 0,
		},
		Snapshot: snapshotView{
			Enabled:          d.SnapshotSchedule.Enabled(),
			FrequencyMinutes: d.SnapshotSchedule.Frequency,
			FrequencyHours:   float64(d.SnapshotSchedule.Frequency) / 60,
			ActiveDays:       d.SnapshotSchedule.ActiveDays(),
			AllDay:           d.SnapshotSchedule.AllDay,
			SnapshotAccess:   d.SnapshotAccess,
			LastSnapshot:     st.LastSnapshot,
			Status:           orUnknown(st.SnapshotStatus),
			Progress:         st.SnapshotPercent,
		},
		Sync: syncView{
			Enabled:              d.SyncSchedule.Enabled(),
			FrequencyMinutes:     d.SyncSchedule.Frequency,
			FrequencyHours:       float64(d.SyncSchedule.Frequency) / 60,
			ActiveDays:           d.SyncSchedule.ActiveDays(),
			AllDay:               d.SyncSchedule.AllDay,
			AutoCacheAllowed:     d.SyncSchedule.AutoCacheAllowed,
			AutoCacheMinFileSize: d.SyncSchedule.AutoCacheMinFileSize,
		},
		Auditing: auditingView{
			Enabled:          d.Auditing.Enabled,
			CollapseEvents:   d.Auditing.Collapse,
			EventsTracked:    d.Auditing.TrackedEvents(),
			RetentionEnabled: d.Auditing.Logs.PruneAuditLogs,
			RetentionDays:    d.Auditing.Logs.DaysToKeep,
			SyslogExport:     d.Auditing.SyslogExport,
			OutputType:       d.Auditing.OutputType,
			Destination:      d.Auditing.Destination,
		},
		Access: accessView{
			Shares:  st.ShareCount,
			Exports: st.ExportCount,
			FTPDirs: st.FTPDirCount,
			Total:   st.ShareCount + st.ExportCount + st.FTPDirCount,
		},
		FileAlerts:       d.FileAlertsService.Enabled,
		accessibleBytes:  st.AccessibleData,
		unprotectedBytes: st.DataNotYetProtected,
	}
	if c.Auditing.OutputType == "" {
		c.Auditing.OutputType = "csv"
	}
	if last, ok := nmc.ParseTime(st.LastSnapshot); ok {
		hours := round1(now.Sub(last).Hours())
		c.Snapshot.HoursSince = &hours
		c.Snapshot.Stale = hours > staleSnapshotHours
		c.Snapshot.Critical = hours > criticalSnapshotHours
	}
	return c
}

func analyzeSnapshots(vols []volumeOperations) *snapshotAnalysis {
	out := &snapshotAnalysis{Stale: []connectionRef{}, Critical: []connectionRef{}, NeverSnapshotted: []connectionRef{}}
	freq := map[string]int{}
	for _, v := range vols {
		for _, c := range v.Connections {
			s := c.Snapshot
			if !s.Enabled {
				out.Disabled++
				continue
			}
			out.Enabled++
			freq[fmt.Sprintf("%.1fh", s.FrequencyHours)]++
			ref := connectionRef{Volume: v.VolumeName, Filer: c.FilerSerial, HoursSince: s.HoursSince, LastSnapshot: s.LastSnapshot}
			switch {
			case s.LastSnapshot == "":
				out.NeverSnapshotted = append(out.NeverSnapshotted, ref)
			case s.Critical:
				out.Critical = append(out.Critical, ref)
				out.Stale = append(out.Stale, ref)
			case s.Stale:
				out.Stale = append(out.Stale, ref)
			}
		}
	}
	out.Frequencies = sortedCounts(freq)
	out.Health = snapshotHealth{
		Healthy:  out.Enabled - len(out.Stale) - len(out.NeverSnapshotted),
		Warning:  len(out.Stale) - len(out.Critical),
		Critical: len(out.Critical),
		Never:    len(out.NeverSnapshotted),
	}
	return out
}

func analyzeSync(vols []volumeOperations) *syncAnalysis {
	out := &syncAnalysis{}
	freq := map[string]int{}
	for _, v := range vols {
		for _, c := range v.Connections {
			s := c.Sync
			if !s.Enabled {
				out.Disabled++
				continue
			}
			out.Enabled++
			if s.AutoCacheAllowed {
				out.AutoCache++
			}
			if s.FrequencyMinutes <= continuousSyncMinutes {
				out.Continuous++
			}
			if len(s.ActiveDays) >= daysPerWeek {
				out.Daily++
			}
			if s.FrequencyMinutes < 60 {
				freq[fmt.Sprintf("%dmin", s.FrequencyMinutes)]++
			} else {
				freq[fmt.Sprintf("%.1fh", s.FrequencyHours)]++
			}
		}
	}
	out.Frequencies = sortedCounts(freq)
	return out
}

func analyzeAuditing(vols []volumeOperations) *auditingAnalysis {
	out := &auditingAnalysis{}
	events, retention := map[string]int{}, map[string]int{}
	for _, v := range vols {
		for _, c := range v.Connections {
			a := c.Auditing
			if !a.Enabled {
				out.Disabled++
				continue
			}
			out.Enabled++
			if a.SyslogExport {
				out.SyslogExport++
			}
			for _, e := range a.EventsTracked {
				events[e]++
			}
			if len(a.EventsTracked) >= len(nmc.AuditEvents) {
				out.Comprehensive++
			}
			retention[fmt.Sprintf("%dd", a.RetentionDays)]++
		}
	}
	out.EventCoverage = sortedCounts(events)
	out.Retention = sortedCounts(retention)
	out.Compliance = percent(out.Enabled, out.Enabled+out.Disabled)
	return out
}

func analyzeProtection(vols []volumeOperations, accessible, unprotected int64) *protectionAnalysis {
	out := &protectionAnalysis{HighRisk: []riskEntry{}, CriticalRisk: []riskEntry{}}
	for _, v := range vols {
		for _, c := range v.Connections {
			p := c.Protection
			if p.FullyProtected {
				out.FullyProtected++
				out.Distribution.Full++
				continue
			}
			out.AtRisk++
			switch pct := p.ProtectedPercent; {
			case pct >= 90:
				out.Distribution.Above90++
			case pct >= 75:
				out.Distribution.Above75++
			case pct >= 50:
				out.Distribution.Above50++
			default:
				out.Distribution.Below50++
			}
			if p.UnprotectedGB > highRiskGB {
				out.HighRisk = append(out.HighRisk, newRiskEntry(v.VolumeName, c))
			}
			if p.UnprotectedGB > criticalRiskGB {
				out.CriticalRisk = append(out.CriticalRisk, newRiskEntry(v.VolumeName, c))
			}
		}
	}
	out.AccessibleGB = toGB(accessible)
	out.UnprotectedGB = toGB(unprotected)
	out.Overall = nmc.VolumeFilerStatus{AccessibleData: accessible, DataNotYetProtected: unprotected}.ProtectedPercent()
	return out
}

func newRiskEntry(volume string, c connectionDetail) riskEntry {
	return riskEntry{
		Volume:           volume,
		Filer:            c.FilerSerial,
		UnprotectedGB:    c.Protection.UnprotectedGB,
		ProtectedPercent: c.Protection.ProtectedPercent,
	}
}

func summarizeAccess(guid string, details []nmc.VolumeFilerDetail) accessSummary {
	out := accessSummary{VolumeGUID: guid, VolumeName: "Unknown", Remote: []accessOwner{}, Total: len(details)}
	if len(details) > 0 {
		out.VolumeName = details[0].Name
	}
	var total int64
	for _, d := range details {
		view := accessOwner{
			FilerSerial:     d.FilerSerialNumber,
			ShareCount:      d.Status.ShareCount,
			AccessibleGB:    toGB(d.Status.AccessibleData),
			SnapshotEnabled: d.SnapshotSchedule.Enabled(),
			SyncEnabled:     d.SyncSchedule.Enabled(),
		}
		if d.IsOwner() && out.Owner == nil {
			out.Owner = &view
		} else {
			out.Remote = append(out.Remote, view)
		}
		out.TotalShares += d.Status.ShareCount
		total += d.Status.AccessibleData
	}
	out.HasRedundancy = len(out.Remote) > 0
	out.TotalGB = toGB(total)
	return out
}

func toGB(b int64) float64 { return round2(float64(b) / bytesPerGB) }

func round2(f float64) float64 { return math.Round(f*100) / 100 }
