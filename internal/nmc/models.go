package nmc

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

const bytesPerGB = 1 << 30

// Health component states reported by the NMC.
const (
	HealthHealthy   = "Healthy"
	HealthUnhealthy = "Unhealthy"
	HealthWarning   = "Warning"
	HealthUnknown   = "Unknown"
	HealthNoResults = "No Results"
)

// Link is a HAL-style reference embedded in NMC resources.
type Link struct {
	Href string `json:"href"`
}

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// ParseTime parses NMC timestamps such as "2025-08-12T02:18:36UTC" as well
// as RFC 3339.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05MST",
		"2006-01-02T15:04:05.999999999MST",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Filer is an edge appliance managed by the NMC.
type Filer struct {
	GUID            string        `json:"guid"`
	SerialNumber    string        `json:"serial_number"`
	Description     string        `json:"description"`
	Build           string        `json:"build"`
	ManagementState string        `json:"management_state"`
	Settings        FilerSettings `json:"settings"`
	Status          FilerStatus   `json:"status"`
}

type FilerSettings struct {
	NetworkSettings NetworkSettings `json:"network_settings"`
	Time            struct {
		Timezone string `json:"timezone"`
	} `json:"time"`
}

type NetworkSettings struct {
	Hostname       string   `json:"hostname"`
	DefaultGateway string   `json:"default_gateway"`
	IPAddresses    []string `json:"ip_addresses"`
	DNSServers     []string `json:"dns_servers"`
	SearchDomains  []string `json:"search_domains"`
}

type FilerStatus struct {
	Offline   bool     `json:"offline"`
	OSVersion string   `json:"osversion"`
	Uptime    int64    `json:"uptime"`
	Platform  Platform `json:"platform"`
	Updates   struct {
		CurrentVersion string `json:"current_version"`
	} `json:"updates"`
}

type Platform struct {
	PlatformName string      `json:"platform_name"`
	CacheStatus  CacheStatus `json:"cache_status"`
	CPU          struct {
		Cores int    `json:"cores"`
		Model string `json:"model"`
	} `json:"cpu"`
	Memory FlexString `json:"memory"`
}

type CacheStatus struct {
	Size        int64   `json:"size"`
	Used        int64   `json:"used"`
	Dirty       int64   `json:"dirty"`
	Free        int64   `json:"free"`
	PercentUsed float64 `json:"percent_used"`
}

func (c CacheStatus) SizeGB() float64 { return round2(float64(c.Size) / bytesPerGB) }
func (c CacheStatus) UsedGB() float64 { return round2(float64(c.Used) / bytesPerGB) }

// Online reports whether the filer is reachable by the NMC.
func (f Filer) Online() bool { return !f.Status.Offline }

// UptimeDays is the uptime in whole days.
func (f Filer) UptimeDays() int64 { return f.Status.Uptime / 86400 }

// Matches reports whether identifier names this filer by GUID, serial number
// or description (case-insensitive).
func (f Filer) Matches(identifier string) bool {
	id := strings.TrimSpace(identifier)
	return id != "" && (strings.EqualFold(f.GUID, id) ||
		strings.EqualFold(f.SerialNumber, id) ||
		strings.EqualFold(f.Description, id))
}

// FilerSummary is the flattened view returned by filer tools.
type FilerSummary struct {
	Description      string   `json:"description"`
	GUID             string   `json:"guid"`
	SerialNumber     string   `json:"serial_number"`
	Build            string   `json:"build"`
	ManagementState  string   `json:"management_state"`
	Hostname         string   `json:"hostname"`
	IPAddresses      []string `json:"ip_addresses"`
	Platform         string   `json:"platform"`
	Online           bool     `json:"online"`
	UptimeDays       int64    `json:"uptime_days"`
	OSVersion        string   `json:"osversion"`
	CurrentVersion   string   `json:"current_version"`
	CacheUsedPercent float64  `json:"cache_used_percent"`
	CacheSizeGB      float64  `json:"cache_size_gb"`
	CacheUsedGB      float64  `json:"cache_used_gb"`
	MemoryMB         string   `json:"memory_mb"`
	CPUCores         int      `json:"cpu_cores"`
	CPUModel         string   `json:"cpu_model"`
	Timezone         string   `json:"timezone"`
}

func (f Filer) Summary() FilerSummary {
	cache := f.Status.Platform.CacheStatus
	return FilerSummary{
		Description:      f.Description,
		GUID:             f.GUID,
		SerialNumber:     f.SerialNumber,
		Build:            f.Build,
		ManagementState:  f.ManagementState,
		Hostname:         f.Settings.NetworkSettings.Hostname,
		IPAddresses:      f.Settings.NetworkSettings.IPAddresses,
		Platform:         f.Status.Platform.PlatformName,
		Online:           f.Online(),
		UptimeDays:       f.UptimeDays(),
		OSVersion:        f.Status.OSVersion,
		CurrentVersion:   f.Status.Updates.CurrentVersion,
		CacheUsedPercent: cache.PercentUsed,
		CacheSizeGB:      cache.SizeGB(),
		CacheUsedGB:      cache.UsedGB(),
		MemoryMB:         string(f.Status.Platform.Memory),
		CPUCores:         f.Status.Platform.CPU.Cores,
		CPUModel:         f.Status.Platform.CPU.Model,
		Timezone:         f.Settings.Time.Timezone,
	}
}

// Volume is a cloud-backed volume.
type Volume struct {
	GUID              string           `json:"guid"`
	Name              string           `json:"name"`
	FilerSerialNumber string           `json:"filer_serial_number"`
	NMCManaged        bool             `json:"nmc_managed"`
	Provider          Provider         `json:"provider"`
	AntivirusService  AntivirusService `json:"antivirus_service"`
	Protocols         Protocols        `json:"protocols"`
	RemoteAccess      RemoteAccess     `json:"remote_access"`
	SnapshotRetention struct {
		Retain string `json:"retain"`
	} `json:"snapshot_retention"`
	// Quota is in MiB; zero means unlimited.
	Quota   int64 `json:"quota"`
	CloudIO struct {
		Compression bool `json:"compression"`
		ChunkSize   int  `json:"chunk_size"`
	} `json:"cloud_io"`
	Auth          *VolumeAuth `json:"auth,omitempty"`
	CaseSensitive bool        `json:"case_sensitive"`
}

type Provider struct {
	Name         string `json:"name"`
	ShortName    string `json:"shortname"`
	Location     string `json:"location"`
	StorageClass string `json:"storage_class"`
	CredUUID     string `json:"cred_uuid"`
}

type AntivirusService struct {
	Enabled bool            `json:"enabled"`
	Days    map[string]bool `json:"days"`
}

type Protocols struct {
	PermissionsPolicy string   `json:"permissions_policy"`
	Protocols         []string `json:"protocols"`
}

type RemoteAccess struct {
	Enabled           bool          `json:"enabled"`
	AccessPermissions string        `json:"access_permissions"`
	FilerAccess       []FilerAccess `json:"filer_access"`
}

type FilerAccess struct {
	FilerGUID  string `json:"filer_guid"`
	Permission string `json:"permission"`
}

type VolumeAuth struct {
	AuthenticatedAccess bool   `json:"authenticated_access"`
	Policy              string `json:"policy"`
	PolicyLabel         string `json:"policy_label"`
}

// QuotaGB converts the quota to GiB.
func (v Volume) QuotaGB() float64 {
	if v.Quota <= 0 {
		return 0
	}
	return round2(float64(v.Quota) / 1024)
}

// HasProtocol reports whether the volume exports protocol (case-insensitive).
func (v Volume) HasProtocol(protocol string) bool {
	for _, p := range v.Protocols.Protocols {
		if strings.EqualFold(p, protocol) {
			return true
		}
	}
	return false
}

// IsPublic reports whether unauthenticated access is allowed.
func (v Volume) IsPublic() bool {
	return v.Auth != nil && (v.Auth.Policy == "public" || !v.Auth.AuthenticatedAccess)
}

// RemoteFilerCount counts filers granted the given permission; an empty
// permission counts every filer whose access is not disabled.
func (v Volume) RemoteFilerCount(permission string) int {
	n := 0
	for _, fa := range v.RemoteAccess.FilerAccess {
		switch {
		case permission == "" && fa.Permission != "disabled":
			n++
		case permission != "" && fa.Permission == permission:
			n++
		}
	}
	return n
}

type VolumeSummary struct {
	GUID                 string  `json:"guid"`
	Name                 string  `json:"name"`
	FilerSerialNumber    string  `json:"filer_serial_number"`
	NMCManaged           bool    `json:"nmc_managed"`
	ProviderName         string  `json:"provider_name"`
	ProviderLocation     string  `json:"provider_location"`
	Protocols            string  `json:"protocols"`
	QuotaGB              float64 `json:"quota_gb"`
	HasQuota             bool    `json:"has_quota"`
	CaseSensitive        bool    `json:"case_sensitive"`
	AntivirusEnabled     bool    `json:"antivirus_enabled"`
	RemoteAccessEnabled  bool    `json:"remote_access_enabled"`
	CompressionEnabled   bool    `json:"compression_enabled"`
	IsPublic             bool    `json:"is_public"`
	RetentionInfinite    bool    `json:"retention_infinite"`
	EnabledFilersCount   int     `json:"enabled_filers_count"`
	ReadonlyFilersCount  int     `json:"readonly_filers_count"`
	ReadwriteFilersCount int     `json:"readwrite_filers_count"`
}

func (v Volume) Summary() VolumeSummary {
	return VolumeSummary{
		GUID:                 v.GUID,
		Name:                 v.Name,
		FilerSerialNumber:    v.FilerSerialNumber,
		NMCManaged:           v.NMCManaged,
		ProviderName:         v.Provider.Name,
		ProviderLocation:     v.Provider.Location,
		Protocols:            strings.Join(v.Protocols.Protocols, ", "),
		QuotaGB:              v.QuotaGB(),
		HasQuota:             v.Quota > 0,
		CaseSensitive:        v.CaseSensitive,
		AntivirusEnabled:     v.AntivirusService.Enabled,
		RemoteAccessEnabled:  v.RemoteAccess.Enabled,
		CompressionEnabled:   v.CloudIO.Compression,
		IsPublic:             v.IsPublic(),
		RetentionInfinite:    strings.EqualFold(v.SnapshotRetention.Retain, "INFINITE"),
		EnabledFilersCount:   v.RemoteFilerCount(""),
		ReadonlyFilersCount:  v.RemoteFilerCount("readonly"),
		ReadwriteFilersCount: v.RemoteFilerCount("readwrite"),
	}
}

// VolumeConnection is one volume/filer pairing.
type VolumeConnection struct {
	VolumeGUID        string `json:"volume_guid"`
	FilerSerialNumber string `json:"filer_serial_number"`
	Connected         bool   `json:"connected"`
}

// VolumeFilerDetail describes a volume as seen from one connected filer.
type VolumeFilerDetail struct {
	GUID              string            `json:"guid"`
	FilerSerialNumber string            `json:"filer_serial_number"`
	Name              string            `json:"name"`
	Type              string            `json:"type"`
	SnapshotAccess    bool              `json:"snapshot_access"`
	Status            VolumeFilerStatus `json:"status"`
	SnapshotSchedule  Schedule          `json:"snapshot_schedule"`
	SyncSchedule      Schedule          `json:"sync_schedule"`
	Auditing          VolumeAuditing    `json:"auditing"`
	FileAlertsService struct {
		Enabled bool `json:"enabled"`
	} `json:"file_alerts_service"`
}

// IsOwner reports whether this filer is the volume's master.
func (d VolumeFilerDetail) IsOwner() bool {
	return strings.EqualFold(d.Type, "master")
}

// weekdays is the order ActiveDays reports days in.
var weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// Schedule is a snapshot or sync schedule. Frequency is in minutes.
type Schedule struct {
	Days                 map[string]bool `json:"days"`
	AllDay               bool            `json:"allday"`
	Frequency            int             `json:"frequency"`
	AutoCacheAllowed     bool            `json:"auto_cache_allowed"`
	AutoCacheMinFileSize int64           `json:"auto_cache_min_file_size"`
}

// Enabled reports whether the schedule runs on at least one day.
func (s Schedule) Enabled() bool {
	for _, on := range s.Days {
		if on {
			return true
		}
	}
	return false
}

// ActiveDays lists the days the schedule runs, Monday first. Day names the
// NMC may add later are appended in alphabetical order.
func (s Schedule) ActiveDays() []string {
	out := []string{}
	known := map[string]bool{}
	for _, d := range weekdays {
		known[d] = true
		if s.Days[d] {
			out = append(out, d)
		}
	}
	var extra []string
	for d, on := range s.Days {
		if on && !known[d] {
			extra = append(extra, d)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// VolumeAuditing is the per-filer audit configuration of a volume.
type VolumeAuditing struct {
	Enabled      bool            `json:"enabled"`
	Collapse     bool            `json:"collapse"`
	Events       map[string]bool `json:"events"`
	SyslogExport bool            `json:"syslog_export"`
	OutputType   string          `json:"output_type"`
	Destination  string          `json:"destination"`
	Logs         struct {
		PruneAuditLogs bool `json:"prune_audit_logs"`
		DaysToKeep     int  `json:"days_to_keep"`
	} `json:"logs"`
}

// AuditEvents are the event classes an audit configuration can track.
var AuditEvents = []string{"create", "delete", "rename", "close", "security", "metadata", "write", "read"}

// TrackedEvents lists the enabled event classes, sorted.
func (a VolumeAuditing) TrackedEvents() []string {
	out := []string{}
	for e, on := range a.Events {
		if on {
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}

type VolumeFilerStatus struct {
	AccessibleData      int64  `json:"accessible_data"`
	DataNotYetProtected int64  `json:"data_not_yet_protected"`
	FirstSnapshot       string `json:"first_snapshot"`
	LastSnapshot        string `json:"last_snapshot"`
	SnapshotStatus      string `json:"snapshot_status"`
	SnapshotPercent     int    `json:"snapshot_percent"`
	ShareCount          int    `json:"share_count"`
	ExportCount         int    `json:"export_count"`
	FTPDirCount         int    `json:"ftp_dir_count"`
}

// ProtectedPercent is the share of accessible data already in the cloud.
func (s VolumeFilerStatus) ProtectedPercent() float64 {
	total := s.AccessibleData + s.DataNotYetProtected
	if total == 0 {
		return 100
	}
	return round2(float64(s.AccessibleData) / float64(total) * 100)
}

// Share is an SMB share on a filer.
type Share struct {
	ID                    FlexString `json:"id"`
	GUID                  string     `json:"guid"`
	Name                  string     `json:"name"`
	VolumeGUID            string     `json:"volume_guid"`
	FilerSerialNumber     string     `json:"filer_serial_number"`
	Path                  string     `json:"path"`
	Comment               string     `json:"comment"`
	Readonly              bool       `json:"readonly"`
	Browseable            bool       `json:"browseable"`
	Mobile                bool       `json:"mobile"`
	BrowserAccess         bool       `json:"browser_access"`
	BrowserAccessReadonly bool       `json:"browser_access_readonly"`
	EnablePreviousVers    bool       `json:"enable_previous_vers"`
	VetoFiles             string     `json:"veto_files"`
	AuditEnabled          bool       `json:"audit_enabled"`
	Hidden                bool       `json:"hidden"`
}

// IsRoot reports whether the share exposes the volume root.
func (s Share) IsRoot() bool {
	return s.Path == "" || s.Path == "/" || s.Path == `\`
}

// AccessMethods lists the ways clients can reach the share.
func (s Share) AccessMethods() []string {
	methods := []string{"SMB/CIFS"}
	if s.BrowserAccess {
		methods = append(methods, "Browser")
	}
	if s.Mobile {
		methods = append(methods, "Mobile")
	}
	return methods
}

type ShareSummary struct {
	ID                    string   `json:"id,omitempty"`
	GUID                  string   `json:"guid,omitempty"`
	Name                  string   `json:"name"`
	VolumeGUID            string   `json:"volume_guid"`
	FilerSerialNumber     string   `json:"filer_serial_number"`
	Path                  string   `json:"path"`
	Comment               string   `json:"comment,omitempty"`
	Permission            string   `json:"permission"`
	Browseable            bool     `json:"browseable"`
	BrowserAccess         bool     `json:"browser_access"`
	BrowserAccessReadonly bool     `json:"browser_access_readonly"`
	MobileAccess          bool     `json:"mobile_access"`
	PreviousVersions      bool     `json:"has_previous_versions"`
	IsRootShare           bool     `json:"is_root_share"`
	AccessMethods         []string `json:"access_methods"`
	AuditEnabled          bool     `json:"audit_enabled"`
	Hidden                bool     `json:"hidden"`
}

func (s Share) Summary() ShareSummary {
	permission := "Read-Write"
	if s.Readonly {
		permission = "Read-Only"
	}
	return ShareSummary{
		ID:                    string(s.ID),
		GUID:                  s.GUID,
		Name:                  s.Name,
		VolumeGUID:            s.VolumeGUID,
		FilerSerialNumber:     s.FilerSerialNumber,
		Path:                  s.Path,
		Comment:               s.Comment,
		Permission:            permission,
		Browseable:            s.Browseable,
		BrowserAccess:         s.BrowserAccess,
		BrowserAccessReadonly: s.BrowserAccessReadonly,
		MobileAccess:          s.Mobile,
		PreviousVersions:      s.EnablePreviousVers,
		IsRootShare:           s.IsRoot(),
		AccessMethods:         s.AccessMethods(),
		AuditEnabled:          s.AuditEnabled,
		Hidden:                s.Hidden,
	}
}

// FilerHealth is the per-component health report of one filer.
type FilerHealth struct {
	FilerSerialNumber string `json:"filer_serial_number"`
	LastUpdated       string `json:"last_updated"`
	Network           string `json:"network"`
	Memory            string `json:"memory"`
	CPU               string `json:"cpu"`
	Disk              string `json:"disk"`
	Filesystem        string `json:"filesystem"`
	Services          string `json:"services"`
	NFS               string `json:"nfs"`
	SMB               string `json:"smb"`
	DirectoryServices string `json:"directoryservices"`
	CyberResilience   string `json:"cyberresilience"`
	FileAccelerator   string `json:"fileaccelerator"`
	AGFL              string `json:"agfl"`
	NasuniIQ          string `json:"nasuni_iq"`
}

// HealthComponent pairs a display name with its reported state.
type HealthComponent struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Components returns every component in a stable order.
func (h FilerHealth) Components() []HealthComponent {
	return []HealthComponent{
		{"Network", h.Network},
		{"Memory", h.Memory},
		{"CPU", h.CPU},
		{"Disk", h.Disk},
		{"Filesystem", h.Filesystem},
		{"Services", h.Services},
		{"NFS", h.NFS},
		{"SMB", h.SMB},
		{"Directory Services", h.DirectoryServices},
		{"Cyber Resilience", h.CyberResilience},
		{"File Accelerator", h.FileAccelerator},
		{"Advanced Global File Locking", h.AGFL},
		{"File IQ", h.NasuniIQ},
	}
}

// ComponentsWithStatus returns the names of components in the given state.
func (h FilerHealth) ComponentsWithStatus(status string) []string {
	var names []string
	for _, c := range h.Components() {
		if c.Status == status {
			names = append(names, c.Name)
		}
	}
	return names
}

func (h FilerHealth) reported() []string {
	var states []string
	for _, c := range h.Components() {
		if c.Status != "" && c.Status != HealthNoResults {
			states = append(states, c.Status)
		}
	}
	return states
}

// OverallStatus is Unhealthy if any component is unhealthy, Healthy if all
// reporting components are healthy, Unknown if none report, and Warning
// otherwise.
func (h FilerHealth) OverallStatus() string {
	states := h.reported()
	if len(states) == 0 {
		return HealthUnknown
	}
	allHealthy := true
	for _, s := range states {
		if s == HealthUnhealthy {
			return HealthUnhealthy
		}
		if s != HealthHealthy {
			allHealthy = false
		}
	}
	if allHealthy {
		return HealthHealthy
	}
	return HealthWarning
}

// Score is the percentage of reporting components that are healthy.
func (h FilerHealth) Score() float64 {
	states := h.reported()
	if len(states) == 0 {
		return 0
	}
	healthy := 0
	for _, s := range states {
		if s == HealthHealthy {
			healthy++
		}
	}
	return round1(float64(healthy) / float64(len(states)) * 100)
}

type HealthSummary struct {
	FilerSerialNumber   string            `json:"filer_serial_number"`
	LastUpdated         string            `json:"last_updated"`
	OverallStatus       string            `json:"overall_status"`
	HealthScore         float64           `json:"health_score"`
	UnhealthyComponents []string          `json:"unhealthy_components"`
	HealthyComponents   []string          `json:"healthy_components"`
	NoResultsComponents []string          `json:"no_results_components"`
	Components          []HealthComponent `json:"components"`
}

func (h FilerHealth) Summary() HealthSummary {
	return HealthSummary{
		FilerSerialNumber:   h.FilerSerialNumber,
		LastUpdated:         h.LastUpdated,
		OverallStatus:       h.OverallStatus(),
		HealthScore:         h.Score(),
		UnhealthyComponents: nonNil(h.ComponentsWithStatus(HealthUnhealthy)),
		HealthyComponents:   nonNil(h.ComponentsWithStatus(HealthHealthy)),
		NoResultsComponents: nonNil(h.ComponentsWithStatus(HealthNoResults)),
		Components:          h.Components(),
	}
}

// Notification is an NMC event notification.
type Notification struct {
	ID           int64           `json:"id"`
	Date         string          `json:"date"`
	Priority     string          `json:"priority"`
	Name         string          `json:"name"`
	Message      string          `json:"message"`
	Group        string          `json:"group"`
	Acknowledged bool            `json:"acknowledged"`
	Sticky       bool            `json:"sticky"`
	Urgent       bool            `json:"urgent"`
	Origin       string          `json:"origin"`
	Links        map[string]Link `json:"links"`
}

var volumeNamePattern = regexp.MustCompile(`(?i)volume\s+([^:\s]+)`)

// Time parses the notification date.
func (n Notification) Time() (time.Time, bool) { return ParseTime(n.Date) }

func (n Notification) IsError() bool {
	switch strings.ToLower(n.Priority) {
	case "error", "critical", "alert":
		return true
	}
	return false
}

func (n Notification) IsWarning() bool {
	p := strings.ToLower(n.Priority)
	return p == "warning" || p == "warn"
}

// FilerSerial extracts the filer serial from the filer link, if any.
func (n Notification) FilerSerial() string {
	href := n.Links["filer"].Href
	if i := strings.Index(href, "/filers/"); i >= 0 {
		return strings.Trim(href[i+len("/filers/"):], "/")
	}
	return ""
}

// VolumeName extracts a volume name mentioned in the message.
func (n Notification) VolumeName() string {
	if m := volumeNamePattern.FindStringSubmatch(n.Message); m != nil {
		return m[1]
	}
	return ""
}

// Category buckets the notification by its name.
func (n Notification) Category() string {
	name := strings.ToUpper(n.Name)
	switch {
	case strings.Contains(name, "AV_") || strings.Contains(name, "ANTIVIRUS"):
		return "Antivirus"
	case strings.Contains(name, "LICENSE"):
		return "License"
	case strings.Contains(name, "SNAPSHOT"):
		return "Snapshot"
	case strings.Contains(name, "REPLICATION"):
		return "Replication"
	case strings.Contains(name, "CACHE"):
		return "Cache"
	case strings.Contains(name, "QUOTA"):
		return "Quota"
	case strings.Contains(name, "AUTH") || strings.Contains(name, "LOGIN"):
		return "Authentication"
	case strings.Contains(name, "NETWORK") || strings.Contains(name, "CONNECTION"):
		return "Network"
	default:
		return "General"
	}
}

type NotificationSummary struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	Priority     string `json:"priority"`
	Name         string `json:"name"`
	Message      string `json:"message"`
	Group        string `json:"group,omitempty"`
	Acknowledged bool   `json:"acknowledged"`
	Urgent       bool   `json:"urgent"`
	Origin       string `json:"origin"`
	FilerSerial  string `json:"filer_serial,omitempty"`
	VolumeName   string `json:"volume_name,omitempty"`
	Category     string `json:"notification_type"`
}

func (n Notification) Summary() NotificationSummary {
	return NotificationSummary{
		ID:           n.ID,
		Date:         n.Date,
		Priority:     n.Priority,
		Name:         n.Name,
		Message:      n.Message,
		Group:        n.Group,
		Acknowledged: n.Acknowledged,
		Urgent:       n.Urgent,
		Origin:       n.Origin,
		FilerSerial:  n.FilerSerial(),
		VolumeName:   n.VolumeName(),
		Category:     n.Category(),
	}
}

// CloudCredential is a cloud storage credential. The secret is never decoded.
type CloudCredential struct {
	CredUUID          string `json:"cred_uuid"`
	Name              string `json:"name"`
	FilerSerialNumber string `json:"filer_serial_number"`
	CloudProvider     string `json:"cloud_provider"`
	Account           string `json:"account"`
	Hostname          string `json:"hostname"`
	Status            string `json:"status"`
	Note              string `json:"note"`
	InUse             bool   `json:"in_use"`
	SkipValidation    bool   `json:"skip_validation"`
}

func (c CloudCredential) IsSynced() bool { return strings.EqualFold(c.Status, "synced") }

// ProviderFamily normalizes the provider to aws, azure, gcp or other.
func (c CloudCredential) ProviderFamily() string {
	p := strings.ToLower(c.CloudProvider)
	switch {
	case strings.Contains(p, "s3") || strings.Contains(p, "aws") || strings.Contains(p, "amazon"):
		return "aws"
	case strings.Contains(p, "azure"):
		return "azure"
	case strings.Contains(p, "google") || strings.Contains(p, "gcp"):
		return "gcp"
	default:
		return "other"
	}
}

// MaskedAccount shows only the ends of long account identifiers.
func (c CloudCredential) MaskedAccount() string {
	r := []rune(c.Account)
	if len(r) > 8 {
		return string(r[:4]) + "..." + string(r[len(r)-4:])
	}
	return c.Account
}

type CredentialSummary struct {
	CredUUID          string `json:"cred_uuid"`
	Name              string `json:"name"`
	FilerSerialNumber string `json:"filer_serial_number"`
	CloudProvider     string `json:"cloud_provider"`
	ProviderFamily    string `json:"provider_family"`
	Account           string `json:"account"`
	Hostname          string `json:"hostname"`
	Status            string `json:"status"`
	IsSynced          bool   `json:"is_synced"`
	InUse             bool   `json:"in_use"`
	Note              string `json:"note,omitempty"`
}

func (c CloudCredential) Summary() CredentialSummary {
	return CredentialSummary{
		CredUUID:          c.CredUUID,
		Name:              c.Name,
		FilerSerialNumber: c.FilerSerialNumber,
		CloudProvider:     c.CloudProvider,
		ProviderFamily:    c.ProviderFamily(),
		Account:           c.MaskedAccount(),
		Hostname:          c.Hostname,
		Status:            c.Status,
		IsSynced:          c.IsSynced(),
		InUse:             c.InUse,
		Note:              c.Note,
	}
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

func round2(f float64) float64 { return math.Round(f*100) / 100 }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
