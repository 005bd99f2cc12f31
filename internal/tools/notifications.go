package tools

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/nmc"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 1000
	// notificationScanMax bounds how many notifications one tool call reads.
	notificationScanMax = 1000
	recentErrorCount    = 5
)

var (
	priorityValues = []string{"error", "warning", "info", "critical"}
	focusValues    = []string{"errors", "volumes", "filers", "licenses", "antivirus", "trends"}
)

type notificationList struct {
	TotalMatched  int                       `json:"total_matched"`
	Returned      int                       `json:"returned"`
	WindowHours   int                       `json:"window_hours,omitempty"`
	Notifications []nmc.NotificationSummary `json:"notifications"`
}

type notificationSummary struct {
	WindowHours    int                       `json:"window_hours"`
	Total          int                       `json:"total"`
	Errors         int                       `json:"errors"`
	Warnings       int                       `json:"warnings"`
	Unacknowledged int                       `json:"unacknowledged"`
	Urgent         int                       `json:"urgent"`
	ByPriority     []countEntry              `json:"by_priority"`
	ByCategory     []countEntry              `json:"by_category"`
	ByOrigin       []countEntry              `json:"by_origin"`
	RecentErrors   []nmc.NotificationSummary `json:"recent_errors"`
}

type patternGroup struct {
	Key        string   `json:"key"`
	Count      int      `json:"count"`
	Priorities []string `json:"priorities"`
	LatestDate string   `json:"latest_date"`
	Examples   []string `json:"examples"`
}

type dayCount struct {
	Date     string `json:"date"`
	Total    int    `json:"total"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
}

type patternAnalysis struct {
	Focus       string         `json:"focus"`
	WindowHours int            `json:"window_hours"`
	Analyzed    int            `json:"analyzed"`
	Matched     int            `json:"matched"`
	Groups      []patternGroup `json:"groups,omitempty"`
	Daily       []dayCount     `json:"daily,omitempty"`
}

func hoursParam(def int) api.ParameterMetadata {
	return api.ParameterMetadata{
		Name:        "hours",
		Type:        api.TypeInteger,
		Description: "Only consider notifications from the last N hours",
		Default:     def,
	}
}

func notificationTools(deps Deps) []api.ToolDescriptor {
	notifications := deps.NMC.Notifications
	clk := deps.Clock

	// recent returns the notifications of the last hours hours, or the most
	// recent ones when hours is zero.
	recent := func(ctx context.Context, hours int) ([]nmc.Notification, error) {
		if hours <= 0 {
			return notifications.ListAll(ctx, notificationScanMax)
		}
		since := clk.Now().Add(-time.Duration(hours) * time.Hour)
		return notifications.Since(ctx, since, notificationScanMax)
	}

	return []api.ToolDescriptor{
		tool("list_notifications",
			"List NMC notifications, newest first, with optional filters",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				limit := args.Int("limit", defaultNotificationLimit)
				if limit < 1 || limit > maxNotificationLimit {
					return nil, api.NewValidationError("limit", "must be between 1 and %d", maxNotificationLimit)
				}
				hours := args.Int("hours", 0)
				if hours < 0 {
					return nil, api.NewValidationError("hours", "must not be negative")
				}
				list, err := recent(ctx, hours)
				if err != nil {
					return nil, err
				}

				matched := filterNotifications(list, notificationFilter{
					origin:             args.String("origin"),
					priority:           args.String("priority"),
					name:               args.String("name"),
					volume:             args.String("volume"),
					unacknowledgedOnly: args.Bool("unacknowledged_only"),
					urgentOnly:         args.Bool("urgent_only"),
				})
				sortNewestFirst(matched)

				out := notificationList{TotalMatched: len(matched), WindowHours: hours, Notifications: []nmc.NotificationSummary{}}
				for i, n := range matched {
					if i == limit {
						break
					}
					out.Notifications = append(out.Notifications, n.Summary())
				}
				out.Returned = len(out.Notifications)
				return out, nil
			},
			stringParam("origin", "Origin (filer description or nmc), case-insensitive substring", false),
			api.ParameterMetadata{Name: "priority", Type: api.TypeString, Enum: priorityValues, Description: "Priority to match"},
			stringParam("name", "Notification name substring, e.g. SNAPSHOT", false),
			stringParam("volume", "Volume name mentioned in the notification", false),
			api.ParameterMetadata{Name: "hours", Type: api.TypeInteger, Description: "Only include notifications from the last N hours (0 for no limit)"},
			api.ParameterMetadata{Name: "limit", Type: api.TypeInteger, Default: defaultNotificationLimit, Description: "Maximum notifications to return (1-1000)"},
			api.ParameterMetadata{Name: "unacknowledged_only", Type: api.TypeBoolean, Default: false, Description: "Only unacknowledged notifications"},
			api.ParameterMetadata{Name: "urgent_only", Type: api.TypeBoolean, Default: false, Description: "Only urgent notifications"}),

		tool("get_notification",
			"Get one notification by id",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				id := args.Int("id", 0)
				n, err := notifications.Get(ctx, int64(id))
				if err != nil {
					return nil, notFoundOn404(err, "notification", strconv.Itoa(id))
				}
				return n.Summary(), nil
			},
			api.ParameterMetadata{Name: "id", Type: api.TypeInteger, Required: true, Description: "Notification id"}),

		tool("get_notification_summary",
			"Summarize notifications of a recent time window by priority, category and origin",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				hours := args.Int("hours", 24)
				if hours < 1 {
					return nil, api.NewValidationError("hours", "must be at least 1")
				}
				list, err := recent(ctx, hours)
				if err != nil {
					return nil, err
				}
				return summarizeNotifications(list, hours), nil
			},
			hoursParam(24)),

		tool("analyze_notification_patterns",
			"Find recurring patterns in recent notifications: repeated errors, affected volumes or filers, license and antivirus events, or daily trends",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				hours := args.Int("hours", 168)
				if hours < 1 {
					return nil, api.NewValidationError("hours", "must be at least 1")
				}
				list, err := recent(ctx, hours)
				if err != nil {
					return nil, err
				}
				return analyzeNotifications(list, args.String("focus"), hours), nil
			},
			api.ParameterMetadata{Name: "focus", Type: api.TypeString, Enum: focusValues, Default: "errors", Description: "What to analyze"},
			hoursParam(168)),
	}
}

type notificationFilter struct {
	origin             string
	priority           string
	name               string
	volume             string
	unacknowledgedOnly bool
	urgentOnly         bool
}

func (f notificationFilter) match(n nmc.Notification) bool {
	switch {
	case f.origin != "" && !containsFold(n.Origin, f.origin):
		return false
	case f.priority != "" && !matchesPriority(n, f.priority):
		return false
	case f.name != "" && !containsFold(n.Name, f.name):
		return false
	case f.volume != "" && !strings.EqualFold(n.VolumeName(), f.volume) && !containsFold(n.Message, f.volume):
		return false
	case f.unacknowledgedOnly && n.Acknowledged:
		return false
	case f.urgentOnly && !n.Urgent:
		return false
	}
	return true
}

// matchesPriority treats "error" as covering critical and alert as well.
func matchesPriority(n nmc.Notification, priority string) bool {
	switch strings.ToLower(priority) {
	case "error":
		return n.IsError()
	case "warning":
		return n.IsWarning()
	default:
		return strings.EqualFold(n.Priority, priority)
	}
}

func filterNotifications(list []nmc.Notification, f notificationFilter) []nmc.Notification {
	out := make([]nmc.Notification, 0, len(list))
	for _, n := range list {
		if f.match(n) {
			out = append(out, n)
		}
	}
	return out
}

func sortNewestFirst(list []nmc.Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, okI := list[i].Time()
		tj, okJ := list[j].Time()
		if okI && okJ && !ti.Equal(tj) {
			return ti.After(tj)
		}
		return list[i].ID > list[j].ID
	})
}

func summarizeNotifications(list []nmc.Notification, hours int) notificationSummary {
	out := notificationSummary{WindowHours: hours, Total: len(list), RecentErrors: []nmc.NotificationSummary{}}
	priorities := map[string]int{}
	categories := map[string]int{}
	origins := map[string]int{}

	sorted := append([]nmc.Notification(nil), list...)
	sortNewestFirst(sorted)
	for _, n := range sorted {
		priorities[strings.ToLower(orUnknown(n.Priority))]++
		categories[n.Category()]++
		origins[orUnknown(n.Origin)]++
		if n.IsError() {
			out.Errors++
			if len(out.RecentErrors) < recentErrorCount {
				out.RecentErrors = append(out.RecentErrors, n.Summary())
			}
		}
		if n.IsWarning() {
			out.Warnings++
		}
		if !n.Acknowledged {
			out.Unacknowledged++
		}
		if n.Urgent {
			out.Urgent++
		}
	}
	out.ByPriority = sortedCounts(priorities)
	out.ByCategory = sortedCounts(categories)
	out.ByOrigin = sortedCounts(origins)
	return out
}

func analyzeNotifications(list []nmc.Notification, focus string, hours int) patternAnalysis {
	out := patternAnalysis{Focus: focus, WindowHours: hours, Analyzed: len(list)}
	sorted := append([]nmc.Notification(nil), list...)
	sortNewestFirst(sorted)

	var (
		keep func(nmc.Notification) bool
		key  func(nmc.Notification) string
	)
	switch focus {
	case "trends":
		out.Daily = dailyCounts(sorted)
		out.Matched = len(sorted)
		return out
	case "volumes":
		keep = func(n nmc.Notification) bool { return n.VolumeName() != "" }
		key = nmc.Notification.VolumeName
	case "filers":
		keep = func(n nmc.Notification) bool { return true }
		key = func(n nmc.Notification) string {
			if serial := n.FilerSerial(); serial != "" {
				return serial
			}
			return orUnknown(n.Origin)
		}
	case "licenses":
		keep = func(n nmc.Notification) bool { return n.Category() == "License" }
		key = func(n nmc.Notification) string { return n.Name }
	case "antivirus":
		keep = func(n nmc.Notification) bool { return n.Category() == "Antivirus" }
		key = func(n nmc.Notification) string { return n.Name }
	default:
		keep = nmc.Notification.IsError
		key = func(n nmc.Notification) string { return n.Name }
	}

	groups := map[string]*patternGroup{}
	var order []string
	for _, n := range sorted {
		if !keep(n) {
			continue
		}
		out.Matched++
		k := orUnknown(key(n))
		g, ok := groups[k]
		if !ok {
			g = &patternGroup{Key: k, LatestDate: n.Date, Priorities: []string{}, Examples: []string{}}
			groups[k] = g
			order = append(order, k)
		}
		g.Count++
		if p := strings.ToLower(n.Priority); p != "" && !slices.Contains(g.Priorities, p) {
			g.Priorities = append(g.Priorities, p)
		}
		if len(g.Examples) < 3 && !slices.Contains(g.Examples, n.Message) {
			g.Examples = append(g.Examples, n.Message)
		}
	}

	out.Groups = make([]patternGroup, 0, len(order))
	for _, k := range order {
		out.Groups = append(out.Groups, *groups[k])
	}
	sort.SliceStable(out.Groups, func(i, j int) bool { return out.Groups[i].Count > out.Groups[j].Count })
	return out
}

func dailyCounts(list []nmc.Notification) []dayCount {
	days := map[string]*dayCount{}
	for _, n := range list {
		day := "unknown"
		if t, ok := n.Time(); ok {
			day = t.Format(time.DateOnly)
		}
		d, ok := days[day]
		if !ok {
			d = &dayCount{Date: day}
			days[day] = d
		}
		d.Total++
		if n.IsError() {
			d.Errors++
		}
		if n.IsWarning() {
			d.Warnings++
		}
	}
	out := make([]dayCount, 0, len(days))
	for _, d := range days {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
