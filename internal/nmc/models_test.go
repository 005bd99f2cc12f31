package nmc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 8, 12, 2, 18, 36, 0, time.UTC)
	for _, s := range []string{"2025-08-12T02:18:36UTC", "2025-08-12T02:18:36Z", "2025-08-12T04:18:36+02:00"} {
		got, ok := ParseTime(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), s)
	}

	_, ok := ParseTime("yesterday")
	assert.False(t, ok)
	_, ok = ParseTime("")
	assert.False(t, ok)

	assert.Equal(t, "2025-08-12T02:18:36UTC", FormatTime(want))
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":42,"c":null}`), &v))
	assert.Equal(t, FlexString("x"), v.A)
	assert.Equal(t, FlexString("42"), v.B)
	assert.Equal(t, FlexString(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}

func TestFilerHealth_OverallStatus(t *testing.T) {
	tests := []struct {
		name   string
		health FilerHealth
		want   string
		score  float64
	}{
		{name: "nothing reported", health: FilerHealth{NFS: HealthNoResults}, want: HealthUnknown, score: 0},
		{name: "all healthy", health: FilerHealth{Network: HealthHealthy, CPU: HealthHealthy, NFS: HealthNoResults}, want: HealthHealthy, score: 100},
		{name: "any unhealthy", health: FilerHealth{Network: HealthHealthy, CPU: HealthUnhealthy, Disk: HealthWarning}, want: HealthUnhealthy, score: 33.3},
		{name: "mixed", health: FilerHealth{Network: HealthHealthy, Disk: HealthWarning}, want: HealthWarning, score: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.health.OverallStatus())
			assert.Equal(t, tt.score, tt.health.Score())
		})
	}
}

func TestNotification_Classification(t *testing.T) {
	tests := []struct {
		name     string
		category string
	}{
		{"AV_VIOLATION", "Antivirus"},
		{"LICENSE_EXPIRING", "License"},
		{"REPLICATION_LAG", "Replication"},
		{"QUOTA_EXCEEDED", "Quota"},
		{"LOGIN_FAILED", "Authentication"},
		{"NETWORK_DOWN", "Network"},
		{"SOMETHING_ELSE", "General"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.category, Notification{Name: tt.name}.Category(), tt.name)
	}

	assert.True(t, Notification{Priority: "critical"}.IsError())
	assert.True(t, Notification{Priority: "warn"}.IsWarning())
	assert.False(t, Notification{Priority: "info"}.IsError())
	assert.Empty(t, Notification{Message: "no match here"}.VolumeName())
}

func TestCloudCredential(t *testing.T) {
	assert.Equal(t, "azure", CloudCredential{CloudProvider: "Microsoft Azure"}.ProviderFamily())
	assert.Equal(t, "gcp", CloudCredential{CloudProvider: "GCP"}.ProviderFamily())
	assert.Equal(t, "other", CloudCredential{CloudProvider: "Wasabi"}.ProviderFamily())
	assert.Equal(t, "short", CloudCredential{Account: "short"}.MaskedAccount())
	assert.True(t, CloudCredential{Status: "Synced"}.IsSynced())
}
