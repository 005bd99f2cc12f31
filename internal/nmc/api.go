package nmc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"nmc-mcp/internal/client"
)

// API paths, relative to the configured base URL.
const (
	LoginPath              = "/api/v1.2/auth/login/"
	FilersPath             = "/api/v1.2/filers/"
	FilerHealthPath        = "/api/v1.2/filers/health/"
	VolumesPath            = "/api/v1.2/volumes/"
	VolumeConnectionsPath  = "/api/v1.2/volumes/filer-connections/"
	SharesPath             = "/api/v1.2/volumes/filers/shares/"
	NotificationsPath      = "/api/v1.2/notifications/"
	CloudCredentialsPath   = "/api/v1.2/account/cloud-credentials/"
	defaultPageSize        = 200
	defaultNotificationMax = 1000
)

// Page is one page of an NMC list endpoint.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Next   string `json:"next"`
}

// Client groups the NMC resource APIs behind one shared Doer.
type Client struct {
	Auth          *AuthAPI
	Filers        *FilersAPI
	Volumes       *VolumesAPI
	Shares        *SharesAPI
	Health        *HealthAPI
	Notifications *NotificationsAPI
	Credentials   *CredentialsAPI
}

// New wires every resource API to d.
func New(d client.Doer) *Client {
	return &Client{
		Auth:          &AuthAPI{doer: d},
		Filers:        &FilersAPI{doer: d},
		Volumes:       &VolumesAPI{doer: d},
		Shares:        &SharesAPI{doer: d},
		Health:        &HealthAPI{doer: d},
		Notifications: &NotificationsAPI{doer: d},
		Credentials:   &CredentialsAPI{doer: d},
	}
}

func getJSON(ctx context.Context, d client.Doer, path string, query url.Values, out interface{}) error {
	return client.GetJSON(ctx, d, path, query, out)
}

func getPage[T any](ctx context.Context, d client.Doer, path string, limit, offset int) (Page[T], error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	var page Page[T]
	err := getJSON(ctx, d, path, query, &page)
	return page, err
}

// listAll follows limit/offset pagination until the server reports no next
// page. A positive max caps the number of items returned.
func listAll[T any](ctx context.Context, d client.Doer, path string, max int) ([]T, error) {
	items := []T{}
	offset := 0
	for {
		limit := defaultPageSize
		if max > 0 && max-len(items) < limit {
			limit = max - len(items)
		}
		page, err := getPage[T](ctx, d, path, limit, offset)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if max > 0 && len(items) >= max {
			return items[:max], nil
		}
		if page.Next == "" || len(page.Items) == 0 {
			return items, nil
		}
		offset += len(page.Items)
	}
}

func itemPath(base, id string) string {
	return base + url.PathEscape(id) + "/"
}

// FilersAPI reads edge appliances.
type FilersAPI struct{ doer client.Doer }

func (a *FilersAPI) List(ctx context.Context) ([]Filer, error) {
	return listAll[Filer](ctx, a.doer, FilersPath, 0)
}

// Get fetches one filer by its NMC id.
func (a *FilersAPI) Get(ctx context.Context, id string) (Filer, error) {
	var f Filer
	err := getJSON(ctx, a.doer, itemPath(FilersPath, id), nil, &f)
	return f, err
}

// Probe fetches at most one filer; it verifies connectivity and credentials.
func (a *FilersAPI) Probe(ctx context.Context) (Page[Filer], error) {
	return getPage[Filer](ctx, a.doer, FilersPath, 1, 0)
}

// VolumesAPI reads volumes and their filer connections.
type VolumesAPI struct{ doer client.Doer }

func (a *VolumesAPI) List(ctx context.Context) ([]Volume, error) {
	return listAll[Volume](ctx, a.doer, VolumesPath, 0)
}

func (a *VolumesAPI) Get(ctx context.Context, guid string) (Volume, error) {
	var v Volume
	err := getJSON(ctx, a.doer, itemPath(VolumesPath, guid), nil, &v)
	return v, err
}

// FilerConnections lists every volume/filer pairing.
func (a *VolumesAPI) FilerConnections(ctx context.Context) ([]VolumeConnection, error) {
	return listAll[VolumeConnection](ctx, a.doer, VolumeConnectionsPath, 0)
}

// ConnectedFilers lists the per-filer view of one volume.
func (a *VolumesAPI) ConnectedFilers(ctx context.Context, guid string) ([]VolumeFilerDetail, error) {
	return listAll[VolumeFilerDetail](ctx, a.doer, fmt.Sprintf("%s%s/filers/", VolumesPath, url.PathEscape(guid)), 0)
}

// SharesAPI reads SMB shares.
type SharesAPI struct{ doer client.Doer }

func (a *SharesAPI) List(ctx context.Context) ([]Share, error) {
	return listAll[Share](ctx, a.doer, SharesPath, 0)
}

func (a *SharesAPI) Get(ctx context.Context, id string) (Share, error) {
	var s Share
	err := getJSON(ctx, a.doer, itemPath(SharesPath, id), nil, &s)
	return s, err
}

// HealthAPI reads filer health reports.
type HealthAPI struct{ doer client.Doer }

func (a *HealthAPI) List(ctx context.Context) ([]FilerHealth, error) {
	return listAll[FilerHealth](ctx, a.doer, FilerHealthPath, 0)
}

// Get fetches the health report of the filer with the given serial number.
func (a *HealthAPI) Get(ctx context.Context, serial string) (FilerHealth, error) {
	var h FilerHealth
	err := getJSON(ctx, a.doer, fmt.Sprintf("%s%s/health/", FilersPath, url.PathEscape(serial)), nil, &h)
	return h, err
}

// CredentialsAPI reads cloud credentials.
type CredentialsAPI struct{ doer client.Doer }

func (a *CredentialsAPI) List(ctx context.Context) ([]CloudCredential, error) {
	return listAll[CloudCredential](ctx, a.doer, CloudCredentialsPath, 0)
}

func (a *CredentialsAPI) Get(ctx context.Context, uuid string) (CloudCredential, error) {
	var c CloudCredential
	err := getJSON(ctx, a.doer, itemPath(CloudCredentialsPath, uuid), nil, &c)
	return c, err
}

// GetForFiler fetches the copy of a credential held by one filer.
func (a *CredentialsAPI) GetForFiler(ctx context.Context, uuid, serial string) (CloudCredential, error) {
	var c CloudCredential
	path := fmt.Sprintf("%s%s/filers/%s/", CloudCredentialsPath, url.PathEscape(uuid), url.PathEscape(serial))
	err := getJSON(ctx, a.doer, path, nil, &c)
	return c, err
}
