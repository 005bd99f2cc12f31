package mock

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/nmc.yaml
var defaultNMCFixtures []byte

// Default credentials accepted by NMCServer.
const (
	NMCUsername = "admin"
	NMCPassword = "secret"
)

// NMCServer is an in-process fake of the NMC REST API. It issues tokens from
// the login endpoint, rejects requests without a live token and serves list
// and item endpoints from fixture data with limit/offset paging.
type NMCServer struct {
	*httptest.Server

	mu            sync.Mutex
	fixtures      NMCFixtures
	username      string
	password      string
	tokenLifetime time.Duration
	now           func() time.Time
	tokens        map[string]time.Time
	issued        int
	failures      map[string][]int
	loginFailure  *ScriptedFailure
	requests      []RecordedRequest
}

// NMCServerOption configures an NMCServer.
type NMCServerOption func(*NMCServer)

// WithFixtures replaces the embedded fixture data.
func WithFixtures(f NMCFixtures) NMCServerOption {
	return func(s *NMCServer) {
		s.fixtures = f
	}
}

// WithCredentials changes the accepted username and password.
func WithCredentials(username, password string) NMCServerOption {
	return func(s *NMCServer) {
		s.username = username
		s.password = password
	}
}

// WithTokenLifetime sets the lifetime declared for issued tokens. Zero means
// the login response carries no expiry.
func WithTokenLifetime(d time.Duration) NMCServerOption {
	return func(s *NMCServer) {
		s.tokenLifetime = d
	}
}

// WithNow sets the clock used to stamp and check token expiry.
func WithNow(now func() time.Time) NMCServerOption {
	return func(s *NMCServer) {
		s.now = now
	}
}

// NewNMCServer starts a fake NMC API. Callers must Close it.
func NewNMCServer(opts ...NMCServerOption) (*NMCServer, error) {
	s := &NMCServer{
		username:      NMCUsername,
		password:      NMCPassword,
		tokenLifetime: time.Hour,
		now:           time.Now,
		tokens:        map[string]time.Time{},
		failures:      map[string][]int{},
	}
	fixtures, err := ParseNMCFixtures(defaultNMCFixtures)
	if err != nil {
		return nil, err
	}
	s.fixtures = fixtures
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s, nil
}

// ParseNMCFixtures decodes fixture YAML.
func ParseNMCFixtures(data []byte) (NMCFixtures, error) {
	var f NMCFixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return NMCFixtures{}, fmt.Errorf("failed to parse NMC fixtures: %w", err)
	}
	return f, nil
}

// FailNext makes the next requests to path answer with the given statuses,
// one per request, before normal service resumes.
func (s *NMCServer) FailNext(path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], statuses...)
}

// FailLogin makes every login answer with the given failure until cleared
// with a nil argument.
func (s *NMCServer) FailLogin(f *ScriptedFailure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginFailure = f
}

// RevokeTokens invalidates every issued token, as an NMC restart would.
func (s *NMCServer) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]time.Time{}
}

// Logins is the number of tokens issued.
func (s *NMCServer) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

// Requests returns every request received, in order.
func (s *NMCServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount counts requests to path.
func (s *NMCServer) RequestCount(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (s *NMCServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1.2/auth/login/", s.handleLogin)

	mux.HandleFunc("GET /api/v1.2/filers/{$}", s.list(func(f *NMCFixtures) []Record { return f.Filers }))
	mux.HandleFunc("GET /api/v1.2/filers/health/{$}", s.list(func(f *NMCFixtures) []Record { return f.Health }))
	mux.HandleFunc("GET /api/v1.2/filers/{id}/{$}", s.item(func(f *NMCFixtures) []Record { return f.Filers }, "id", "id", "serial_number", "guid"))
	mux.HandleFunc("GET /api/v1.2/filers/{id}/health/{$}", s.item(func(f *NMCFixtures) []Record { return f.Health }, "id", "filer_serial_number"))

	mux.HandleFunc("GET /api/v1.2/volumes/{$}", s.list(func(f *NMCFixtures) []Record { return f.Volumes }))
	mux.HandleFunc("GET /api/v1.2/volumes/filer-connections/{$}", s.list(func(f *NMCFixtures) []Record { return f.VolumeConnections }))
	mux.HandleFunc("GET /api/v1.2/volumes/filers/shares/{$}", s.list(func(f *NMCFixtures) []Record { return f.Shares }))
	mux.HandleFunc("GET /api/v1.2/volumes/filers/shares/{id}/{$}", s.item(func(f *NMCFixtures) []Record { return f.Shares }, "id", "id"))
	mux.HandleFunc("GET /api/v1.2/volumes/{id}/{$}", s.item(func(f *NMCFixtures) []Record { return f.Volumes }, "id", "guid"))
	mux.HandleFunc("GET /api/v1.2/volumes/{id}/filers/{$}", s.handleVolumeFilers)

	mux.HandleFunc("GET /api/v1.2/notifications/{$}", s.list(func(f *NMCFixtures) []Record { return f.Notifications }))
	mux.HandleFunc("GET /api/v1.2/notifications/{id}/{$}", s.item(func(f *NMCFixtures) []Record { return f.Notifications }, "id", "id"))

	mux.HandleFunc("GET /api/v1.2/account/cloud-credentials/{$}", s.list(func(f *NMCFixtures) []Record { return f.Credentials }))
	mux.HandleFunc("GET /api/v1.2/account/cloud-credentials/{id}/{$}", s.item(func(f *NMCFixtures) []Record { return f.Credentials }, "id", "cred_uuid"))
	mux.HandleFunc("GET /api/v1.2/account/cloud-credentials/{id}/filers/{serial}/{$}", s.handleFilerCredential)

	return s.record(mux)
}

// record logs the request, applies scripted failures and enforces the token
// on everything but login.
func (s *NMCServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
		})
		var status int
		if queued := s.failures[r.URL.Path]; len(queued) > 0 {
			status = queued[0]
			s.failures[r.URL.Path] = queued[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		if r.URL.Path != "/api/v1.2/auth/login/" && !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *NMCServer) authorized(r *http.Request) bool {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Token") {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.tokens[token]
	return ok && (expires.IsZero() || s.now().Before(expires))
}

func (s *NMCServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request"})
		return
	}

	s.mu.Lock()
	failure := s.loginFailure
	s.mu.Unlock()
	if failure != nil {
		writeJSON(w, failure.Status, map[string]string{"detail": failure.Detail})
		return
	}
	if body.Username != s.username || body.Password != s.password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid username/password."})
		return
	}

	s.mu.Lock()
	s.issued++
	token := fmt.Sprintf("mock-token-%04d", s.issued)
	var expires time.Time
	if s.tokenLifetime > 0 {
		expires = s.now().Add(s.tokenLifetime).UTC()
	}
	s.tokens[token] = expires
	s.mu.Unlock()

	resp := map[string]string{"token": token}
	if !expires.IsZero() {
		resp["expires"] = expires.Format("2006-01-02T15:04:05MST")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *NMCServer) handleVolumeFilers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items, ok := s.fixtures.VolumeFilers[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writePage(w, r, items)
}

// handleFilerCredential serves a credential only from the filer it is synced to.
func (s *NMCServer) handleFilerCredential(w http.ResponseWriter, r *http.Request) {
	id, serial := r.PathValue("id"), r.PathValue("serial")
	s.mu.Lock()
	items := s.fixtures.Credentials
	s.mu.Unlock()
	for _, rec := range items {
		if fmt.Sprint(rec["cred_uuid"]) == id && fmt.Sprint(rec["filer_serial_number"]) == serial {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (s *NMCServer) list(collection func(*NMCFixtures) []Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		items := collection(&s.fixtures)
		s.mu.Unlock()
		writePage(w, r, items)
	}
}

// item serves the record whose keys (any of them) equal the path value.
func (s *NMCServer) item(collection func(*NMCFixtures) []Record, param string, keys ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		want := r.PathValue(param)
		s.mu.Lock()
		items := collection(&s.fixtures)
		s.mu.Unlock()
		for _, rec := range items {
			for _, key := range keys {
				if v, ok := rec[key]; ok && fmt.Sprint(v) == want {
					writeJSON(w, http.StatusOK, rec)
					return
				}
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
}

func writePage(w http.ResponseWriter, r *http.Request, items []Record) {
	total := len(items)
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = total
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := map[string]interface{}{
		"items":  nonNilRecords(items[offset:end]),
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"next":   nil,
	}
	if end < total {
		page["next"] = fmt.Sprintf("%s?limit=%d&offset=%d", r.URL.Path, limit, end)
	}
	writeJSON(w, http.StatusOK, page)
}

func nonNilRecords(items []Record) []Record {
	if items == nil {
		return []Record{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
