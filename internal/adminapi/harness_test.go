package adminapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jyotishdesk/backoffice/config"
	"github.com/jyotishdesk/backoffice/internal/app"
	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/tokenstore"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

const testToken = "tok-asha"

type call struct {
	Method      string
	Path        string
	ContentType string
	Body        map[string]interface{}
}

// fakeBackend is an in-memory content backend keyed by collection path.
type fakeBackend struct {
	mu     sync.Mutex
	items  map[string][]map[string]interface{}
	fail   map[string]int
	calls  []call
	nextID int
}

func newFakeBackend() *fakeBackend {
	fb := &fakeBackend{
		items:  map[string][]map[string]interface{}{},
		fail:   map[string]int{},
		nextID: 100,
	}
	for _, p := range domain.ResourcePaths {
		fb.items[p] = nil
	}
	return fb
}

func (fb *fakeBackend) seed(resourceName string, rows ...map[string]interface{}) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	p := domain.ResourcePaths[resourceName]
	fb.items[p] = append(fb.items[p], rows...)
}

func (fb *fakeBackend) failWith(resourceName string, status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.fail[domain.ResourcePaths[resourceName]] = status
}

func (fb *fakeBackend) callsTo(method, resourceName string) []call {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	p := domain.ResourcePaths[resourceName]
	var out []call
	for _, c := range fb.calls {
		if c.Method == method && strings.HasPrefix(c.Path, p) {
			out = append(out, c)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (fb *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	body := readBody(r)
	recorded := make(map[string]interface{}, len(body))
	for k, v := range body {
		recorded[k] = v
	}
	fb.calls = append(fb.calls, call{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type"), Body: recorded})

	if r.Header.Get("Authorization") != "Bearer "+testToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	var collection string
	for p := range fb.items {
		if strings.HasPrefix(r.URL.Path, p) && len(p) > len(collection) {
			collection = p
		}
	}
	if collection == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	if status := fb.fail[collection]; status != 0 {
		writeJSON(w, status, map[string]string{"message": "content service unavailable"})
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, collection), "/")
	rows := fb.items[collection]
	idx := -1
	for i, row := range rows {
		if id != "" && fmt.Sprint(row["id"]) == id {
			idx = i
		}
	}

	switch {
	case id == "" && r.Method == http.MethodGet:
		fb.list(w, r, rows)
	case id == "" && r.Method == http.MethodPost:
		fb.nextID++
		body["id"] = fb.nextID
		fb.items[collection] = append(rows, body)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": body})
	case idx < 0:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	case r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, rows[idx])
	case r.Method == http.MethodPatch:
		for k, v := range body {
			rows[idx][k] = v
		}
		writeJSON(w, http.StatusOK, rows[idx])
	case r.Method == http.MethodDelete:
		fb.items[collection] = append(rows[:idx:idx], rows[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fb *fakeBackend) list(w http.ResponseWriter, r *http.Request, rows []map[string]interface{}) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	search := strings.ToLower(r.URL.Query().Get("search"))
	var matched []map[string]interface{}
	for _, row := range rows {
		if search == "" || strings.Contains(strings.ToLower(fmt.Sprint(row["title_en"])), search) {
			matched = append(matched, row)
		}
	}
	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	pages := (len(matched) + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"results": matched[start:end],
			"pagination": map[string]int{
				"total_pages":  pages,
				"count":        len(matched),
				"current_page": page,
				"page_size":    size,
			},
		},
	})
}

// readBody decodes JSON and multipart bodies into a map. Multipart values
// that look numeric are stored as numbers, as a real backend would.
func readBody(r *http.Request) map[string]interface{} {
	out := map[string]interface{}{}
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return out
		}
		for k, vs := range r.MultipartForm.Value {
			if f, err := strconv.ParseFloat(vs[0], 64); err == nil {
				out[k] = f
			} else {
				out[k] = vs[0]
			}
		}
		for k, fhs := range r.MultipartForm.File {
			out[k] = "/media/" + fhs[0].Filename
		}
	case strings.HasPrefix(ct, "application/json"):
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

type harness struct {
	t       *testing.T
	backend *fakeBackend
	app     *app.Application
	admin   *httptest.Server
	client  *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fb := newFakeBackend()
	backendSrv := httptest.NewServer(fb)
	t.Cleanup(backendSrv.Close)

	cfg := *config.DefaultAppConfig
	cfg.Backend.BaseURL = backendSrv.URL
	cfg.Backend.Timeout = 5
	cfg.Web.Secret = "test-secret"
	cfg.Jobs.Workers = 2

	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "oprlog.sqlite3")), &gorm.Config{})
	require.NoError(t, err)
	tokens, err := tokenstore.Open(filepath.Join(dir, "tokens.db"))
	require.NoError(t, err)

	a := app.NewApplication(&cfg)
	require.NoError(t, a.Setup(db, tokens))
	t.Cleanup(a.Release)

	srv, err := webserver.NewServer(&cfg)
	require.NoError(t, err)
	Register(srv, a)
	admin := httptest.NewServer(srv.Echo())
	t.Cleanup(admin.Close)

	return &harness{t: t, backend: fb, app: a, admin: admin, client: newBrowser(t)}
}

// newBrowser returns a client with its own cookie jar that does not follow
// redirects.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// otherSession shares the servers of h with a fresh cookie jar.
func (h *harness) otherSession() *harness {
	other := *h
	other.client = newBrowser(h.t)
	return &other
}

type response struct {
	Status   int
	Location string
	Header   http.Header
	Body     string
}

func (h *harness) do(req *http.Request) response {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return response{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Header: resp.Header, Body: string(raw)}
}

func (h *harness) get(path string) response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.admin.URL+path, nil)
	require.NoError(h.t, err)
	return h.do(req)
}

func (h *harness) postForm(path string, values url.Values) response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.admin.URL+path, strings.NewReader(values.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) sendJSON(method, path string, payload interface{}) (response, webserver.Msg) {
	h.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(h.t, err)
	req, err := http.NewRequest(method, h.admin.URL+path, strings.NewReader(string(raw)))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp := h.do(req)
	var msg webserver.Msg
	require.NoError(h.t, json.Unmarshal([]byte(resp.Body), &msg), resp.Body)
	return resp, msg
}

func (h *harness) getJSON(path string) (response, map[string]interface{}) {
	h.t.Helper()
	resp := h.get(path)
	var out map[string]interface{}
	require.NoError(h.t, json.Unmarshal([]byte(resp.Body), &out), resp.Body)
	return resp, out
}

func (h *harness) login() {
	h.t.Helper()
	resp := h.postForm("/login", url.Values{"operator": {"asha"}, "token": {testToken}})
	require.Equal(h.t, http.StatusSeeOther, resp.Status, resp.Body)
	require.Equal(h.t, webserver.AdminPrefix, resp.Location)
}

func (h *harness) oprActions() []string {
	h.t.Helper()
	rows, _, err := h.app.ListOprLogs(1, 100, "", "")
	require.NoError(h.t, err)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.OptAction)
	}
	sort.Strings(out)
	return out
}
