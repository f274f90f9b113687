package adminapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jyotishdesk/backoffice/internal/domain"
)

func TestAdminRedirectsToLoginWithoutSession(t *testing.T) {
	h := newHarness(t)

	resp := h.get("/admin/yogs")
	assert.Equal(t, http.StatusSeeOther, resp.Status)
	assert.Equal(t, "/login", resp.Location)

	resp, body := h.getJSON("/api/v1/yogs")
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
	assert.Empty(t, h.backend.callsTo(http.MethodGet, domain.ResYogs))
}

func TestLoginAndLogout(t *testing.T) {
	h := newHarness(t)

	resp := h.get("/login")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, `name="token"`)

	resp = h.postForm("/login", url.Values{"operator": {"asha"}, "token": {""}})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Contains(t, resp.Body, "token is required")

	h.login()
	resp = h.get("/admin")
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Contains(t, resp.Body, "asha")

	resp = h.postForm("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.Status)
	assert.Equal(t, "/login", resp.Location)

	_, found, err := h.app.Tokens().Get("asha")
	require.NoError(t, err)
	assert.False(t, found)

	resp = h.get("/admin")
	assert.Equal(t, http.StatusSeeOther, resp.Status)
	assert.Equal(t, []string{"auth.login", "auth.logout"}, h.oprActions())
}

func TestLoginKeepsAnotherSessionsToken(t *testing.T) {
	h := newHarness(t)
	h.login()

	intruder := h.otherSession()
	resp := intruder.postForm("/login", url.Values{"operator": {"asha"}, "token": {"tok-other"}})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Contains(t, resp.Body, "signed in with another token")
	rec, found, err := h.app.Tokens().Get("asha")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, testToken, rec.Token)

	second := h.otherSession()
	second.login()

	resp = h.postForm("/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.Status)
	_, found, err = h.app.Tokens().Get("asha")
	require.NoError(t, err)
	assert.True(t, found)
	resp = second.get("/admin")
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = second.postForm("/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.Status)
	_, found, err = h.app.Tokens().Get("asha")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSwaggerDocListsJSONMirror(t *testing.T) {
	h := newHarness(t)

	resp, doc := h.getJSON("/swagger/doc.json")
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "Jyotish Desk back-office API", doc["info"].(map[string]interface{})["title"])
	paths := doc["paths"].(map[string]interface{})
	assert.Contains(t, paths, "/api/v1/{resource}")
	assert.Contains(t, paths, "/api/v1/{resource}/{id}")
	assert.Contains(t, paths, "/api/v1/system/jobs/{name}/run")
}

func TestJSONLogin(t *testing.T) {
	h := newHarness(t)

	resp, msg := h.sendJSON(http.MethodPost, "/login", map[string]string{"operator": "asha", "token": testToken})
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "OK", msg.Code)
	assert.Equal(t, "asha", msg.Data.(map[string]interface{})["operator"])

	resp, _ = h.getJSON("/api/v1/yogs")
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestListShowsLanguageColumnsAndExcerpt(t *testing.T) {
	h := newHarness(t)
	h.backend.seed(domain.ResYogs, map[string]interface{}{
		"id": 1, "yog": 3, "title_en": "Guru Yog", "title_hi": "गुरु योग",
		"description_en": "A **strong** placement of Jupiter", "description_hi": "बृहस्पति की मजबूत स्थिति",
	})
	h.login()

	resp := h.get("/admin/yogs")
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Contains(t, resp.Body, "Title (EN)")
	assert.NotContains(t, resp.Body, "Title (HI)")
	assert.Contains(t, resp.Body, "Guru Yog")
	assert.Contains(t, resp.Body, "A strong placement of Jupiter")
	assert.Contains(t, resp.Body, `href="/admin/yogs/1/edit"`)

	resp = h.get("/admin/yogs?lang=hi")
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Contains(t, resp.Body, "Title (HI)")
	assert.NotContains(t, resp.Body, "Title (EN)")
	assert.Contains(t, resp.Body, "गुरु योग")
	assert.Contains(t, resp.Body, "खोजें")
}

func TestListSearchAndPagination(t *testing.T) {
	h := newHarness(t)
	for i := 1; i <= 3; i++ {
		h.backend.seed(domain.ResYogs, map[string]interface{}{"id": i, "yog": i, "title_en": "Yog " + string(rune('A'+i-1))})
	}
	h.login()

	_, body := h.getJSON("/api/v1/yogs?page=2&page_size=2")
	state := body["data"].(map[string]interface{})
	assert.Len(t, state["items"], 1)
	pagination := state["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pagination["totalPages"])
	assert.EqualValues(t, 3, pagination["totalCount"])
	assert.EqualValues(t, 2, pagination["currentPage"])

	_, body = h.getJSON("/api/v1/yogs?search=yog+b")
	items := body["data"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Yog B", items[0].(map[string]interface{})["title_en"])
}

func TestListFailureShowsRetry(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.failWith(domain.ResYogs, http.StatusInternalServerError)

	resp := h.get("/admin/yogs")
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Contains(t, resp.Body, "content service unavailable")
	assert.Contains(t, resp.Body, `<a href="/admin/yogs">Retry</a>`)

	resp, body := h.getJSON("/api/v1/yogs")
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Equal(t, "BACKEND_ERROR", body["code"])
}

func TestAddBlocksInvalidDraft(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp := h.postForm("/admin/yogs/new", url.Values{"yog": {"4"}, "title_hi": {"राहु"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Contains(t, resp.Body, "This field is required")
	assert.Contains(t, resp.Body, "राहु")
	assert.Empty(t, h.backend.callsTo(http.MethodPost, domain.ResYogs))

	resp = h.postForm("/admin/yogs/new", url.Values{"yog": {"four"}, "title_en": {"Rahu"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Contains(t, resp.Body, "Must be a number")
	assert.Empty(t, h.backend.callsTo(http.MethodPost, domain.ResYogs))
}

func TestAddCreatesAndFlashesNotice(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp := h.postForm("/admin/yogs/new", url.Values{"yog": {"5"}, "title_en": {"Budh Yog"}, "description_en": {"Mercury"}})
	require.Equal(t, http.StatusSeeOther, resp.Status, resp.Body)
	assert.Equal(t, "/admin/yogs/new", resp.Location)

	posts := h.backend.callsTo(http.MethodPost, domain.ResYogs)
	require.Len(t, posts, 1)
	assert.True(t, strings.HasPrefix(posts[0].ContentType, "application/json"))
	assert.EqualValues(t, 5, posts[0].Body["yog"])
	assert.Equal(t, "Budh Yog", posts[0].Body["title_en"])
	assert.NotContains(t, posts[0].Body, "id")

	resp = h.get("/admin/yogs/new")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, "Created successfully")
	assert.Contains(t, resp.Body, `data-dismiss-after="2500"`)
	assert.NotContains(t, resp.Body, `value="Budh Yog"`)

	// the notice is shown once
	resp = h.get("/admin/yogs/new")
	assert.NotContains(t, resp.Body, "Created successfully")

	assert.Contains(t, h.oprActions(), "yogs.create")
}

func TestEditUpdatesAndRendersSanitizedMarkdown(t *testing.T) {
	h := newHarness(t)
	h.backend.seed(domain.ResYogs, map[string]interface{}{"id": 7, "yog": 7, "title_en": "Ketu Yog"})
	h.login()

	resp := h.get("/admin/yogs/7/edit")
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Contains(t, resp.Body, `value="Ketu Yog"`)

	resp = h.postForm("/admin/yogs/7/edit", url.Values{
		"yog":            {"7"},
		"title_en":       {"Ketu Yog"},
		"description_en": {"**Detached** <script>alert(1)</script>"},
	})
	require.Equal(t, http.StatusSeeOther, resp.Status, resp.Body)
	assert.Equal(t, "/admin/yogs/7", resp.Location)

	patches := h.backend.callsTo(http.MethodPatch, domain.ResYogs)
	require.Len(t, patches, 1)
	assert.Equal(t, "/numerology/yogs/7/", patches[0].Path)

	resp = h.get("/admin/yogs/7")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, "Saved successfully")
	assert.Contains(t, resp.Body, "<strong>Detached</strong>")
	assert.NotContains(t, resp.Body, "<script>alert")

	resp = h.get("/admin/yogs/7/edit")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, `<div class="preview"><p><strong>Detached</strong>`)
	assert.NotContains(t, resp.Body, "<script>alert")
}

func TestRajyogUploadIsMultipart(t *testing.T) {
	h := newHarness(t)
	h.login()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title_en", "Golden Plane"))
	require.NoError(t, w.WriteField("description_en", "4-9-2 across the top"))
	require.NoError(t, w.WriteField("numbers", "4-9-2"))
	fw, err := w.CreateFormFile("image", "plane.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, h.admin.URL+"/admin/rajyogs/new", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := h.do(req)
	require.Equal(t, http.StatusSeeOther, resp.Status, resp.Body)

	posts := h.backend.callsTo(http.MethodPost, domain.ResRajyogs)
	require.Len(t, posts, 1)
	assert.True(t, strings.HasPrefix(posts[0].ContentType, "multipart/form-data"))
	assert.Equal(t, "/media/plane.png", posts[0].Body["image"])
	assert.Equal(t, "4-9-2", posts[0].Body["numbers"])
}

func TestDeleteFlow(t *testing.T) {
	h := newHarness(t)
	h.backend.seed(domain.ResRashis, map[string]interface{}{"id": 1, "name_en": "Mesha", "title_en": "Aries"})
	h.login()

	resp := h.get("/admin/rashis/1/delete")
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Contains(t, resp.Body, "Aries")

	resp = h.postForm("/admin/rashis/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, resp.Status, resp.Body)
	assert.Equal(t, "/admin/rashis", resp.Location)

	resp = h.get("/admin/rashis")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, "Deleted successfully")
	assert.NotContains(t, resp.Body, "Aries")
	assert.Contains(t, h.oprActions(), "rashis.delete")
}

func TestDetailNotFound(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp := h.get("/admin/yogs/404")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Contains(t, resp.Body, "Not found.")

	resp, body := h.getJSON("/api/v1/yogs/404")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "BACKEND_REJECTED", body["code"])
}

func TestExportCSV(t *testing.T) {
	h := newHarness(t)
	h.backend.seed(domain.ResYogs,
		map[string]interface{}{"id": 1, "yog": 1, "title_en": "Surya Yog"},
		map[string]interface{}{"id": 2, "yog": 2, "title_en": "Chandra Yog"},
	)
	h.login()

	resp := h.get("/admin/yogs/export?format=csv")
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="yogs-`)
	lines := strings.Split(strings.TrimSpace(resp.Body), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,yog,title_en"))
	assert.Contains(t, resp.Body, "Chandra Yog")

	resp = h.get("/admin/yogs/export?format=pdf")
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestAPICreateUpdateDelete(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, msg := h.sendJSON(http.MethodPost, "/api/v1/yogs", map[string]interface{}{"title_en": "Shukra Yog"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_ERROR", msg.Code)
	assert.Equal(t, "This field is required", msg.Details.(map[string]interface{})["yog"])
	assert.Empty(t, h.backend.callsTo(http.MethodPost, domain.ResYogs))

	resp, msg = h.sendJSON(http.MethodPost, "/api/v1/yogs", map[string]interface{}{"yog": 6, "title_en": "Shukra Yog"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	created := msg.Data.(map[string]interface{})
	assert.EqualValues(t, 101, created["id"])

	resp, msg = h.sendJSON(http.MethodPatch, "/api/v1/yogs/101", map[string]interface{}{"title_hi": "शुक्र योग"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "शुक्र योग", msg.Data.(map[string]interface{})["title_hi"])
	assert.Equal(t, "Shukra Yog", msg.Data.(map[string]interface{})["title_en"])

	patches := h.backend.callsTo(http.MethodPatch, domain.ResYogs)
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]interface{}{"title_hi": "शुक्र योग"}, patches[0].Body)

	resp, msg = h.sendJSON(http.MethodPatch, "/api/v1/yogs/101", map[string]interface{}{"yog": 0})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_ERROR", msg.Code)

	resp, msg = h.sendJSON(http.MethodDelete, "/api/v1/yogs/101", nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "101", msg.Data.(map[string]interface{})["id"])

	assert.Equal(t, []string{"auth.login", "yogs.create", "yogs.delete", "yogs.update"}, h.oprActions())
}

func TestProductStockRule(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, msg := h.sendJSON(http.MethodPost, "/api/v1/products", map[string]interface{}{"name_en": "Ruby", "price": 1200, "stock": -1})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Must be at least 0", msg.Details.(map[string]interface{})["stock"])

	resp = h.postForm("/admin/products/new", url.Values{"name_en": {"Ruby"}, "price": {"1200"}, "stock": {"-2"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Contains(t, resp.Body, "Must be at least 0")
	assert.Empty(t, h.backend.callsTo(http.MethodPost, domain.ResProducts))
}

func TestAnalyticsIsReadOnly(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp := h.get("/admin/analytics")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.NotContains(t, resp.Body, `href="/admin/analytics/new"`)

	resp, _ = h.sendJSON(http.MethodPost, "/api/v1/analytics", map[string]interface{}{"date": "2024-03-01"})
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, resp.Status)
	assert.Empty(t, h.backend.callsTo(http.MethodPost, domain.ResAnalytics))
}

func TestAnalyticsSummary(t *testing.T) {
	h := newHarness(t)
	h.backend.seed(domain.ResAnalytics,
		map[string]interface{}{"id": 1, "date": "2024-03-01", "total_users": 100, "active_users": 10, "new_users": 5, "premium_users": 2},
		map[string]interface{}{"id": 2, "date": "2024-03-02", "total_users": 110, "active_users": 20, "new_users": 10, "premium_users": 3},
		map[string]interface{}{"id": 3, "date": "2024-04-01", "total_users": 150, "active_users": 30, "new_users": 40, "premium_users": 6},
	)
	h.login()

	resp, msg := h.sendJSON(http.MethodGet, "/api/v1/analytics/summary?from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	data := msg.Data.(map[string]interface{})
	summary := data["summary"].(map[string]interface{})
	assert.EqualValues(t, 2, summary["days"])
	assert.EqualValues(t, 15, summary["new_users"])
	assert.EqualValues(t, 110, summary["latest_total"])
	assert.EqualValues(t, 15, summary["active_mean"])
	assert.Len(t, data["rows"], 2)

	resp, msg = h.sendJSON(http.MethodGet, "/api/v1/analytics/summary?from=2024-03-31&to=2024-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "INVALID_RANGE", msg.Code)

	page := h.get("/admin/analytics/summary?from=2024-04-01")
	require.Equal(t, http.StatusOK, page.Status, page.Body)
	assert.Contains(t, page.Body, "<td>2024-04-01</td>")
	assert.NotContains(t, page.Body, "<td>2024-03-01</td>")
}

func TestOprLogViews(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.app.RecordOprLog("ravi", "10.0.0.2", "products.update", "Ruby")

	resp, msg := h.sendJSON(http.MethodGet, "/api/v1/system/oprlogs?operator=ravi", nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	data := msg.Data.(map[string]interface{})
	assert.EqualValues(t, 1, data["total"])
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "products.update", items[0].(map[string]interface{})["opt_action"])

	resp, msg = h.sendJSON(http.MethodGet, "/api/v1/system/oprlogs?action=auth", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.EqualValues(t, 1, msg.Data.(map[string]interface{})["total"])

	page := h.get("/admin/system/oprlogs")
	require.Equal(t, http.StatusOK, page.Status, page.Body)
	assert.Contains(t, page.Body, "products.update")
	assert.Contains(t, page.Body, "auth.login")
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	h.backend.seed(domain.ResProducts,
		map[string]interface{}{"id": 1, "name_en": "Ruby"},
		map[string]interface{}{"id": 2, "name_en": "Pearl"},
	)
	h.backend.failWith(domain.ResLessons, http.StatusServiceUnavailable)
	h.login()

	resp, msg := h.sendJSON(http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	counts := map[string]map[string]interface{}{}
	for _, c := range msg.Data.(map[string]interface{})["counts"].([]interface{}) {
		rc := c.(map[string]interface{})
		counts[rc["resource"].(string)] = rc
	}
	require.Len(t, counts, len(domain.ResourcePaths))
	assert.EqualValues(t, 2, counts[domain.ResProducts]["count"])
	assert.Equal(t, true, counts[domain.ResProducts]["known"])
	assert.Equal(t, false, counts[domain.ResLessons]["known"])

	page := h.get("/admin")
	require.Equal(t, http.StatusOK, page.Status, page.Body)
	assert.Contains(t, page.Body, `<a href="/admin/products">Products</a></td><td>2</td>`)
	assert.Contains(t, page.Body, `<a href="/admin/lessons">Lessons</a></td><td>–</td>`)
}

func TestJobsListAndTrigger(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, msg := h.sendJSON(http.MethodGet, "/api/v1/system/jobs", nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	var names []string
	for _, j := range msg.Data.([]interface{}) {
		names = append(names, j.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{"monitor", "dashboard", "workspaces", "oprlog-purge", "token-expiry"}, names)

	req, err := http.NewRequest(http.MethodPost, h.admin.URL+"/api/v1/system/jobs/token-expiry/run", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, h.do(req).Status)
	assert.Contains(t, h.oprActions(), "jobs.run")

	resp, msg = h.sendJSON(http.MethodPost, "/api/v1/system/jobs/backup/run", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "NOT_FOUND", msg.Code)
}

func TestDatabaseInfo(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, msg := h.sendJSON(http.MethodGet, "/api/v1/system/database", nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, "sqlite", data["database_type"])
	tables := data["tables"].([]interface{})
	require.Len(t, tables, 1)
	table := tables[0].(map[string]interface{})
	assert.Equal(t, "sys_opr_log", table["name"])
	assert.Equal(t, true, table["exists"])
	assert.EqualValues(t, 1, table["row_count"])
}
