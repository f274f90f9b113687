package adminapi

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/export"
	"github.com/jyotishdesk/backoffice/internal/forms"
	"github.com/jyotishdesk/backoffice/internal/markdown"
	"github.com/jyotishdesk/backoffice/internal/resource"
	"github.com/jyotishdesk/backoffice/internal/webserver"
	"github.com/jyotishdesk/backoffice/internal/workspace"
)

const (
	exportPageSize = 100
	excerptLength  = 80
)

var resourceTitles = map[string]string{
	domain.ResRashis:          "Rashis",
	domain.ResYogs:            "Yogs",
	domain.ResRajyogs:         "Rajyogs",
	domain.ResYearPredictions: "Year predictions",
	domain.ResVastuEntrances:  "Vastu entrances",
	domain.ResProducts:        "Products",
	domain.ResLessons:         "Lessons",
	domain.ResAnalytics:       "User analytics",
}

// navOrder is the order of resources in the navigation.
var navOrder = []string{
	domain.ResRashis,
	domain.ResYogs,
	domain.ResRajyogs,
	domain.ResYearPredictions,
	domain.ResVastuEntrances,
	domain.ResProducts,
	domain.ResLessons,
	domain.ResAnalytics,
}

// resourceDef describes how one entity type is exposed.
type resourceDef[T resource.Entity] struct {
	Name     string
	ReadOnly bool
	Rules    []forms.Rule[T]
}

type resourceHandler[T resource.Entity] struct {
	def   resourceDef[T]
	title string
	base  string
}

func registerResourceRoutes(srv *webserver.Server) {
	registerResource(srv, resourceDef[domain.Rashi]{Name: domain.ResRashis})
	registerResource(srv, resourceDef[domain.Yog]{Name: domain.ResYogs})
	registerResource(srv, resourceDef[domain.Rajyog]{Name: domain.ResRajyogs})
	registerResource(srv, resourceDef[domain.YearPrediction]{Name: domain.ResYearPredictions})
	registerResource(srv, resourceDef[domain.VastuEntrance]{Name: domain.ResVastuEntrances})
	registerResource(srv, resourceDef[domain.Lesson]{Name: domain.ResLessons})
	registerResource(srv, resourceDef[domain.UserAnalytics]{Name: domain.ResAnalytics, ReadOnly: true})
	registerProductRoutes(srv)
}

func registerResource[T resource.Entity](srv *webserver.Server, def resourceDef[T]) {
	h := &resourceHandler[T]{
		def:   def,
		title: resourceTitles[def.Name],
		base:  webserver.AdminPrefix + "/" + def.Name,
	}
	p := "/" + def.Name

	srv.AdminGET(p, h.listPage)
	srv.AdminGET(p+"/export", h.export)
	srv.AdminGET(p+"/:id", h.detailPage)
	srv.ApiGET(p, h.apiList)
	srv.ApiGET(p+"/:id", h.apiGet)
	if def.ReadOnly {
		return
	}

	srv.AdminGET(p+"/new", h.addPage)
	srv.AdminPOST(p+"/new", h.addSubmit)
	srv.AdminGET(p+"/:id/edit", h.editPage)
	srv.AdminPOST(p+"/:id/edit", h.editSubmit)
	srv.AdminGET(p+"/:id/delete", h.deletePage)
	srv.AdminPOST(p+"/:id/delete", h.deleteSubmit)
	srv.ApiPOST(p, h.apiCreate)
	srv.ApiPATCH(p+"/:id", h.apiUpdate)
	srv.ApiDELETE(p+"/:id", h.apiDelete)
}

func (h *resourceHandler[T]) store(c echo.Context) *resource.Store[T] {
	return workspace.StoreOf[T](GetWorkspace(c), h.def.Name)
}

// loadEntity fetches id through store. A fetch superseded by a newer one in
// the same session still renders: the winning selection when it is the same
// entity, otherwise what this fetch returned.
func loadEntity[T resource.Entity](ctx context.Context, store *resource.Store[T], id string) (T, error) {
	v, err := store.Get(ctx, id)
	if !resource.IsDiscarded(err) || errors.Is(err, context.Canceled) {
		return v, err
	}
	if sel := store.Snapshot().Selected; sel != nil && (*sel).Key() == id {
		return *sel, nil
	}
	return v, nil
}

func (h *resourceHandler[T]) record(c echo.Context, op, desc string) {
	GetAppContext(c).RecordOprLog(currentOperator(c), c.RealIP(), h.def.Name+"."+op, desc)
}

// list

type listRow struct {
	ID    string
	Cells []string
}

type listView struct {
	BaseURL  string
	Search   string
	PageSize int
	ReadOnly bool
	State    listState
	RetryURL string
	Columns  []forms.Field
	Rows     []listRow
}

type listState struct {
	Loading    bool
	Error      string
	Pagination resource.Pagination
}

func (h *resourceHandler[T]) listPage(c echo.Context) error {
	page, pageSize := parsePagination(c)
	search := strings.TrimSpace(c.QueryParam("search"))
	store := h.store(c)
	_, _ = store.List(c.Request().Context(), resource.ListQuery{Page: page, PageSize: pageSize, Search: search})
	state := store.Snapshot()

	lang := webserver.LangCode(webserver.Language(c))
	cols, excerptField := listColumns(forms.Fields[T](), lang)
	columns := cols
	if excerptField != "" {
		columns = append(append([]forms.Field{}, cols...), forms.Field{Name: excerptField, Label: forms.Label(excerptField), Kind: forms.KindMarkdown})
	}

	rows := make([]listRow, 0, len(state.Items))
	for _, item := range state.Items {
		d, err := forms.DraftOf(item)
		if err != nil {
			return err
		}
		row := listRow{ID: item.Key()}
		for _, col := range cols {
			row.Cells = append(row.Cells, d.Get(col.Name))
		}
		if excerptField != "" {
			row.Cells = append(row.Cells, markdown.Excerpt(d.Get(excerptField), excerptLength))
		}
		rows = append(rows, row)
	}

	view := listView{
		BaseURL:  h.base,
		Search:   search,
		PageSize: pageSize,
		ReadOnly: h.def.ReadOnly,
		State: listState{
			Loading:    state.Loading,
			Error:      state.Error,
			Pagination: state.Pagination,
		},
		RetryURL: c.Request().URL.RequestURI(),
		Columns:  columns,
		Rows:     rows,
	}
	status := http.StatusOK
	if state.Error != "" {
		status = http.StatusBadGateway
	}
	return c.Render(status, "list", newPage(c, h.title, view))
}

// listColumns keeps the short fields of the operator's language. The first
// markdown field of that language is returned separately for an excerpt.
func listColumns(fields []forms.Field, lang string) (cols []forms.Field, excerpt string) {
	other := "_hi"
	if lang == "hi" {
		other = "_en"
	}
	for _, f := range fields {
		if strings.HasSuffix(f.Name, other) {
			continue
		}
		switch f.Kind {
		case forms.KindMarkdown:
			if excerpt == "" {
				excerpt = f.Name
			}
		case forms.KindFile:
		default:
			cols = append(cols, f)
		}
	}
	return cols, excerpt
}

// detail

type detailField struct {
	Label string
	Value string
	HTML  template.HTML
}

type detailView struct {
	RetryURL string
	Fields   []detailField
	ReadOnly bool
	BaseURL  string
	ID       string
}

func (h *resourceHandler[T]) detailPage(c echo.Context) error {
	id := c.Param("id")
	v, err := loadEntity(c.Request().Context(), h.store(c), id)
	if resource.IsNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound, resource.ErrorMessage(err))
	}
	view := detailView{
		RetryURL: c.Request().URL.RequestURI(),
		ReadOnly: h.def.ReadOnly,
		BaseURL:  h.base,
		ID:       id,
	}
	if err != nil {
		p := newPage(c, h.title, view)
		p.Error = resource.ErrorMessage(err)
		return c.Render(backendStatus(err), "detail", p)
	}

	d, err := forms.DraftOf(v)
	if err != nil {
		return err
	}
	for _, f := range forms.Fields[T]() {
		field := detailField{Label: f.Label, Value: d.Get(f.Name)}
		if f.Kind == forms.KindMarkdown {
			field.HTML = markdown.Render(field.Value)
		}
		view.Fields = append(view.Fields, field)
	}
	return c.Render(http.StatusOK, "detail", newPage(c, h.title, view))
}

// add / edit

type formField struct {
	forms.Field
	Value   string
	Error   string
	Preview template.HTML
}

type formView struct {
	Error     string
	Action    string
	CancelURL string
	Fields    []formField
}

func (h *resourceHandler[T]) renderForm(c echo.Context, status int, ed *forms.Editor[T], action string) error {
	view := formView{Error: ed.Error, Action: action, CancelURL: h.base}
	for _, f := range ed.Fields {
		field := formField{Field: f, Value: ed.Draft.Get(f.Name), Error: ed.Errors[f.Name]}
		if f.Kind == forms.KindMarkdown && field.Value != "" {
			field.Preview = ed.Preview(f.Name)
		}
		view.Fields = append(view.Fields, field)
	}
	title := h.title
	if ed.Mode == forms.ModeEdit {
		title += " #" + ed.ID
	}
	return c.Render(status, "form", newPage(c, title, view))
}

func (h *resourceHandler[T]) addPage(c echo.Context) error {
	ed := forms.NewEditor[T]()
	return h.renderForm(c, http.StatusOK, ed, h.base+"/new")
}

func (h *resourceHandler[T]) addSubmit(c echo.Context) error {
	ed := forms.NewEditor[T]()
	ed.Rules = h.def.Rules
	if err := h.bindForm(c, ed); err != nil {
		return err
	}
	saved, done := ed.Submit(c.Request().Context(), h.store(c))
	if !done {
		return h.renderForm(c, h.rejectedStatus(ed), ed, h.base+"/new")
	}
	h.record(c, "create", entityLabel(saved))
	setFlash(c, ed.Notice)
	return c.Redirect(http.StatusSeeOther, h.base+"/new")
}

func (h *resourceHandler[T]) editPage(c echo.Context) error {
	id := c.Param("id")
	v, err := loadEntity(c.Request().Context(), h.store(c), id)
	if resource.IsNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound, resource.ErrorMessage(err))
	}
	if err != nil {
		ed := forms.EditorForID[T](id)
		ed.Error = resource.ErrorMessage(err)
		return h.renderForm(c, backendStatus(err), ed, h.editURL(id))
	}
	ed, err := forms.EditorFor(v)
	if err != nil {
		return err
	}
	return h.renderForm(c, http.StatusOK, ed, h.editURL(id))
}

func (h *resourceHandler[T]) editSubmit(c echo.Context) error {
	id := c.Param("id")
	ed := forms.EditorForID[T](id)
	ed.Rules = h.def.Rules
	if err := h.bindForm(c, ed); err != nil {
		return err
	}
	saved, done := ed.Submit(c.Request().Context(), h.store(c))
	if !done {
		return h.renderForm(c, h.rejectedStatus(ed), ed, h.editURL(id))
	}
	h.record(c, "update", entityLabel(saved))
	setFlash(c, ed.Notice)
	return c.Redirect(http.StatusSeeOther, h.base+"/"+url.PathEscape(id))
}

func (h *resourceHandler[T]) editURL(id string) string {
	return h.base + "/" + url.PathEscape(id) + "/edit"
}

func (h *resourceHandler[T]) rejectedStatus(ed *forms.Editor[T]) int {
	if len(ed.Errors) > 0 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// bindForm copies the submitted fields and uploads into ed.
func (h *resourceHandler[T]) bindForm(c echo.Context, ed *forms.Editor[T]) error {
	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var files []resource.File
	for _, f := range ed.Fields {
		if f.Kind != forms.KindFile {
			continue
		}
		fh, err := c.FormFile(f.Name)
		if err != nil || fh.Size == 0 {
			continue
		}
		src, err := fh.Open()
		if err != nil {
			return errors.Wrapf(err, "open upload %s", f.Name)
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return errors.Wrapf(err, "read upload %s", f.Name)
		}
		files = append(files, resource.File{Field: f.Name, Filename: fh.Filename, Data: data})
	}
	ed.Bind(values, files...)
	return nil
}

// delete

type deleteView struct {
	Label   string
	BaseURL string
	ID      string
}

func (h *resourceHandler[T]) deletePage(c echo.Context) error {
	id := c.Param("id")
	view := deleteView{Label: id, BaseURL: h.base, ID: id}
	v, err := loadEntity(c.Request().Context(), h.store(c), id)
	if resource.IsNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound, resource.ErrorMessage(err))
	}
	if err != nil {
		p := newPage(c, h.title, view)
		p.Error = resource.ErrorMessage(err)
		return c.Render(backendStatus(err), "delete", p)
	}
	view.Label = entityLabel(v)
	return c.Render(http.StatusOK, "delete", newPage(c, h.title, view))
}

func (h *resourceHandler[T]) deleteSubmit(c echo.Context) error {
	id := c.Param("id")
	if err := h.store(c).Delete(c.Request().Context(), id); err != nil {
		p := newPage(c, h.title, deleteView{Label: id, BaseURL: h.base, ID: id})
		p.Error = resource.ErrorMessage(err)
		return c.Render(backendStatus(err), "delete", p)
	}
	h.record(c, "delete", id)
	setFlash(c, "Deleted successfully")
	return c.Redirect(http.StatusSeeOther, h.base)
}

// export

func (h *resourceHandler[T]) export(c echo.Context) error {
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = export.FormatCSV
	}
	if format != export.FormatCSV && format != export.FormatXLSX {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be csv or xlsx")
	}
	client := workspace.ClientOf[T](GetWorkspace(c), h.def.Name)
	rows, err := export.CollectAll[T](c.Request().Context(), client, c.QueryParam("search"), exportPageSize)
	if err != nil {
		return echo.NewHTTPError(backendStatus(err), resource.ErrorMessage(err))
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, h.def.Name, rows); err != nil {
		return err
	}
	filename := fmt.Sprintf("%s-%s.%s", h.def.Name, time.Now().Format("20060102"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, export.ContentType(format), buf.Bytes())
}

// JSON mirror

// apiList loads one page of a resource into the session store
// @Summary list a resource page
// @Tags Resources
// @Param resource path string true "Resource" Enums(rashis, rajyogs, year-predictions, vastu-entrances, products, yogs, analytics, lessons)
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page"
// @Param search query string false "Search text"
// @Success 200 {object} webserver.Msg
// @Failure 502 {object} webserver.Msg
// @Router /api/v1/{resource} [get]
func (h *resourceHandler[T]) apiList(c echo.Context) error {
	page, pageSize := parsePagination(c)
	store := h.store(c)
	_, err := store.List(c.Request().Context(), resource.ListQuery{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.QueryParam("search")),
	})
	if err != nil && !resource.IsDiscarded(err) {
		return backendFail(c, err)
	}
	return ok(c, store.Snapshot())
}

// @Summary get one resource item
// @Tags Resources
// @Param resource path string true "Resource"
// @Param id path string true "Item ID"
// @Success 200 {object} webserver.Msg
// @Failure 404 {object} webserver.Msg
// @Router /api/v1/{resource}/{id} [get]
func (h *resourceHandler[T]) apiGet(c echo.Context) error {
	store := h.store(c)
	if _, err := store.Get(c.Request().Context(), c.Param("id")); err != nil && !resource.IsDiscarded(err) {
		return backendFail(c, err)
	}
	return ok(c, store.Snapshot())
}

// @Summary create a resource item
// @Tags Resources
// @Param resource path string true "Resource" Enums(rashis, rajyogs, year-predictions, vastu-entrances, products, yogs, lessons)
// @Param item body object true "Item fields"
// @Success 200 {object} webserver.Msg
// @Failure 400 {object} webserver.Msg
// @Router /api/v1/{resource} [post]
func (h *resourceHandler[T]) apiCreate(c echo.Context) error {
	var payload map[string]interface{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse "+h.def.Name, err.Error())
	}
	delete(payload, "id")
	v, err := forms.DecodeMap[T](payload)
	if err != nil {
		return handleValidationError(c, err)
	}
	if err := c.Validate(v); err != nil {
		return handleValidationError(c, err)
	}
	if fe := runRules(h.def.Rules, v, nil); len(fe) > 0 {
		return handleValidationError(c, fe)
	}
	saved, err := h.store(c).Create(c.Request().Context(), resource.JSON(v))
	if err != nil {
		return backendFail(c, err)
	}
	h.record(c, "create", entityLabel(saved))
	return ok(c, saved)
}

// apiUpdate sends only the submitted fields; validation is limited to them.
//
// @Summary update a resource item
// @Tags Resources
// @Param resource path string true "Resource"
// @Param id path string true "Item ID"
// @Param item body object true "Changed fields"
// @Success 200 {object} webserver.Msg
// @Failure 400 {object} webserver.Msg
// @Router /api/v1/{resource}/{id} [patch]
func (h *resourceHandler[T]) apiUpdate(c echo.Context) error {
	id := c.Param("id")
	var payload map[string]interface{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse "+h.def.Name, err.Error())
	}
	delete(payload, "id")
	if len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No fields to update", nil)
	}
	v, err := forms.DecodeMap[T](payload)
	if err != nil {
		return handleValidationError(c, err)
	}
	names := make([]string, 0, len(payload))
	for k := range payload {
		names = append(names, k)
	}
	if err := forms.ValidateFields(v, names); err != nil {
		return handleValidationError(c, err)
	}
	if fe := runRules(h.def.Rules, v, names); len(fe) > 0 {
		return handleValidationError(c, fe)
	}
	saved, err := h.store(c).Update(c.Request().Context(), id, resource.JSON(payload))
	if err != nil {
		return backendFail(c, err)
	}
	h.record(c, "update", entityLabel(saved))
	return ok(c, saved)
}

// @Summary delete a resource item
// @Tags Resources
// @Param resource path string true "Resource"
// @Param id path string true "Item ID"
// @Success 200 {object} webserver.Msg
// @Router /api/v1/{resource}/{id} [delete]
func (h *resourceHandler[T]) apiDelete(c echo.Context) error {
	id := c.Param("id")
	if err := h.store(c).Delete(c.Request().Context(), id); err != nil {
		return backendFail(c, err)
	}
	h.record(c, "delete", id)
	return ok(c, map[string]string{"id": id})
}

// runRules applies rules to v. When only is given, errors on other fields
// are dropped.
func runRules[T any](rules []forms.Rule[T], v T, only []string) forms.FieldErrors {
	out := forms.FieldErrors{}
	for _, rule := range rules {
		for k, msg := range rule(v) {
			out[k] = msg
		}
	}
	if only == nil {
		return out
	}
	keep := forms.FieldErrors{}
	for _, k := range only {
		if msg, ok := out[k]; ok {
			keep[k] = msg
		}
	}
	return keep
}

// entityLabel names an entity in logs and confirmations.
func entityLabel[T resource.Entity](v T) string {
	d, err := forms.DraftOf(v)
	if err == nil {
		for _, k := range []string{"title_en", "name_en", "date"} {
			if s := d.Get(k); s != "" {
				return s
			}
		}
	}
	return v.Key()
}
