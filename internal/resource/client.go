package resource

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/jyotishdesk/backoffice/pkg/metrics"
)

// TokenSource supplies the bearer token attached to backend requests.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// ListQuery selects one page of a collection.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
}

// File is one attachment sent with a multipart create/update.
type File struct {
	Field    string
	Filename string
	Data     []byte
}

// Body is the payload of a create or update call.
type Body struct {
	value interface{}
	files []File
}

// JSON sends v as a JSON document.
func JSON(v interface{}) Body {
	return Body{value: v}
}

// Multipart sends the fields of v as form values together with files.
// Without files it degrades to JSON.
func Multipart(v interface{}, files ...File) Body {
	return Body{value: v, files: files}
}

func (b Body) IsMultipart() bool {
	return len(b.files) > 0
}

type requestIDKey struct{}

// WithRequestID stores the id sent as X-Request-ID on backend calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type clientOptions struct {
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
}

type ClientOption func(*clientOptions)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = hc }
}

func WithTokenSource(ts TokenSource) ClientOption {
	return func(o *clientOptions) { o.tokens = ts }
}

// WithTimeout bounds every call made by the client.
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = d }
}

// Client talks to one collection of the content backend.
type Client[T any] struct {
	name    string
	baseURL string
	path    string
	opts    clientOptions
}

// NewClient creates a client for the collection at path (for example
// "/products/") below baseURL.
func NewClient[T any](name, baseURL, path string, opts ...ClientOption) *Client[T] {
	o := clientOptions{httpClient: &http.Client{}, timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &Client[T]{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
		opts:    o,
	}
}

func (c *Client[T]) Name() string { return c.name }

func (c *Client[T]) collectionURL() string {
	return c.baseURL + c.path
}

func (c *Client[T]) itemURL(id string) string {
	return c.baseURL + c.path + url.PathEscape(id) + "/"
}

// List fetches one page. page and page_size are sent exactly as given.
func (c *Client[T]) List(ctx context.Context, q ListQuery) (Page[T], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	query := gout.H{
		"page":      strconv.Itoa(q.Page),
		"page_size": strconv.Itoa(q.PageSize),
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		query["search"] = s
	}
	body, err := c.do(ctx, http.MethodGet, c.collectionURL(), query, nil)
	if err != nil {
		return Page[T]{}, err
	}
	page, err := decodeList[T](body, q.Page, q.PageSize)
	if err != nil {
		return Page[T]{}, transportError(err)
	}
	return page, nil
}

func (c *Client[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	body, err := c.do(ctx, http.MethodGet, c.itemURL(id), nil, nil)
	if err != nil {
		return zero, err
	}
	v, err := decodeOne[T](body)
	if err != nil {
		return zero, transportError(err)
	}
	return v, nil
}

func (c *Client[T]) Create(ctx context.Context, b Body) (T, error) {
	var zero T
	body, err := c.do(ctx, http.MethodPost, c.collectionURL(), nil, &b)
	if err != nil {
		return zero, err
	}
	v, err := decodeOne[T](body)
	if err != nil {
		return zero, transportError(err)
	}
	return v, nil
}

// Update always uses PATCH.
func (c *Client[T]) Update(ctx context.Context, id string, b Body) (T, error) {
	var zero T
	body, err := c.do(ctx, http.MethodPatch, c.itemURL(id), nil, &b)
	if err != nil {
		return zero, err
	}
	v, err := decodeOne[T](body)
	if err != nil {
		return zero, transportError(err)
	}
	return v, nil
}

func (c *Client[T]) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.itemURL(id), nil, nil)
	return err
}

// do performs one request and returns the body of a 2xx response. Every
// other outcome is returned as *APIError.
func (c *Client[T]) do(ctx context.Context, method, target string, query gout.H, b *Body) (respBody []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("backend request panic", zap.String("resource", c.name), zap.Any("panic", r))
			respBody, err = nil, &APIError{Message: "internal client error"}
		}
	}()

	if c.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
		defer cancel()
	}

	var df *dataflow.DataFlow
	g := gout.New(c.opts.httpClient)
	switch method {
	case http.MethodPost:
		df = g.POST(target)
	case http.MethodPatch:
		df = g.PATCH(target)
	case http.MethodDelete:
		df = g.DELETE(target)
	default:
		df = g.GET(target)
	}

	headers := gout.H{"Accept": "application/json"}
	if c.opts.tokens != nil {
		if tok := strings.TrimSpace(c.opts.tokens.Token()); tok != "" {
			headers["Authorization"] = "Bearer " + tok
		}
	}
	if rid := RequestIDFrom(ctx); rid != "" {
		headers["X-Request-ID"] = rid
	}
	if method == http.MethodPost {
		headers["Idempotency-Key"] = uuid.NewString()
	}

	if b != nil {
		if b.IsMultipart() {
			payload, contentType, err := encodeMultipart(b.value, b.files)
			if err != nil {
				return nil, transportError(err)
			}
			headers["Content-Type"] = contentType
			df = df.SetBody(payload)
		} else {
			df = df.SetJSON(b.value)
		}
	}
	if query != nil {
		df = df.SetQuery(query)
	}

	var code int
	start := time.Now()
	err = df.WithContext(ctx).SetHeader(headers).BindBody(&respBody).Code(&code).Do()
	elapsed := time.Since(start)
	metrics.Observe("backend_request_ms", float64(elapsed.Milliseconds()), "resource", c.name, "method", method)

	if err != nil {
		metrics.Incr("backend_request_errors", "resource", c.name)
		zap.L().Warn("backend request failed",
			zap.String("resource", c.name),
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &APIError{Message: ctxErr.Error(), Err: ctxErr}
		}
		return nil, transportError(err)
	}
	if code < 200 || code > 299 {
		metrics.Incr("backend_request_errors", "resource", c.name)
		apiErr := normalizeError(code, respBody)
		zap.L().Info("backend rejected request",
			zap.String("resource", c.name),
			zap.String("method", method),
			zap.Int("status", code),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}
	zap.L().Debug("backend request",
		zap.String("resource", c.name),
		zap.String("method", method),
		zap.Int("status", code),
		zap.Duration("elapsed", elapsed))
	return respBody, nil
}

// encodeMultipart writes the json-tagged fields of v as form values followed
// by the files. A file replaces a scalar field of the same name.
func encodeMultipart(v interface{}, files []File) ([]byte, string, error) {
	fields := map[string]interface{}{}
	if v != nil {
		if m, ok := v.(map[string]interface{}); ok {
			fields = m
		} else {
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &fields})
			if err != nil {
				return nil, "", err
			}
			if err := dec.Decode(v); err != nil {
				return nil, "", errors.Wrap(err, "flatten multipart fields")
			}
		}
	}
	fileFields := map[string]bool{}
	for _, f := range files {
		fileFields[f.Field] = true
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range keys {
		if fileFields[k] {
			continue
		}
		val := fields[k]
		if val == nil {
			continue
		}
		rv := reflect.ValueOf(val)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			continue
		}
		var s string
		switch rv.Kind() {
		case reflect.Map, reflect.Slice, reflect.Struct:
			raw, err := json.Marshal(val)
			if err != nil {
				return nil, "", errors.Wrapf(err, "encode field %s", k)
			}
			s = string(raw)
		default:
			s = cast.ToString(val)
		}
		if err := w.WriteField(k, s); err != nil {
			return nil, "", err
		}
	}
	for _, f := range files {
		name := f.Filename
		if name == "" {
			name = f.Field
		}
		part, err := w.CreateFormFile(f.Field, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
