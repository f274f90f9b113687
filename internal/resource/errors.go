package resource

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// ErrSuperseded is returned when a settlement was discarded because a newer
// operation replaced it or the store cancelled it.
var ErrSuperseded = errors.New("superseded by a newer request")

// APIError is the normalized failure of a backend call.
type APIError struct {
	Status  int               `json:"status"` // 0 for transport failures
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorMessage returns the user facing message of err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// IsDiscarded reports whether err comes from a settlement the store threw
// away because it was superseded or cancelled.
func IsDiscarded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func transportError(err error) *APIError {
	return &APIError{Message: err.Error(), Err: err}
}

// reserved keys never treated as field errors
var envelopeKeys = map[string]bool{
	"message": true, "detail": true, "error": true, "errors": true,
	"code": true, "status": true, "success": true, "data": true,
	"request_id": true,
}

// normalizeError builds an APIError from a non-2xx response. The server
// message wins, then field errors, then the HTTP status text.
func normalizeError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = firstString(payload, "message", "detail")
		if apiErr.Message == "" {
			switch v := payload["error"].(type) {
			case string:
				apiErr.Message = v
			case map[string]interface{}:
				apiErr.Message = firstString(v, "message", "detail")
			}
		}
		apiErr.Fields = fieldErrors(payload)
		if apiErr.Message == "" && len(apiErr.Fields) > 0 {
			keys := make([]string, 0, len(apiErr.Fields))
			for k := range apiErr.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			k := keys[0]
			if k == "non_field_errors" {
				apiErr.Message = apiErr.Fields[k]
			} else {
				apiErr.Message = k + ": " + apiErr.Fields[k]
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		apiErr.Message = text
	}

	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed: %d %s", status, http.StatusText(status))
	}
	return apiErr
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// fieldErrors collects {"field": ["msg", ...]} style errors, either at the
// top level or nested under "errors".
func fieldErrors(payload map[string]interface{}) map[string]string {
	source, top := payload, true
	if nested, ok := payload["errors"].(map[string]interface{}); ok {
		source, top = nested, false
	}
	fields := map[string]string{}
	for k, v := range source {
		if top && envelopeKeys[k] {
			continue
		}
		switch val := v.(type) {
		case []interface{}:
			if len(val) > 0 {
				fields[k] = cast.ToString(val[0])
			}
		case string:
			if !top {
				fields[k] = val
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary
