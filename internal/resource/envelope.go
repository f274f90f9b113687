package resource

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Pagination describes one page of a collection.
type Pagination struct {
	TotalPages  int `json:"totalPages"`
	TotalCount  int `json:"totalCount"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	// CountKnown is false when the server sent no total and TotalCount is
	// only the length of this page.
	CountKnown bool `json:"-"`
}

// Page is one normalized list response.
type Page[T any] struct {
	Results    []T        `json:"results"`
	Pagination Pagination `json:"pagination"`
}

type rawObject map[string]jsoniter.RawMessage

// decodeList unwraps the list envelopes the backend uses:
//
//	{"data": {"results": [...], "pagination": {...}}}
//	{"data": [...]}
//	{"results": [...], "count": 10}
//	[...]
//
// Missing pagination fields fall back to the requested page and size. A
// count without total_pages yields ceil(count/page_size) pages.
func decodeList[T any](body []byte, page, pageSize int) (Page[T], error) {
	var (
		out        Page[T]
		resultsRaw jsoniter.RawMessage
		meta       = map[string]interface{}{}
	)

	trimmed := bytes.TrimSpace(body)
	switch {
	case len(trimmed) == 0:
	case trimmed[0] == '[':
		resultsRaw = trimmed
	case trimmed[0] == '{':
		var root rawObject
		if err := json.Unmarshal(trimmed, &root); err != nil {
			return out, errors.Wrap(err, "decode list envelope")
		}
		container := root
		if data := bytes.TrimSpace(root["data"]); len(data) > 0 {
			switch data[0] {
			case '[':
				resultsRaw = data
			case '{':
				var inner rawObject
				if err := json.Unmarshal(data, &inner); err != nil {
					return out, errors.Wrap(err, "decode list data")
				}
				container = inner
			}
		}
		if resultsRaw == nil {
			for _, key := range []string{"results", "items"} {
				if r, ok := container[key]; ok {
					resultsRaw = r
					break
				}
			}
		}
		// DRF style count next to results
		if c, ok := container["count"]; ok {
			meta["count"] = string(c)
		}
		for _, obj := range []rawObject{root, container} {
			for _, key := range []string{"pagination", "meta"} {
				if p, ok := obj[key]; ok {
					var m map[string]interface{}
					if err := json.Unmarshal(p, &m); err == nil {
						for k, v := range m {
							meta[k] = v
						}
					}
				}
			}
		}
	default:
		return out, errors.Errorf("unexpected list response: %.40q", trimmed)
	}

	if len(resultsRaw) > 0 && !bytes.Equal(bytes.TrimSpace(resultsRaw), []byte("null")) {
		if err := json.Unmarshal(resultsRaw, &out.Results); err != nil {
			return out, errors.Wrap(err, "decode list results")
		}
	}
	if out.Results == nil {
		out.Results = []T{}
	}

	count, countKnown := lookupInt(meta, "count", "total_count", "totalCount", "total")
	if !countKnown {
		count = len(out.Results)
	}
	out.Pagination = Pagination{
		TotalCount:  count,
		CurrentPage: metaInt(meta, page, "current_page", "currentPage", "page"),
		PageSize:    metaInt(meta, pageSize, "page_size", "pageSize", "limit"),
		CountKnown:  countKnown,
	}
	if pages, ok := lookupInt(meta, "total_pages", "totalPages", "pages"); ok {
		out.Pagination.TotalPages = pages
	} else if countKnown && out.Pagination.PageSize > 0 {
		out.Pagination.TotalPages = (count + out.Pagination.PageSize - 1) / out.Pagination.PageSize
	}
	if out.Pagination.TotalPages < 1 {
		out.Pagination.TotalPages = 1
	}
	return out, nil
}

func lookupInt(meta map[string]interface{}, keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := meta[k]
		if !ok || v == nil {
			continue
		}
		if i, err := cast.ToIntE(v); err == nil {
			return i, true
		}
	}
	return 0, false
}

func metaInt(meta map[string]interface{}, def int, keys ...string) int {
	if i, ok := lookupInt(meta, keys...); ok {
		return i
	}
	return def
}

// decodeOne accepts a bare entity or {"data": entity}. An object carrying
// its own "id" is always treated as the entity itself.
func decodeOne[T any](body []byte) (T, error) {
	var out T
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return out, errors.New("empty response body")
	}
	if trimmed[0] == '{' {
		var root rawObject
		if err := json.Unmarshal(trimmed, &root); err != nil {
			return out, errors.Wrap(err, "decode entity envelope")
		}
		if data, ok := root["data"]; ok {
			if _, hasID := root["id"]; !hasID {
				if d := bytes.TrimSpace(data); len(d) > 0 && d[0] == '{' {
					trimmed = d
				}
			}
		}
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, errors.Wrap(err, "decode entity")
	}
	return out, nil
}
