// Package forms holds the editor side of the admin surface: drafts bound from
// submitted values, field validation before dispatch, and submission through
// a resource store.
package forms

import (
	"reflect"
	"strings"
	"sync"
)

// Kind selects the input rendered for a field.
type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindMarkdown Kind = "markdown"
	KindFile     Kind = "file"
)

// Field describes one editable field of an entity.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
}

var fieldCache sync.Map // reflect.Type -> []Field

// Fields lists the editable fields of T in declaration order. Fields tagged
// form:"-" are skipped.
func Fields[T any]() []Field {
	var zero T
	return FieldsOf(reflect.TypeOf(zero))
}

// FieldsOf is Fields for a reflect.Type.
func FieldsOf(t reflect.Type) []Field {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Field)
	}
	var out []Field
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := jsonName(f)
			formTag := f.Tag.Get("form")
			if name == "" || formTag == "-" {
				continue
			}
			field := Field{
				Name:     name,
				Label:    Label(name),
				Kind:     Kind(formTag),
				Required: hasRule(f.Tag.Get("validate"), "required"),
			}
			if field.Kind == "" {
				field.Kind = kindOf(f.Type)
			}
			out = append(out, field)
		}
	}
	fieldCache.Store(t, out)
	return out
}

func kindOf(t reflect.Type) Kind {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindNumber
	}
	return KindText
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func hasRule(tag, rule string) bool {
	for _, r := range strings.Split(tag, ",") {
		if r == rule {
			return true
		}
	}
	return false
}

// Label turns a json field name into a column heading:
// "title_en" -> "Title (EN)", "course_id" -> "Course ID".
func Label(name string) string {
	parts := strings.Split(name, "_")
	suffix := ""
	if n := len(parts); n > 1 && (parts[n-1] == "en" || parts[n-1] == "hi") {
		suffix = " (" + strings.ToUpper(parts[n-1]) + ")"
		parts = parts[:n-1]
	}
	for i, p := range parts {
		switch p {
		case "id", "url":
			parts[i] = strings.ToUpper(p)
		default:
			if p != "" {
				parts[i] = strings.ToUpper(p[:1]) + p[1:]
			}
		}
	}
	return strings.Join(parts, " ") + suffix
}
