package forms

import (
	"context"
	"html/template"
	"net/url"
	"time"

	"github.com/jyotishdesk/backoffice/internal/markdown"
	"github.com/jyotishdesk/backoffice/internal/resource"
)

// NoticeDismiss is how long a success notice stays visible.
const NoticeDismiss = 2500 * time.Millisecond

type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// Submitter is the store side of an editor; *resource.Store[T] implements it.
type Submitter[T any] interface {
	Create(ctx context.Context, b resource.Body) (T, error)
	Update(ctx context.Context, id string, b resource.Body) (T, error)
}

// Rule is a check that validate tags cannot express.
type Rule[T any] func(v T) FieldErrors

// Editor is the add/edit form of one entity type.
type Editor[T resource.Entity] struct {
	Mode   Mode
	ID     string
	Fields []Field
	Draft  Draft
	Errors FieldErrors
	Files  []resource.File
	Rules  []Rule[T]

	// Notice is set after a successful submit; Error holds the store error
	// of a failed one.
	Notice string
	Error  string
}

// NewEditor returns an add editor with an empty draft.
func NewEditor[T resource.Entity]() *Editor[T] {
	return &Editor[T]{
		Mode:   ModeAdd,
		Fields: Fields[T](),
		Draft:  Draft{},
		Errors: FieldErrors{},
	}
}

// EditorFor returns an edit editor initialised from a fetched entity.
func EditorFor[T resource.Entity](v T) (*Editor[T], error) {
	d, err := DraftOf(v)
	if err != nil {
		return nil, err
	}
	return &Editor[T]{
		Mode:   ModeEdit,
		ID:     v.Key(),
		Fields: Fields[T](),
		Draft:  d,
		Errors: FieldErrors{},
	}, nil
}

// EditorForID returns an edit editor for id with an empty draft, to be
// filled by Bind.
func EditorForID[T resource.Entity](id string) *Editor[T] {
	return &Editor[T]{
		Mode:   ModeEdit,
		ID:     id,
		Fields: Fields[T](),
		Draft:  Draft{},
		Errors: FieldErrors{},
	}
}

// Bind copies submitted form values and attachments into the editor.
func (e *Editor[T]) Bind(values url.Values, files ...resource.File) {
	e.Draft.Bind(e.Fields, values)
	e.Files = files
}

// Preview renders a markdown field of the draft.
func (e *Editor[T]) Preview(name string) template.HTML {
	return markdown.Render(e.Draft.Get(name))
}

// Check validates the draft without dispatching anything.
func (e *Editor[T]) Check() (T, bool) {
	e.Errors = checkNumbers(e.Fields, e.Draft)
	v, err := Decode[T](e.Draft)
	if err != nil {
		if len(e.Errors) == 0 {
			e.Error = err.Error()
		}
		return v, false
	}
	if err := Validate(v); err != nil {
		if fe, ok := err.(FieldErrors); ok {
			for k, msg := range fe {
				if !e.Errors.Has(k) {
					e.Errors[k] = msg
				}
			}
		} else {
			e.Error = err.Error()
		}
	}
	for _, rule := range e.Rules {
		for k, msg := range rule(v) {
			if !e.Errors.Has(k) {
				e.Errors[k] = msg
			}
		}
	}
	return v, len(e.Errors) == 0 && e.Error == ""
}

// Submit validates the draft and, when it passes, creates or updates the
// entity through s. Nothing is dispatched while a field is invalid.
func (e *Editor[T]) Submit(ctx context.Context, s Submitter[T]) (T, bool) {
	e.Notice, e.Error = "", ""
	v, valid := e.Check()
	if !valid {
		return v, false
	}

	body := resource.JSON(v)
	if len(e.Files) > 0 {
		body = resource.Multipart(v, e.Files...)
	}

	var (
		saved T
		err   error
	)
	if e.Mode == ModeEdit {
		saved, err = s.Update(ctx, e.ID, body)
	} else {
		saved, err = s.Create(ctx, body)
	}
	if err != nil {
		e.Error = resource.ErrorMessage(err)
		return saved, false
	}

	e.Files = nil
	if e.Mode == ModeAdd {
		e.Notice = "Created successfully"
		e.Draft = Draft{}
	} else {
		e.Notice = "Saved successfully"
		if d, err := DraftOf(saved); err == nil {
			e.Draft = d
		}
	}
	return saved, true
}
