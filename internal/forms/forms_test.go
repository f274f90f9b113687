package forms

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/resource"
)

type recordingSubmitter[T any] struct {
	creates []resource.Body
	updates map[string]resource.Body
	result  T
	err     error
}

func (r *recordingSubmitter[T]) Create(ctx context.Context, b resource.Body) (T, error) {
	r.creates = append(r.creates, b)
	return r.result, r.err
}

func (r *recordingSubmitter[T]) Update(ctx context.Context, id string, b resource.Body) (T, error) {
	if r.updates == nil {
		r.updates = map[string]resource.Body{}
	}
	r.updates[id] = b
	return r.result, r.err
}

func TestFieldsFollowDeclarationAndTags(t *testing.T) {
	fields := Fields[domain.Rajyog]()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"title_en", "title_hi", "description_en", "description_hi", "numbers", "image"}, names)
	assert.Equal(t, Field{Name: "title_en", Label: "Title (EN)", Kind: KindText, Required: true}, fields[0])
	assert.Equal(t, KindMarkdown, fields[2].Kind)
	assert.Equal(t, KindFile, fields[5].Kind)

	yp := Fields[domain.YearPrediction]()
	assert.Equal(t, KindNumber, yp[0].Kind)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Course ID", Label("course_id"))
	assert.Equal(t, "Description (HI)", Label("description_hi"))
	assert.Equal(t, "Video URL", Label("video_url"))
	assert.Equal(t, "Pada", Label("pada"))
}

func TestDraftRoundTrip(t *testing.T) {
	stock := 3
	d, err := DraftOf(domain.Product{ID: 7, NameEn: "Ruby", Price: 499.5, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "Ruby", d["name_en"])
	assert.Equal(t, "499.5", d["price"])
	assert.Equal(t, "3", d["stock"])
	assert.Equal(t, "7", d["id"])

	p, err := Decode[domain.Product](d)
	require.NoError(t, err)
	assert.Equal(t, 499.5, p.Price)
	require.NotNil(t, p.Stock)
	assert.Equal(t, 3, *p.Stock)
}

func TestDecodeLeavesEmptyPointersNil(t *testing.T) {
	p, err := Decode[domain.Product](Draft{"name_en": "Yantra", "stock": ""})
	require.NoError(t, err)
	assert.Nil(t, p.Stock)
}

func TestBindTrimsSingleLineInputsOnly(t *testing.T) {
	d := Draft{}
	d.Bind(Fields[domain.Lesson](), url.Values{
		"title_en":   {"  Intro  "},
		"content_en": {"  indented code"},
		"position":   {" 2 "},
	})
	assert.Equal(t, "Intro", d["title_en"])
	assert.Equal(t, "  indented code", d["content_en"])
	assert.Equal(t, "2", d["position"])
}

func TestValidateUsesJSONNames(t *testing.T) {
	err := Validate(domain.VastuEntrance{Direction: "X", Pada: 40, Rating: 6})
	require.Error(t, err)
	fe, ok := err.(FieldErrors)
	require.True(t, ok)
	assert.Equal(t, "Must be one of N, NE, E, SE, S, SW, W, NW", fe["direction"])
	assert.Equal(t, "Must be at most 32", fe["pada"])
	assert.Equal(t, "This field is required", fe["title_en"])
	assert.Equal(t, "Must be at most 5", fe["rating"])

	assert.NoError(t, Validate(domain.Yog{Yog: 1, TitleEn: "Shubh"}))
}

func TestSubmitBlockedByEmptyRequiredTitle(t *testing.T) {
	sub := &recordingSubmitter[domain.Rashi]{}
	e := NewEditor[domain.Rashi]()
	e.Bind(url.Values{"name_en": {"Mesh"}, "title_en": {"   "}})

	_, ok := e.Submit(context.Background(), sub)
	assert.False(t, ok)
	assert.Equal(t, "This field is required", e.Errors["title_en"])
	assert.Empty(t, sub.creates)
	assert.Equal(t, "Mesh", e.Draft["name_en"])
}

func TestSubmitRejectsUnparsableNumber(t *testing.T) {
	sub := &recordingSubmitter[domain.YearPrediction]{}
	e := NewEditor[domain.YearPrediction]()
	e.Bind(url.Values{"year": {"nine"}, "title_en": {"Nine"}, "prediction_en": {"text"}})

	_, ok := e.Submit(context.Background(), sub)
	assert.False(t, ok)
	assert.Equal(t, "Must be a number", e.Errors["year"])
	assert.Empty(t, sub.creates)
}

func TestSubmitAddResetsDraftAndSetsNotice(t *testing.T) {
	sub := &recordingSubmitter[domain.Yog]{result: domain.Yog{ID: 4, Yog: 4, TitleEn: "Shubh"}}
	e := NewEditor[domain.Yog]()
	e.Bind(url.Values{"yog": {"4"}, "title_en": {"Shubh"}})

	saved, ok := e.Submit(context.Background(), sub)
	require.True(t, ok)
	assert.Equal(t, int64(4), saved.ID)
	require.Len(t, sub.creates, 1)
	assert.False(t, sub.creates[0].IsMultipart())
	assert.NotEmpty(t, e.Notice)
	assert.Empty(t, e.Draft)
}

func TestSubmitEditUsesUpdateAndMultipartForFiles(t *testing.T) {
	sub := &recordingSubmitter[domain.Rajyog]{result: domain.Rajyog{ID: 2, TitleEn: "Raj", DescriptionEn: "d", Numbers: "4-9-2"}}
	e, err := EditorFor(domain.Rajyog{ID: 2, TitleEn: "Old", DescriptionEn: "d", Numbers: "4-9-2"})
	require.NoError(t, err)
	e.Bind(url.Values{"title_en": {"Raj"}, "description_en": {"d"}, "numbers": {"4-9-2"}},
		resource.File{Field: "image", Filename: "raj.png", Data: []byte("x")})

	_, ok := e.Submit(context.Background(), sub)
	require.True(t, ok)
	require.Contains(t, sub.updates, "2")
	assert.True(t, sub.updates["2"].IsMultipart())
	assert.Equal(t, "Raj", e.Draft["title_en"])
	assert.Nil(t, e.Files)
}

func TestSubmitSurfacesStoreError(t *testing.T) {
	sub := &recordingSubmitter[domain.Yog]{err: &resource.APIError{Status: 400, Message: "yog already exists"}}
	e := NewEditor[domain.Yog]()
	e.Bind(url.Values{"yog": {"4"}, "title_en": {"Shubh"}})

	_, ok := e.Submit(context.Background(), sub)
	assert.False(t, ok)
	assert.Equal(t, "yog already exists", e.Error)
	assert.Empty(t, e.Notice)
	assert.Equal(t, "Shubh", e.Draft["title_en"])
}

func TestPreviewIsSanitized(t *testing.T) {
	e := NewEditor[domain.Lesson]()
	e.Bind(url.Values{"content_en": {"**bold** <script>alert(1)</script>"}})
	out := string(e.Preview("content_en"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script")
}

func TestDecodeMapAndValidateFields(t *testing.T) {
	payload := map[string]interface{}{"pada": float64(12), "title_hi": "पूर्व"}
	v, err := DecodeMap[domain.VastuEntrance](payload)
	require.NoError(t, err)
	assert.Equal(t, 12, v.Pada)

	// fields not in the payload are not reported
	assert.NoError(t, ValidateFields(v, []string{"pada", "title_hi"}))

	v.Pada = 99
	err = ValidateFields(v, []string{"pada"})
	require.Error(t, err)
	assert.Equal(t, FieldErrors{"pada": "Must be at most 32"}, err)
}

func TestRulesRunAfterTags(t *testing.T) {
	sub := &recordingSubmitter[domain.Product]{}
	e := NewEditor[domain.Product]()
	e.Rules = append(e.Rules, func(p domain.Product) FieldErrors {
		if p.Stock != nil && *p.Stock < 0 {
			return FieldErrors{"stock": "Must be at least 0"}
		}
		return nil
	})
	e.Bind(url.Values{"name_en": {"Ruby"}, "stock": {"-1"}})

	_, ok := e.Submit(context.Background(), sub)
	assert.False(t, ok)
	assert.Equal(t, "Must be at least 0", e.Errors["stock"])
	assert.Empty(t, sub.creates)
}

func TestEditorForIDStartsEmpty(t *testing.T) {
	e := EditorForID[domain.Lesson]("les_01")
	assert.Equal(t, ModeEdit, e.Mode)
	assert.Equal(t, "les_01", e.ID)
	assert.Empty(t, e.Draft)
}
