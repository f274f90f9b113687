package domain

import "strconv"

// Rajyog is a Lo Shu grid combination that forms a raj yog.
type Rajyog struct {
	ID            int64  `json:"id,omitempty" csv:"id" form:"-"`
	TitleEn       string `json:"title_en" csv:"title_en" validate:"required,max=200"`
	TitleHi       string `json:"title_hi" csv:"title_hi" validate:"max=200"`
	DescriptionEn string `json:"description_en" csv:"description_en" validate:"required" form:"markdown"`
	DescriptionHi string `json:"description_hi" csv:"description_hi" form:"markdown"`
	Numbers       string `json:"numbers" csv:"numbers" validate:"required"` // e.g. "4-9-2"
	Image         string `json:"image,omitempty" csv:"image" form:"file"`
}

func (r Rajyog) Key() string { return strconv.FormatInt(r.ID, 10) }

// YearPrediction is the reading for a personal year number.
type YearPrediction struct {
	ID           int64  `json:"id,omitempty" csv:"id" form:"-"`
	Year         int    `json:"year" csv:"year" validate:"required,min=1,max=9"`
	TitleEn      string `json:"title_en" csv:"title_en" validate:"required,max=200"`
	TitleHi      string `json:"title_hi" csv:"title_hi" validate:"max=200"`
	PredictionEn string `json:"prediction_en" csv:"prediction_en" validate:"required" form:"markdown"`
	PredictionHi string `json:"prediction_hi" csv:"prediction_hi" form:"markdown"`
}

func (y YearPrediction) Key() string { return strconv.FormatInt(y.ID, 10) }

// Yog is a numerology yog keyed by its number.
type Yog struct {
	ID            int64  `json:"id,omitempty" csv:"id" form:"-"`
	Yog           int    `json:"yog" csv:"yog" validate:"required,min=1"`
	TitleEn       string `json:"title_en" csv:"title_en" validate:"required,max=200"`
	TitleHi       string `json:"title_hi" csv:"title_hi" validate:"max=200"`
	DescriptionEn string `json:"description_en" csv:"description_en" form:"markdown"`
	DescriptionHi string `json:"description_hi" csv:"description_hi" form:"markdown"`
}

func (y Yog) Key() string { return strconv.FormatInt(y.ID, 10) }
