package domain

import "strconv"

// Rashi is one of the twelve zodiac signs with its localized description.
type Rashi struct {
	ID            int64  `json:"id,omitempty" csv:"id" form:"-"`
	NameEn        string `json:"name_en" csv:"name_en" validate:"required,max=100"`
	NameHi        string `json:"name_hi" csv:"name_hi" validate:"max=100"`
	TitleEn       string `json:"title_en" csv:"title_en" validate:"required,max=200"`
	TitleHi       string `json:"title_hi" csv:"title_hi" validate:"max=200"`
	DescriptionEn string `json:"description_en" csv:"description_en" form:"markdown"`
	DescriptionHi string `json:"description_hi" csv:"description_hi" form:"markdown"`
	Symbol        string `json:"symbol" csv:"symbol" validate:"max=20"`
	Element       string `json:"element" csv:"element" validate:"omitempty,oneof=fire earth air water"`
	Lord          string `json:"lord" csv:"lord"`
}

func (r Rashi) Key() string { return strconv.FormatInt(r.ID, 10) }
