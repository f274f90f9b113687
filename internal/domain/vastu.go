package domain

import "strconv"

// VastuEntrance is the meaning of a main entrance placed on one of the
// 32 padas of the vastu grid.
type VastuEntrance struct {
	ID        int64   `json:"id,omitempty" csv:"id" form:"-"`
	Direction string  `json:"direction" csv:"direction" validate:"required,oneof=N NE E SE S SW W NW"`
	Pada      int     `json:"pada" csv:"pada" validate:"required,min=1,max=32"`
	TitleEn   string  `json:"title_en" csv:"title_en" validate:"required,max=200"`
	TitleHi   string  `json:"title_hi" csv:"title_hi" validate:"max=200"`
	MeaningEn string  `json:"meaning_en" csv:"meaning_en" validate:"required" form:"markdown"`
	MeaningHi string  `json:"meaning_hi" csv:"meaning_hi" form:"markdown"`
	RemedyEn  string  `json:"remedy_en" csv:"remedy_en" form:"markdown"`
	RemedyHi  string  `json:"remedy_hi" csv:"remedy_hi" form:"markdown"`
	Rating    float64 `json:"rating" csv:"rating" validate:"gte=0,lte=5"`
}

func (v VastuEntrance) Key() string { return strconv.FormatInt(v.ID, 10) }
