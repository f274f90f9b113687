package domain

import "strconv"

// Product is a catalog item sold through the app (gemstones, yantras, reports).
type Product struct {
	ID            int64   `json:"id,omitempty" csv:"id" form:"-"`
	NameEn        string  `json:"name_en" csv:"name_en" validate:"required,max=200"`
	NameHi        string  `json:"name_hi" csv:"name_hi" validate:"max=200"`
	DescriptionEn string  `json:"description_en" csv:"description_en" form:"markdown"`
	DescriptionHi string  `json:"description_hi" csv:"description_hi" form:"markdown"`
	Price         float64 `json:"price" csv:"price" validate:"gte=0"`
	Rating        float64 `json:"rating" csv:"rating" validate:"gte=0,lte=5"`
	Stock         *int    `json:"stock,omitempty" csv:"stock"`             // nil for digital products
	Image         string  `json:"image,omitempty" csv:"image" form:"file"` // URL assigned by the backend
}

func (p Product) Key() string { return strconv.FormatInt(p.ID, 10) }
