package domain

// Lesson is one lesson of a course. The backend assigns string identifiers.
type Lesson struct {
	ID        string `json:"id,omitempty" csv:"id" form:"-"`
	CourseID  string `json:"course_id" csv:"course_id" validate:"required"`
	TitleEn   string `json:"title_en" csv:"title_en" validate:"required,max=200"`
	TitleHi   string `json:"title_hi" csv:"title_hi" validate:"max=200"`
	ContentEn string `json:"content_en" csv:"content_en" form:"markdown"`
	ContentHi string `json:"content_hi" csv:"content_hi" form:"markdown"`
	Position  int    `json:"position" csv:"position" validate:"gte=0"`
	VideoURL  string `json:"video_url,omitempty" csv:"video_url" validate:"omitempty,url"`
}

func (l Lesson) Key() string { return l.ID }
