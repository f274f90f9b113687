package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jyotishdesk/backoffice/internal/forms"
)

const langCookie = "lang"

var (
	supported = []language.Tag{language.English, language.Hindi}
	matcher   = language.NewMatcher(supported)
)

func init() {
	for key, hi := range hindi {
		_ = message.SetString(language.Hindi, key, hi)
	}
}

// hindi holds the interface strings shown to Hindi speaking operators.
var hindi = map[string]string{
	"Dashboard":            "डैशबोर्ड",
	"Add":                  "जोड़ें",
	"Edit":                 "संपादित करें",
	"Delete":               "हटाएं",
	"Save":                 "सहेजें",
	"Cancel":               "रद्द करें",
	"Search":               "खोजें",
	"Retry":                "पुनः प्रयास करें",
	"Previous":             "पिछला",
	"Next":                 "अगला",
	"Loading":              "लोड हो रहा है",
	"No records":           "कोई रिकॉर्ड नहीं",
	"Logout":               "लॉग आउट",
	"Login":                "लॉग इन",
	"Export":               "निर्यात",
	"Preview":              "पूर्वावलोकन",
	"Analytics":            "विश्लेषण",
	"Operation log":        "संचालन लॉग",
	"Are you sure?":        "क्या आप निश्चित हैं?",
	"Refresh":              "ताज़ा करें",
	"Operator":             "संचालक",
	"Token":                "टोकन",
	"Page":                 "पृष्ठ",
	"Total":                "कुल",
	"Details":              "विवरण",
	"Created successfully": "सफलतापूर्वक बनाया गया",
	"Saved successfully":   "सफलतापूर्वक सहेजा गया",
	"Deleted successfully": "सफलतापूर्वक हटाया गया",
}

// NavItem is one entry of the side navigation.
type NavItem struct {
	Title  string
	Href   string
	Active bool
}

// Page is the data every HTML view renders with. Body holds the view
// specific model.
type Page struct {
	Title     string
	Lang      string
	Operator  string
	Notice    string
	Error     string
	RequestID string
	Nav       []NavItem
	Body      interface{}

	printer *message.Printer
}

// NewPage prepares the page chrome for c.
func NewPage(c echo.Context, title string, body interface{}) Page {
	tag := Language(c)
	return Page{
		Title:     title,
		Lang:      LangCode(tag),
		RequestID: GetRequestID(c),
		Body:      body,
		printer:   message.NewPrinter(language.Make(LangCode(tag))),
	}
}

// T translates an interface string.
func (p Page) T(key string) string {
	if p.printer == nil {
		return key
	}
	return p.printer.Sprintf(key)
}

// DismissMs is the delay after which a notice hides itself.
func (p Page) DismissMs() int64 {
	return forms.NoticeDismiss.Milliseconds()
}

// Language picks English or Hindi from ?lang=, the lang cookie and
// Accept-Language, in that order. An explicit ?lang= is remembered.
func Language(c echo.Context) language.Tag {
	req := c.Request()
	explicit := c.QueryParam("lang")
	var cookie string
	if ck, err := req.Cookie(langCookie); err == nil {
		cookie = ck.Value
	}
	tag, _ := language.MatchStrings(matcher, explicit, cookie, req.Header.Get("Accept-Language"))
	if explicit != "" {
		c.SetCookie(&http.Cookie{Name: langCookie, Value: LangCode(tag), Path: "/", MaxAge: 86400 * 365})
	}
	return tag
}

// LangCode returns "hi" for Hindi and "en" otherwise.
func LangCode(tag language.Tag) string {
	if base, _ := tag.Base(); base.String() == "hi" {
		return "hi"
	}
	return "en"
}
