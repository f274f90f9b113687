package domain

var Tables = []interface{}{
	// System
	&SysOprLog{},
}

// Resource names used for routing, store topics and operation log actions.
const (
	ResRashis          = "rashis"
	ResRajyogs         = "rajyogs"
	ResYearPredictions = "year-predictions"
	ResVastuEntrances  = "vastu-entrances"
	ResProducts        = "products"
	ResYogs            = "yogs"
	ResAnalytics       = "analytics"
	ResLessons         = "lessons"
)

// ResourcePaths maps each resource to its collection path on the content
// backend. Collection paths keep the trailing slash.
var ResourcePaths = map[string]string{
	ResRashis:          "/content/rashis/",
	ResRajyogs:         "/content/numerology/loshu-rajyogs/",
	ResYearPredictions: "/content/numerology/year-predictions/",
	ResVastuEntrances:  "/content/vastu/entrance/analysis/",
	ResProducts:        "/products/",
	ResYogs:            "/numerology/yogs/",
	ResAnalytics:       "/users/analytics/",
	ResLessons:         "/courses/lessons/",
}
