package adminapi

import (
	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/forms"
	"github.com/jyotishdesk/backoffice/internal/webserver"
)

// productRules holds the product checks the validate tags cannot express.
var productRules = []forms.Rule[domain.Product]{
	func(p domain.Product) forms.FieldErrors {
		if p.Stock != nil && *p.Stock < 0 {
			return forms.FieldErrors{"stock": "Must be at least 0"}
		}
		return nil
	},
}

// registerProductRoutes registers the product catalog views and CRUD endpoints
func registerProductRoutes(srv *webserver.Server) {
	registerResource(srv, resourceDef[domain.Product]{
		Name:  domain.ResProducts,
		Rules: productRules,
	})
}
