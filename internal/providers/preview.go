// Package providers builds the service-provider preview shown when the
// interview transitions into the implementation phase.
package providers

import (
	"fmt"
	"strings"

	"github.com/founderport/angel/internal/domain"
)

// Provider is one entry in the preview.
type Provider struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Local       bool   `json:"local"`
}

// Static catalog keyed by category. Local entries are composed per request
// so they can name the resolved location.
var catalog = map[string][]Provider{
	"legal": {
		{Name: "LegalZoom", Type: "Online Legal Services", Description: "Comprehensive online legal services for business formation"},
		{Name: "Rocket Lawyer", Type: "Online Legal Platform", Description: "Affordable legal services and document templates"},
	},
	"financial": {
		{Name: "QuickBooks", Type: "Accounting Software", Description: "Leading accounting software for small businesses"},
		{Name: "Xero", Type: "Cloud Accounting", Description: "Modern cloud-based accounting platform"},
	},
	"marketing": {
		{Name: "HubSpot", Type: "Marketing Platform", Description: "All-in-one marketing, sales, and service platform"},
		{Name: "Mailchimp", Type: "Email Marketing", Description: "Email marketing and automation platform"},
	},
	"technology": {
		{Name: "Shopify", Type: "E-commerce Platform", Description: "Complete e-commerce solution for online stores"},
		{Name: "Squarespace", Type: "Website Builder", Description: "Website building and hosting platform"},
	},
}

// Preview assembles providers relevant to the business context. The result
// always has at least three entries, at least one of them local to the
// resolved location.
func Preview(businessContext map[string]string) []Provider {
	industry := strings.ToLower(businessContext[domain.SlotIndustry])
	businessType := strings.ToLower(businessContext[domain.SlotBusinessType])
	location := businessContext[domain.SlotLocation]
	if location == "" {
		location = domain.DefaultContext[domain.SlotLocation]
	}

	out := []Provider{catalog["legal"][0], catalog["financial"][0]}

	switch {
	case strings.Contains(industry, "tech"), strings.Contains(industry, "software"),
		strings.Contains(industry, "retail"), strings.Contains(industry, "ecommerce"):
		out = append(out, catalog["technology"][0])
	case strings.Contains(businessType, "service"), strings.Contains(businessType, "consulting"):
		out = append(out, catalog["marketing"][0])
	}

	out = append(out, Provider{
		Name:        fmt.Sprintf("Local Business Attorney - %s", location),
		Type:        "Local Legal Services",
		Description: fmt.Sprintf("Personalized legal guidance for business formation in %s", location),
		Local:       true,
	})

	if len(out) < 4 {
		out = append(out, Provider{
			Name:        fmt.Sprintf("Local CPA - %s", location),
			Type:        "Local Accounting Services",
			Description: fmt.Sprintf("Personalized accounting and tax services in %s", location),
			Local:       true,
		})
	}
	return out
}
