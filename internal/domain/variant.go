package domain

import "strings"

// UpsellMode selects how the upgrade call to action is presented.
type UpsellMode string

const (
	UpsellModal        UpsellMode = "modal"
	UpsellExternalLink UpsellMode = "external-link"
)

// Variant enumerates the differences between page revisions.
type Variant struct {
	Upsell          UpsellMode
	UpgradeURL      string
	IncludeReferral bool
	IncludeEmail    bool
}

// ParseUpsellMode normalizes a configured mode, defaulting to the modal flow.
func ParseUpsellMode(raw string) (UpsellMode, bool) {
	switch UpsellMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", UpsellModal:
		return UpsellModal, true
	case UpsellExternalLink:
		return UpsellExternalLink, true
	default:
		return "", false
	}
}

// PricingPlan is one QR payment option listed in the pricing modal.
type PricingPlan struct {
	Key   string
	Label string
	Price string
	QR    string
}

// DefaultPricingPlans lists the QR passes offered by the pricing modal.
var DefaultPricingPlans = []PricingPlan{
	{Key: "pro_7d", Label: "7-Day Pass", Price: "₹499", QR: "/static/scan0.png"},
	{Key: "pro_1m", Label: "1 Month", Price: "₹999", QR: "/static/scan1.png"},
	{Key: "pro_3m", Label: "3 Months", Price: "₹2,499", QR: "/static/scan2.png"},
}
