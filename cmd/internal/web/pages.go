package web

import "strings"

// PageID identifies one of the site's marketing pages. The set is closed:
// anything else resolves to the home page.
type PageID string

const (
	PageHome     PageID = "home"
	PageFeatures PageID = "features"
	PagePricing  PageID = "pricing"
	PageAbout    PageID = "about"
	PageContact  PageID = "contact"
)

type pageInfo struct {
	ID    PageID
	Title string
	Path  string
}

// navPages is the ordered navigation bar.
var navPages = []pageInfo{
	{ID: PageHome, Title: "Home", Path: "/"},
	{ID: PageFeatures, Title: "Features", Path: "/features"},
	{ID: PagePricing, Title: "Pricing", Path: "/pricing"},
	{ID: PageAbout, Title: "About", Path: "/about"},
	{ID: PageContact, Title: "Contact", Path: "/contact"},
}

// ResolvePage maps a request path to a page id, falling back to home for
// anything outside the closed set.
func ResolvePage(path string) PageID {
	switch strings.TrimSuffix(path, "/") {
	case "", "/":
		return PageHome
	case "/features":
		return PageFeatures
	case "/pricing":
		return PagePricing
	case "/about":
		return PageAbout
	case "/contact":
		return PageContact
	default:
		return PageHome
	}
}

func titleFor(id PageID) string {
	for _, p := range navPages {
		if p.ID == id {
			return p.Title
		}
	}
	return "Home"
}
