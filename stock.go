package facegrab

import (
	"net/url"
	"strings"
)

// StockDomains are stock photo sites whose previews carry watermarks and
// whose images are licensed per use.
var StockDomains = []string{
	"shutterstock",
	"gettyimages",
	"istockphoto",
	"adobestock",
	"depositphotos",
	"dreamstime",
	"123rf",
	"alamy",
	"bigstockphoto",
	"stocksy",
	"eyeem",
	"pond5",
	"thinkstockphotos",
	"canstockphoto",
	"masterfile",
	"superstock",
	"agefotostock",
	"colourbox",
	"photodune",
	"yayimages",
	"vectorstock",
	"freepik",
	"canva.", // trailing dot avoids matching "canvas"
	"clipartof",
	"featurepics",
	"rfclipart",
}

// StockURLPatterns are URL path segments that indicate stock photo pages.
var StockURLPatterns = []string{
	"/stock-photo",
	"/stock-image",
	"/editorial-image",
	"/premium-photo",
}

// IsStockURL reports whether rawURL is hosted on a stock domain (built-in or
// extra, substring match on the host) or has a stock path pattern.
func IsStockURL(rawURL string, extra []string) bool {
	if rawURL == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Host)
	if host != "" {
		for _, d := range StockDomains {
			if strings.Contains(host, d) {
				return true
			}
		}
		for _, d := range extra {
			if d != "" && strings.Contains(host, strings.ToLower(d)) {
				return true
			}
		}
	}
	path := strings.ToLower(parsed.Path)
	for _, p := range StockURLPatterns {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}
