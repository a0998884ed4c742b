package facegrab

import (
	"net/url"
	"path"
	"strings"
)

// GraphicPatterns are path substrings that mark site graphics (logos, icons,
// banners, avatars) rather than photographs.
var GraphicPatterns = []string{
	"favicon", "logo", "icon", "banner", "sprite",
	"badge", "button", "widget", "avatar", "placeholder",
	"emoji",
}

// IsGraphicURL reports whether the path of rawURL names a site graphic.
// Only the path is inspected, so a host like iconic-portraits.example does
// not match. Unparsable or path-less URLs are matched as a whole.
func IsGraphicURL(rawURL string) bool {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = path.Clean(u.Path)
	}
	p = strings.ToLower(p)
	for _, pat := range GraphicPatterns {
		if strings.Contains(p, pat) {
			return true
		}
	}
	return false
}
