package facegrab

import (
	"testing"
)

func TestIsStockURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		url   string
		extra []string
		want  bool
	}{
		{
			name: "stock domain",
			url:  "https://www.shutterstock.com/image.jpg",
			want: true,
		},
		{
			name: "stock domain on cdn subdomain",
			url:  "https://media.gettyimages.com/id/123/photo.jpg",
			want: true,
		},
		{
			name: "stock path pattern on neutral host",
			url:  "https://example.com/stock-photo/woman-smiling-123",
			want: true,
		},
		{
			name: "canvas does not match canva",
			url:  "https://canvas.example.org/portrait.jpg",
			want: false,
		},
		{
			name: "ordinary host",
			url:  "https://upload.wikimedia.org/commons/a/ab/Portrait.jpg",
			want: false,
		},
		{
			name:  "extra blocked domain",
			url:   "https://img.pricey.example/face.jpg",
			extra: []string{"Pricey.Example"},
			want:  true,
		},
		{
			name:  "empty extra entry ignored",
			url:   "https://example.com/face.jpg",
			extra: []string{""},
			want:  false,
		},
		{
			name: "empty url",
			url:  "",
			want: false,
		},
		{
			name: "malformed url",
			url:  "://bad",
			want: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsStockURL(tc.url, tc.extra); got != tc.want {
				t.Errorf("IsStockURL(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestIsGraphicURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/static/favicon.ico", true},
		{"https://example.com/img/Company-LOGO.png", true},
		{"https://example.com/ads/banner_728x90.jpg", true},
		{"https://example.com/u/avatar/42.jpg", true},
		{"https://example.com/img/placeholder.svg", true},
		{"https://example.com/photos/portrait-2019.jpg", false},
		{"https://iconic-portraits.example/people/ada.jpeg", false},
		{"https://example.com/people/ada.jpeg?ref=logo", false},
	}
	for _, tt := range tests {
		if got := IsGraphicURL(tt.url); got != tt.want {
			t.Errorf("IsGraphicURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
