package facegrab

import (
	"bytes"
	"strings"

	"github.com/bep/imagemeta"
)

// ImageMetadata holds the rights-related EXIF, IPTC and XMP fields of an
// image. It is attached to accepted images and drives the stock check.
type ImageMetadata struct {
	Artist       string // EXIF Artist
	Copyright    string // EXIF Copyright
	Credit       string // IPTC Credit
	Source       string // IPTC Source
	Byline       string // IPTC Byline
	Notice       string // IPTC CopyrightNotice
	Rights       string // XMP dc:rights
	Creator      string // XMP dc:creator
	WebStatement string // XMP xmpRights:WebStatement
}

// fields lists the free-text values in a fixed order.
func (m *ImageMetadata) fields() []string {
	return []string{
		m.Copyright,
		m.Artist,
		m.Notice,
		m.Credit,
		m.Source,
		m.Byline,
		m.Rights,
		m.Creator,
		m.WebStatement,
	}
}

// stockMetadataKeywords are substrings that indicate a stock-photo agency when
// found (case-insensitive) in any metadata field.
var stockMetadataKeywords = []string{
	"shutterstock",
	"gettyimages",
	"getty images",
	"istockphoto",
	"istock",
	"alamy",
	"depositphotos",
	"dreamstime",
	"123rf",
	"adobestock",
	"adobe stock",
	"bigstockphoto",
	"stocksy",
	"pond5",
	"masterfile",
	"superstock",
	"agefotostock",
	"age fotostock",
	"colourbox",
	"yayimages",
	"vectorstock",
	"freepik",
	"canstockphoto",
}

// IsStockByMetadata reports whether the metadata names a known stock agency.
func IsStockByMetadata(meta *ImageMetadata) bool {
	return metadataStockDetail(meta) != ""
}

// metadataStockDetail returns the first field that names a stock agency.
func metadataStockDetail(meta *ImageMetadata) string {
	if meta == nil {
		return ""
	}
	for _, f := range meta.fields() {
		if f == "" {
			continue
		}
		lower := strings.ToLower(f)
		for _, kw := range stockMetadataKeywords {
			if strings.Contains(lower, kw) {
				return f
			}
		}
	}
	return ""
}

// wantedTags maps (source, tag-name) → true for every tag we care about.
var wantedTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {
		"Artist":    true,
		"Copyright": true,
	},
	imagemeta.IPTC: {
		"CopyrightNotice": true,
		"Credit":          true,
		"Byline":          true,
		"Source":          true,
	},
	imagemeta.XMP: {
		"Rights":       true,
		"Creator":      true,
		"WebStatement": true,
	},
}

// ExtractImageMetadata parses rights metadata from raw image bytes.
// Returns nil when data is empty, unparsable or carries none of the fields.
func ExtractImageMetadata(data []byte) *ImageMetadata {
	if len(data) == 0 {
		return nil
	}

	meta := &ImageMetadata{}
	found := false

	err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wantedTags[ti.Source][ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if s := tagValueString(ti.Value); s != "" && meta.set(ti.Source, ti.Tag, s) {
				found = true
			}
			return nil
		},
	})

	if err != nil || !found {
		return nil
	}
	return meta
}

// set stores s in the field for (source, tag) and reports whether the tag is known.
func (m *ImageMetadata) set(source imagemeta.Source, tag, s string) bool {
	var dst *string
	switch source {
	case imagemeta.EXIF:
		switch tag {
		case "Artist":
			dst = &m.Artist
		case "Copyright":
			dst = &m.Copyright
		}
	case imagemeta.IPTC:
		switch tag {
		case "CopyrightNotice":
			dst = &m.Notice
		case "Credit":
			dst = &m.Credit
		case "Byline":
			dst = &m.Byline
		case "Source":
			dst = &m.Source
		}
	case imagemeta.XMP:
		switch tag {
		case "Rights":
			dst = &m.Rights
		case "Creator":
			dst = &m.Creator
		case "WebStatement":
			dst = &m.WebStatement
		}
	}
	if dst == nil {
		return false
	}
	*dst = s
	return true
}

// tagValueString extracts a string from a tag value.
// XMP values may be string or []string (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
