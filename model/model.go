// Package model holds the canonical resource views returned by the relay.
package model

// Kind identifies the catalog entity family a request is about.
type Kind int

const (
	KindDataset Kind = iota
	KindPlatform
	KindTag
)

// String returns the lower-case resource name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDataset:
		return "dataset"
	case KindPlatform:
		return "platform"
	case KindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// EntityType returns the catalog's EntityType enum value for the kind.
func (k Kind) EntityType() string {
	switch k {
	case KindDataset:
		return "DATASET"
	case KindPlatform:
		return "DATA_PLATFORM"
	case KindTag:
		return "TAG"
	default:
		return ""
	}
}

// Kinds lists every entity kind, in declaration order.
var Kinds = []Kind{KindDataset, KindPlatform, KindTag}

// Paging is only present on search-style results.
type Paging struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Field is one column of a dataset schema.
type Field struct {
	Path   string `json:"path"`
	Type   string `json:"type"`
	Native string `json:"native"`
}

// Dataset is the flattened view of a catalog dataset.
type Dataset struct {
	ID           string        `json:"id"`
	Path         string        `json:"path"`
	Type         *string       `json:"type"`
	Name         *string       `json:"name"`
	Origin       *string       `json:"origin"`
	Platform     *string       `json:"platform"`
	PlatformType *string       `json:"platformType"`
	PlatformName *string       `json:"platformName"`
	Tags         []TagEnvelope `json:"tags"`
	Fields       []Field       `json:"fields"`
}

// Platform is the flattened view of a catalog data platform.
type Platform struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Tag is the flattened view of a catalog tag.
type Tag struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// DatasetEnvelope wraps at most one dataset. A nil Dataset means not found.
type DatasetEnvelope struct {
	Dataset *Dataset `json:"dataset"`
}

// PlatformEnvelope wraps at most one platform.
type PlatformEnvelope struct {
	Platform *Platform `json:"platform"`
}

// TagEnvelope wraps at most one tag.
type TagEnvelope struct {
	Tag *Tag `json:"tag"`
}

// Datasets is a page of dataset envelopes.
type Datasets struct {
	Data   []DatasetEnvelope `json:"data"`
	Paging *Paging           `json:"paging"`
}

// Platforms is a page of platform envelopes.
type Platforms struct {
	Data   []PlatformEnvelope `json:"data"`
	Paging *Paging            `json:"paging"`
}

// Tags is a page of tag envelopes.
type Tags struct {
	Data   []TagEnvelope `json:"data"`
	Paging *Paging       `json:"paging"`
}

// AddTag is the body of a tag association request.
type AddTag struct {
	Tag string `json:"tag"`
}

// CreateTag is the body of a tag creation request.
type CreateTag struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}
