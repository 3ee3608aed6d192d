package normalize

import (
	"bytes"
	"encoding/json"
)

// The raw* types mirror the selections in the operation fragments. Every
// nested object is a pointer so that a missing or null value decodes to nil
// instead of failing.

type rawTagProperties struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// rawTag accepts both a bare tag entity and a tag wrapped as {tag: {...}}.
// Wrapped records whether the tag key was present, so that {tag: null}
// stays distinguishable from a bare tag.
type rawTag struct {
	Urn        string            `json:"urn"`
	Properties *rawTagProperties `json:"properties"`
	Tag        *rawTag           `json:"tag"`
	Wrapped    bool              `json:"-"`
}

func (t *rawTag) UnmarshalJSON(data []byte) error {
	type plain rawTag
	var aux struct {
		plain
		Tag json.RawMessage `json:"tag"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*t = rawTag(aux.plain)
	if aux.Tag == nil {
		return nil
	}
	t.Wrapped = true
	if bytes.Equal(bytes.TrimSpace(aux.Tag), []byte("null")) {
		return nil
	}
	t.Tag = new(rawTag)
	return json.Unmarshal(aux.Tag, t.Tag)
}

type rawPlatformProperties struct {
	Type *string `json:"type"`
	Name *string `json:"name"`
}

type rawPlatform struct {
	Urn        string                 `json:"urn"`
	Name       *string                `json:"name"`
	Properties *rawPlatformProperties `json:"properties"`
}

type rawDatasetProperties struct {
	Name   *string `json:"name"`
	Origin *string `json:"origin"`
}

type rawField struct {
	Path   string `json:"path"`
	Type   string `json:"type"`
	Native string `json:"native"`
}

type rawSchema struct {
	Fields []rawField `json:"fields"`
}

type rawSubTypes struct {
	Names []string `json:"names"`
}

type rawTagAssociations struct {
	Tags []*rawTag `json:"tags"`
}

type rawDataset struct {
	Urn        string                `json:"urn"`
	Name       string                `json:"name"`
	Properties *rawDatasetProperties `json:"properties"`
	Platform   *rawPlatform          `json:"platform"`
	Schema     *rawSchema            `json:"schema"`
	SubTypes   *rawSubTypes          `json:"subTypes"`
	Tags       *rawTagAssociations   `json:"tags"`
}

// rawEntry is one element of a search result or recommendation module.
type rawEntry struct {
	Entity json.RawMessage `json:"entity"`
}

type rawModule struct {
	ModuleID string     `json:"moduleId"`
	Title    string     `json:"title"`
	Entities []rawEntry `json:"entities"`
}

// rawResults covers the three listing shapes: search results with paging,
// autocomplete entity lists and recommendation modules. Entities stays raw
// until __typename says which of the first two it is.
type rawResults struct {
	Typename string          `json:"__typename"`
	Total    int             `json:"total"`
	Count    int             `json:"count"`
	Start    int             `json:"start"`
	Entities json.RawMessage `json:"entities"`
	Modules  []rawModule     `json:"modules"`
}

type rawMutation struct {
	Success *bool `json:"success"`
}
