// Package ingest creates and deletes tags through the catalog's rest.li
// entities endpoint, which takes metadata snapshots rather than GraphQL.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"compendium/catalog-relay/gateway"
	"compendium/catalog-relay/internal/util"
	"compendium/catalog-relay/model"
)

const (
	TagSnapshotType   = "com.linkedin.metadata.snapshot.TagSnapshot"
	TagPropertiesType = "com.linkedin.tag.TagProperties"
)

var ErrInvalidTag = errors.New("invalid tag")

// Poster sends one payload to the ingest endpoint.
type Poster interface {
	Ingest(ctx context.Context, action string, payload interface{}) error
}

// Snapshot is the rest.li ingest payload for a single entity.
type Snapshot struct {
	Entity SnapshotEntity `json:"entity"`
}

type SnapshotEntity struct {
	Value map[string]TagSnapshot `json:"value"`
}

type TagSnapshot struct {
	Urn     string                 `json:"urn"`
	Aspects []map[string]TagAspect `json:"aspects"`
}

// TagAspect carries the tag properties aspect.
type TagAspect struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Deletion is the rest.li delete payload.
type Deletion struct {
	Urn string `json:"urn"`
}

// TagSnapshotPayload builds the snapshot that creates or overwrites a tag.
func TagSnapshotPayload(urn string, req model.CreateTag) Snapshot {
	return Snapshot{
		Entity: SnapshotEntity{
			Value: map[string]TagSnapshot{
				TagSnapshotType: {
					Urn: urn,
					Aspects: []map[string]TagAspect{
						{TagPropertiesType: {Name: req.Name, Description: req.Description}},
					},
				},
			},
		},
	}
}

// Client creates and deletes tags.
type Client struct {
	poster Poster
}

func New(poster Poster) *Client {
	return &Client{poster: poster}
}

// CreateTag ingests a tag named req.Name and returns the created tag.
// Surrounding whitespace is dropped from the name.
func (c *Client) CreateTag(ctx context.Context, req model.CreateTag) (model.TagEnvelope, error) {
	req.Name = strings.TrimSpace(req.Name)
	urn, err := util.TagUrn(req.Name)
	if err != nil {
		return model.TagEnvelope{}, fmt.Errorf("%w: %v", ErrInvalidTag, err)
	}

	if err := c.poster.Ingest(ctx, gateway.ActionIngest, TagSnapshotPayload(urn, req)); err != nil {
		return model.TagEnvelope{}, err
	}

	name := req.Name
	return model.TagEnvelope{Tag: &model.Tag{
		ID:          urn,
		Name:        &name,
		Description: req.Description,
	}}, nil
}

// DeleteTag removes the tag identified by urn.
func (c *Client) DeleteTag(ctx context.Context, urn string) error {
	if urn == "" {
		return fmt.Errorf("%w: empty urn", ErrInvalidTag)
	}
	return c.poster.Ingest(ctx, gateway.ActionDelete, Deletion{Urn: urn})
}
