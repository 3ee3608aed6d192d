// Package normalize converts catalog GraphQL results into the relay's
// canonical envelopes.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"compendium/catalog-relay/model"
)

const (
	// SearchResultsType marks a result set that carries paging.
	SearchResultsType = "SearchResults"
	// PlatformsModule is the recommendation module holding the platform list.
	PlatformsModule = "Platforms"
)

var (
	ErrNoData    = errors.New("catalog response has no data")
	ErrMalformed = errors.New("malformed catalog response")
)

var null = []byte("null")

// decode unmarshals raw into a fresh T. Empty input or JSON null yields nil.
func decode[T any](raw json.RawMessage) (*T, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), null) {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

// Result extracts the value of field from the `data` object of a GraphQL
// response. A JSON null value is returned as is.
func Result(data json.RawMessage, field string) (json.RawMessage, error) {
	fields, err := decode[map[string]json.RawMessage](data)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, ErrNoData
	}
	raw, ok := (*fields)[field]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformed, field)
	}
	return raw, nil
}

// Mutation reports whether a tag association mutation succeeded. Anything
// other than an explicit `success: true` counts as failure.
func Mutation(data json.RawMessage) bool {
	m, err := decode[rawMutation](data)
	if err != nil || m == nil || m.Success == nil {
		return false
	}
	return *m.Success
}

// Dataset normalizes a direct dataset lookup.
func Dataset(raw json.RawMessage) (model.DatasetEnvelope, error) {
	e, err := decode[rawDataset](raw)
	if err != nil {
		return model.DatasetEnvelope{}, err
	}
	return model.DatasetEnvelope{Dataset: dataset(e)}, nil
}

// Platform normalizes a direct platform lookup.
func Platform(raw json.RawMessage) (model.PlatformEnvelope, error) {
	e, err := decode[rawPlatform](raw)
	if err != nil {
		return model.PlatformEnvelope{}, err
	}
	return model.PlatformEnvelope{Platform: platform(e)}, nil
}

// Tag normalizes a direct tag lookup. Both a bare tag and one wrapped as
// {tag: {...}} are accepted.
func Tag(raw json.RawMessage) (model.TagEnvelope, error) {
	e, err := decode[rawTag](raw)
	if err != nil {
		return model.TagEnvelope{}, err
	}
	return model.TagEnvelope{Tag: tag(e)}, nil
}

// Datasets normalizes a dataset search or autocomplete result.
func Datasets(raw json.RawMessage) (model.Datasets, error) {
	data, paging, err := list(raw, "", func(e *rawDataset) model.DatasetEnvelope {
		return model.DatasetEnvelope{Dataset: dataset(e)}
	})
	return model.Datasets{Data: data, Paging: paging}, err
}

// Platforms normalizes a platform search, autocomplete or recommendation result.
func Platforms(raw json.RawMessage) (model.Platforms, error) {
	data, paging, err := list(raw, PlatformsModule, func(e *rawPlatform) model.PlatformEnvelope {
		return model.PlatformEnvelope{Platform: platform(e)}
	})
	return model.Platforms{Data: data, Paging: paging}, err
}

// Tags normalizes a tag search or autocomplete result.
func Tags(raw json.RawMessage) (model.Tags, error) {
	data, paging, err := list(raw, "", func(e *rawTag) model.TagEnvelope {
		return model.TagEnvelope{Tag: tag(e)}
	})
	return model.Tags{Data: data, Paging: paging}, err
}

// list unwraps the entities of any listing shape. module names the
// recommendation module to read when the result is a module list.
func list[R any, E any](raw json.RawMessage, module string, convert func(*R) E) ([]E, *model.Paging, error) {
	out := []E{}

	results, err := decode[rawResults](raw)
	if err != nil || results == nil {
		return out, nil, err
	}

	var entities []json.RawMessage
	var paging *model.Paging

	switch {
	case results.Typename == SearchResultsType:
		entries, err := decode[[]rawEntry](results.Entities)
		if err != nil {
			return out, nil, err
		}
		if entries != nil {
			for _, entry := range *entries {
				entities = append(entities, entry.Entity)
			}
		}
		paging = &model.Paging{
			Total:  results.Total,
			Limit:  results.Count,
			Offset: results.Start,
		}
	case results.Modules != nil:
		for _, m := range results.Modules {
			if module == "" || m.ModuleID != module {
				continue
			}
			for _, entry := range m.Entities {
				entities = append(entities, entry.Entity)
			}
			break
		}
	default:
		flat, err := decode[[]json.RawMessage](results.Entities)
		if err != nil {
			return out, nil, err
		}
		if flat != nil {
			entities = *flat
		}
	}

	for _, e := range entities {
		v, err := decode[R](e)
		if err != nil {
			return []E{}, nil, err
		}
		out = append(out, convert(v))
	}
	return out, paging, nil
}

func dataset(e *rawDataset) *model.Dataset {
	if e == nil {
		return nil
	}

	d := &model.Dataset{
		ID:   e.Urn,
		Path: e.Name,
		Tags: []model.TagEnvelope{},
	}
	if e.SubTypes != nil && len(e.SubTypes.Names) > 0 {
		d.Type = &e.SubTypes.Names[0]
	}
	if p := e.Properties; p != nil {
		d.Name = p.Name
		d.Origin = p.Origin
	}
	if p := e.Platform; p != nil {
		d.Platform = p.Name
		if p.Properties != nil {
			d.PlatformName = p.Properties.Name
			d.PlatformType = p.Properties.Type
		}
	}
	if e.Tags != nil {
		for _, t := range e.Tags.Tags {
			d.Tags = append(d.Tags, model.TagEnvelope{Tag: tag(t)})
		}
	}
	if e.Schema != nil && len(e.Schema.Fields) > 0 {
		d.Fields = make([]model.Field, 0, len(e.Schema.Fields))
		for _, f := range e.Schema.Fields {
			d.Fields = append(d.Fields, model.Field{Path: f.Path, Type: f.Type, Native: f.Native})
		}
	}
	return d
}

func platform(e *rawPlatform) *model.Platform {
	if e == nil {
		return nil
	}

	p := &model.Platform{ID: e.Urn, Name: value(e.Name)}
	if e.Properties != nil {
		p.Type = value(e.Properties.Type)
		p.Title = value(e.Properties.Name)
	}
	return p
}

func tag(e *rawTag) *model.Tag {
	if e == nil {
		return nil
	}
	if e.Wrapped {
		if e.Tag == nil {
			return nil
		}
		e = e.Tag
	}

	t := &model.Tag{ID: e.Urn}
	if e.Properties != nil {
		t.Name = e.Properties.Name
		t.Description = e.Properties.Description
	}
	return t
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
