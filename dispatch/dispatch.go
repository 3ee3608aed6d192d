// Package dispatch picks the access pattern for a REST request and binds the
// GraphQL variables for it.
package dispatch

import (
	"fmt"

	"compendium/catalog-relay/model"
	"compendium/catalog-relay/operations"
)

const (
	DefaultLimit  = 10
	DefaultOffset = 0

	// RecommendationScenario is the request context the catalog expects when
	// listing home page modules.
	RecommendationScenario = "HOME"
)

// Variables is the GraphQL variables object sent with an operation.
type Variables map[string]interface{}

// Filter restricts a listing to entities related to another entity.
type Filter struct {
	Field string // Relation name understood by the catalog, e.g. "platform" or "tags".
	Value string // Identifier of the related entity.
}

// Request carries the REST level inputs. Nil pointers mean "not supplied".
type Request struct {
	Query  *string
	Name   *string
	Filter *Filter
	Limit  int
	Offset int
}

// NewRequest returns a request with default paging.
func NewRequest() Request {
	return Request{Limit: DefaultLimit, Offset: DefaultOffset}
}

// builder binds the variables for one access pattern.
type builder func(kind model.Kind, req Request) Variables

type planKey struct {
	pattern operations.Pattern
	kind    model.Kind
}

// Dispatcher holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	plans    map[planKey]*operations.Operation
	builders map[operations.Pattern]builder
	catalog  *operations.Catalog
}

// defaultPatterns is the catch-all listing for each kind.
var defaultPatterns = map[model.Kind]operations.Pattern{
	model.KindDataset:  operations.BySearchText,
	model.KindPlatform: operations.ListRecommended,
	model.KindTag:      operations.BySearchText,
}

// New resolves every (pattern, kind) pair the dispatcher can select so that
// Dispatch itself cannot fail. actor is the user urn sent with
// recommendation requests.
func New(catalog *operations.Catalog, actor string) (*Dispatcher, error) {
	d := &Dispatcher{
		plans:   make(map[planKey]*operations.Operation),
		catalog: catalog,
		builders: map[operations.Pattern]builder{
			operations.BySearchText:          searchText,
			operations.ByNamePrefix:          namePrefix,
			operations.ByRelatedEntityFilter: relatedEntity,
			operations.ListRecommended:       recommended(actor),
		},
	}

	for _, kind := range model.Kinds {
		patterns := []operations.Pattern{
			operations.ByIdentifier,
			operations.BySearchText,
			operations.ByNamePrefix,
			operations.ByRelatedEntityFilter,
			defaultPatterns[kind],
		}
		for _, pattern := range patterns {
			op, err := catalog.Template(pattern, kind)
			if err != nil {
				return nil, fmt.Errorf("dispatcher: %w", err)
			}
			d.plans[planKey{pattern, kind}] = op
		}
	}

	return d, nil
}

// Select applies the access pattern precedence: free text, then name prefix,
// then related entity filter, then the kind's default listing.
func Select(kind model.Kind, req Request) operations.Pattern {
	switch {
	case req.Query != nil:
		return operations.BySearchText
	case req.Name != nil:
		return operations.ByNamePrefix
	case req.Filter != nil:
		return operations.ByRelatedEntityFilter
	default:
		return defaultPatterns[kind]
	}
}

// Dispatch selects the operation for a listing request and binds its variables.
func (d *Dispatcher) Dispatch(kind model.Kind, req Request) (*operations.Operation, Variables) {
	pattern := Select(kind, req)
	return d.plans[planKey{pattern, kind}], d.builders[pattern](kind, req)
}

// ByID builds a direct lookup. The identifier is passed through untouched.
func (d *Dispatcher) ByID(kind model.Kind, urn string) (*operations.Operation, Variables) {
	return d.plans[planKey{operations.ByIdentifier, kind}], Variables{"urn": urn}
}

// AddTag builds the mutation associating tagUrn with resourceUrn.
func (d *Dispatcher) AddTag(tagUrn, resourceUrn string) (*operations.Operation, Variables) {
	return d.catalog.Mutation(operations.AddTag), tagAssociation(tagUrn, resourceUrn)
}

// RemoveTag builds the mutation dissociating tagUrn from resourceUrn.
func (d *Dispatcher) RemoveTag(tagUrn, resourceUrn string) (*operations.Operation, Variables) {
	return d.catalog.Mutation(operations.RemoveTag), tagAssociation(tagUrn, resourceUrn)
}

func tagAssociation(tagUrn, resourceUrn string) Variables {
	return Variables{
		"input": map[string]interface{}{
			"tagUrn":      tagUrn,
			"resourceUrn": resourceUrn,
		},
	}
}

func searchText(kind model.Kind, req Request) Variables {
	query := "*"
	if req.Query != nil {
		query = "*" + *req.Query + "*"
	}
	return Variables{
		"input": map[string]interface{}{
			"type":  kind.EntityType(),
			"query": query,
			"start": req.Offset,
			"count": req.Limit,
		},
	}
}

func namePrefix(kind model.Kind, req Request) Variables {
	return Variables{
		"input": map[string]interface{}{
			"type":  kind.EntityType(),
			"query": *req.Name,
			"limit": req.Limit,
		},
	}
}

func relatedEntity(kind model.Kind, req Request) Variables {
	return Variables{
		"input": map[string]interface{}{
			"type":  kind.EntityType(),
			"query": "*",
			"start": req.Offset,
			"count": req.Limit,
			"filters": []map[string]interface{}{
				{"field": req.Filter.Field, "value": req.Filter.Value},
			},
		},
	}
}

func recommended(actor string) builder {
	return func(_ model.Kind, req Request) Variables {
		return Variables{
			"input": map[string]interface{}{
				"userUrn": actor,
				"limit":   req.Limit,
				"requestContext": map[string]interface{}{
					"scenario": RecommendationScenario,
				},
			},
		}
	}
}
