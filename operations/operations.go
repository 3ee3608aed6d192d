// Package operations holds the fixed table of GraphQL documents the relay
// sends to the catalog, one family per access pattern.
package operations

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"compendium/catalog-relay/model"
)

// Pattern is the remote query shape used to satisfy a request.
type Pattern int

const (
	ByIdentifier Pattern = iota
	BySearchText
	ByNamePrefix
	ByRelatedEntityFilter
	MutateRelationship
	ListRecommended
)

func (p Pattern) String() string {
	switch p {
	case ByIdentifier:
		return "by_identifier"
	case BySearchText:
		return "by_search_text"
	case ByNamePrefix:
		return "by_name_prefix"
	case ByRelatedEntityFilter:
		return "by_related_entity_filter"
	case MutateRelationship:
		return "mutate_relationship"
	case ListRecommended:
		return "list_recommended"
	default:
		return "unknown"
	}
}

// Mutation selects one of the tag association mutations.
type Mutation int

const (
	AddTag Mutation = iota
	RemoveTag
)

var (
	ErrUnknownTemplate = errors.New("no template for access pattern")
	ErrInvalidDocument = errors.New("invalid graphql document")
)

// Operation is a rendered, parsed GraphQL document. Operations are built once
// and shared read-only between requests.
type Operation struct {
	Name        string        // Operation name from the parsed document.
	Type        ast.Operation // query or mutation.
	Pattern     Pattern
	Kind        model.Kind
	Document    string
	InputType   string // GraphQL input type of $input, empty for lookups.
	ResultField string // Field of `data` holding the result.
	SearchStyle bool   // Result carries a SearchResults envelope with paging.
}

type templateKey struct {
	pattern Pattern
	kind    model.Kind
}

// Catalog is the immutable table of operations keyed by access pattern and
// entity kind.
type Catalog struct {
	templates map[templateKey]*Operation
	mutations map[Mutation]*Operation
	health    *Operation
}

// NewCatalog renders every template for every entity kind and parses the
// result. Any document that fails to parse is a startup error.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{
		templates: make(map[templateKey]*Operation),
		mutations: make(map[Mutation]*Operation),
	}

	for _, kind := range model.Kinds {
		shape := shapes[kind]

		if err := c.add(&Operation{
			Pattern:     ByIdentifier,
			Kind:        kind,
			Document:    byID(shape.root, shape.fields),
			ResultField: shape.root,
		}); err != nil {
			return nil, err
		}

		// Free text and related-entity filters share the search document.
		for _, pattern := range []Pattern{BySearchText, ByRelatedEntityFilter} {
			if err := c.add(&Operation{
				Pattern:     pattern,
				Kind:        kind,
				Document:    bySearch(shape.fields),
				InputType:   "SearchInput",
				ResultField: "results",
				SearchStyle: true,
			}); err != nil {
				return nil, err
			}
		}

		if err := c.add(&Operation{
			Pattern:     ByNamePrefix,
			Kind:        kind,
			Document:    byName(shape.fields),
			InputType:   "AutoCompleteInput",
			ResultField: "results",
		}); err != nil {
			return nil, err
		}
	}

	// The catalog only recommends platforms as a listing module.
	if err := c.add(&Operation{
		Pattern:     ListRecommended,
		Kind:        model.KindPlatform,
		Document:    recommendations(PlatformFields),
		InputType:   "ListRecommendationsInput",
		ResultField: "results",
	}); err != nil {
		return nil, err
	}

	for m, doc := range map[Mutation]string{AddTag: addTag(), RemoveTag: removeTag()} {
		op := &Operation{
			Pattern:     MutateRelationship,
			Document:    doc,
			InputType:   "TagAssociationInput",
			ResultField: "success",
		}
		if err := op.parse(); err != nil {
			return nil, err
		}
		c.mutations[m] = op
	}

	c.health = &Operation{Document: healthCheck(), ResultField: "__typename"}
	if err := c.health.parse(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Catalog) add(op *Operation) error {
	if err := op.parse(); err != nil {
		return err
	}
	c.templates[templateKey{op.Pattern, op.Kind}] = op
	return nil
}

// Template returns the operation for the given access pattern and entity kind.
func (c *Catalog) Template(pattern Pattern, kind model.Kind) (*Operation, error) {
	op, ok := c.templates[templateKey{pattern, kind}]
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnknownTemplate, pattern, kind)
	}
	return op, nil
}

// Mutation returns the tag association mutation.
func (c *Catalog) Mutation(m Mutation) *Operation {
	return c.mutations[m]
}

// Health returns the trivial operation used to probe the catalog.
func (c *Catalog) Health() *Operation {
	return c.health
}

// parse validates the document and records its name and operation type.
func (op *Operation) parse() error {
	doc, err := parser.ParseQuery(&ast.Source{Name: op.Pattern.String(), Input: op.Document})
	if err != nil {
		return fmt.Errorf("%w: %s for %s: %v", ErrInvalidDocument, op.Pattern, op.Kind, err)
	}
	if len(doc.Operations) != 1 {
		return fmt.Errorf("%w: %s for %s: expected one operation, got %d", ErrInvalidDocument, op.Pattern, op.Kind, len(doc.Operations))
	}
	op.Name = doc.Operations[0].Name
	op.Type = doc.Operations[0].Operation
	return nil
}
