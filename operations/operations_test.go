package operations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"compendium/catalog-relay/model"
)

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	tests := []struct {
		pattern     Pattern
		kind        model.Kind
		name        string
		result      string
		input       string
		searchStyle bool
	}{
		{ByIdentifier, model.KindDataset, "by_id", "dataset", "", false},
		{ByIdentifier, model.KindPlatform, "by_id", "dataPlatform", "", false},
		{ByIdentifier, model.KindTag, "by_id", "tag", "", false},
		{BySearchText, model.KindDataset, "by_query", "results", "SearchInput", true},
		{BySearchText, model.KindTag, "by_query", "results", "SearchInput", true},
		{ByRelatedEntityFilter, model.KindDataset, "by_query", "results", "SearchInput", true},
		{ByNamePrefix, model.KindTag, "by_name", "results", "AutoCompleteInput", false},
		{ByNamePrefix, model.KindPlatform, "by_name", "results", "AutoCompleteInput", false},
		{ListRecommended, model.KindPlatform, "list_recommendations", "results", "ListRecommendationsInput", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern.String()+"/"+tt.kind.String(), func(t *testing.T) {
			op, err := c.Template(tt.pattern, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.name, op.Name)
			assert.Equal(t, ast.Query, op.Type)
			assert.Equal(t, tt.result, op.ResultField)
			assert.Equal(t, tt.input, op.InputType)
			assert.Equal(t, tt.searchStyle, op.SearchStyle)
			assert.Equal(t, tt.kind, op.Kind)
		})
	}
}

func TestTemplateIsShared(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	first, err := c.Template(BySearchText, model.KindDataset)
	require.NoError(t, err)
	second, err := c.Template(BySearchText, model.KindDataset)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestTemplateUnknown(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	_, err = c.Template(ListRecommended, model.KindDataset)
	assert.ErrorIs(t, err, ErrUnknownTemplate)

	_, err = c.Template(MutateRelationship, model.KindTag)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestTemplateFieldsPerKind(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	ds, err := c.Template(ByIdentifier, model.KindDataset)
	require.NoError(t, err)
	assert.Contains(t, ds.Document, "... on Dataset")
	assert.Contains(t, ds.Document, "schema: schemaMetadata")

	pl, err := c.Template(ByIdentifier, model.KindPlatform)
	require.NoError(t, err)
	assert.Contains(t, pl.Document, "... on DataPlatform")
	assert.False(t, strings.Contains(pl.Document, "schemaMetadata"))

	tag, err := c.Template(BySearchText, model.KindTag)
	require.NoError(t, err)
	assert.Contains(t, tag.Document, "... on Tag")
}

func TestMutations(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	add := c.Mutation(AddTag)
	require.NotNil(t, add)
	assert.Equal(t, "add_tag", add.Name)
	assert.Equal(t, ast.Mutation, add.Type)
	assert.Equal(t, "success", add.ResultField)

	remove := c.Mutation(RemoveTag)
	require.NotNil(t, remove)
	assert.Equal(t, "remove_tag", remove.Name)
	assert.Equal(t, MutateRelationship, remove.Pattern)
}

func TestHealth(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)
	assert.Equal(t, "health", c.Health().Name)
}

func TestParseRejectsBrokenDocument(t *testing.T) {
	op := &Operation{Pattern: BySearchText, Document: "query broken { results("}
	err := op.parse()
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
