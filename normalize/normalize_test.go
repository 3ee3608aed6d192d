package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compendium/catalog-relay/model"
)

const fullDataset = `{
	"urn": "urn:li:dataset:(urn:li:dataPlatform:hive,db.orders,PROD)",
	"__typename": "Dataset",
	"name": "db.orders",
	"platform": {"name": "hive", "properties": {"type": "FILE_SYSTEM", "name": "Hive"}},
	"properties": {"name": "orders", "origin": "PROD"},
	"schema": {"fields": [
		{"type": "STRING", "path": "id", "native": "varchar(32)"},
		{"type": "NUMBER", "path": "amount", "native": "decimal"}
	]},
	"subTypes": {"names": ["table", "view"]},
	"tags": {"tags": [
		{"tag": {"urn": "urn:li:tag:pii", "__typename": "Tag", "properties": {"name": "pii", "description": "personal"}}}
	]}
}`

func ptr(s string) *string { return &s }

func TestDatasetFull(t *testing.T) {
	env, err := Dataset(json.RawMessage(fullDataset))
	require.NoError(t, err)
	require.NotNil(t, env.Dataset)

	assert.Equal(t, &model.Dataset{
		ID:           "urn:li:dataset:(urn:li:dataPlatform:hive,db.orders,PROD)",
		Path:         "db.orders",
		Type:         ptr("table"),
		Name:         ptr("orders"),
		Origin:       ptr("PROD"),
		Platform:     ptr("hive"),
		PlatformType: ptr("FILE_SYSTEM"),
		PlatformName: ptr("Hive"),
		Tags: []model.TagEnvelope{
			{Tag: &model.Tag{ID: "urn:li:tag:pii", Name: ptr("pii"), Description: ptr("personal")}},
		},
		Fields: []model.Field{
			{Path: "id", Type: "STRING", Native: "varchar(32)"},
			{Path: "amount", Type: "NUMBER", Native: "decimal"},
		},
	}, env.Dataset)
}

func TestDatasetMissingOptionals(t *testing.T) {
	tests := map[string]string{
		"absent": `{"urn": "urn:li:dataset:x", "name": "x"}`,
		"null": `{"urn": "urn:li:dataset:x", "name": "x", "schema": null, "tags": null,
			"subTypes": null, "properties": null, "platform": null}`,
		"empty": `{"urn": "urn:li:dataset:x", "name": "x", "schema": {"fields": []},
			"tags": {"tags": null}, "subTypes": {"names": []}}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			env, err := Dataset(json.RawMessage(raw))
			require.NoError(t, err)
			require.NotNil(t, env.Dataset)

			d := env.Dataset
			assert.Equal(t, "urn:li:dataset:x", d.ID)
			assert.Nil(t, d.Fields)
			assert.Nil(t, d.Type)
			assert.Nil(t, d.Name)
			assert.Nil(t, d.Platform)
			assert.NotNil(t, d.Tags)
			assert.Empty(t, d.Tags)

			out, err := json.Marshal(d)
			require.NoError(t, err)
			assert.Contains(t, string(out), `"tags":[]`)
			assert.Contains(t, string(out), `"fields":null`)
			assert.Contains(t, string(out), `"type":null`)
		})
	}
}

func TestDatasetPlatformWithoutProperties(t *testing.T) {
	env, err := Dataset(json.RawMessage(`{"urn": "u", "name": "n", "platform": {"name": "kafka"}}`))
	require.NoError(t, err)
	assert.Equal(t, ptr("kafka"), env.Dataset.Platform)
	assert.Nil(t, env.Dataset.PlatformName)
	assert.Nil(t, env.Dataset.PlatformType)
}

func TestLookupNotFound(t *testing.T) {
	ds, err := Dataset(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, ds.Dataset)

	pl, err := Platform(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, pl.Platform)

	tag, err := Tag(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, tag.Tag)

	out, err := json.Marshal(tag)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag": null}`, string(out))
}

func TestTagDualShape(t *testing.T) {
	bare, err := Tag(json.RawMessage(`{"urn": "urn:li:tag:pii", "properties": {"name": "pii", "description": "personal"}}`))
	require.NoError(t, err)
	wrapped, err := Tag(json.RawMessage(`{"tag": {"urn": "urn:li:tag:pii", "properties": {"name": "pii", "description": "personal"}}}`))
	require.NoError(t, err)

	assert.Equal(t, bare, wrapped)
	assert.Equal(t, "urn:li:tag:pii", bare.Tag.ID)
}

func TestTagWrapperWithNullTag(t *testing.T) {
	env, err := Tag(json.RawMessage(`{"tag": null}`))
	require.NoError(t, err)
	assert.Nil(t, env.Tag)

	ds, err := Dataset(json.RawMessage(`{"urn": "u", "name": "n", "tags": {"tags": [
		{"tag": null},
		{"tag": {"urn": "urn:li:tag:pii"}}
	]}}`))
	require.NoError(t, err)
	assert.Equal(t, []model.TagEnvelope{
		{Tag: nil},
		{Tag: &model.Tag{ID: "urn:li:tag:pii"}},
	}, ds.Dataset.Tags)

	out, err := json.Marshal(ds.Dataset.Tags)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"tag": null}, {"tag": {"id": "urn:li:tag:pii", "name": null, "description": null}}]`, string(out))
}

func TestTagWithoutProperties(t *testing.T) {
	env, err := Tag(json.RawMessage(`{"urn": "urn:li:tag:legacy", "properties": null}`))
	require.NoError(t, err)
	assert.Equal(t, &model.Tag{ID: "urn:li:tag:legacy"}, env.Tag)
}

func TestPlatform(t *testing.T) {
	env, err := Platform(json.RawMessage(`{"urn": "urn:li:dataPlatform:hive", "name": "hive",
		"properties": {"type": "FILE_SYSTEM", "name": "Hive"}}`))
	require.NoError(t, err)
	assert.Equal(t, &model.Platform{
		ID:    "urn:li:dataPlatform:hive",
		Type:  "FILE_SYSTEM",
		Name:  "hive",
		Title: "Hive",
	}, env.Platform)
}

func TestSearchResultsPaging(t *testing.T) {
	raw := `{"__typename": "SearchResults", "total": 7, "count": 2, "start": 4, "entities": [
		{"entity": {"urn": "urn:li:tag:a", "properties": {"name": "a"}}},
		{"entity": {"urn": "urn:li:tag:b", "properties": null}}
	]}`

	tags, err := Tags(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Equal(t, &model.Paging{Total: 7, Limit: 2, Offset: 4}, tags.Paging)
	require.Len(t, tags.Data, 2)
	assert.Equal(t, "urn:li:tag:a", tags.Data[0].Tag.ID)
	assert.Nil(t, tags.Data[1].Tag.Name)
}

func TestAutocompleteHasNoPaging(t *testing.T) {
	raw := `{"__typename": "AutoCompleteResults", "entities": [
		{"urn": "urn:li:dataset:a", "name": "a"},
		null
	]}`

	ds, err := Datasets(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Nil(t, ds.Paging)
	require.Len(t, ds.Data, 2)
	assert.Equal(t, "a", ds.Data[0].Dataset.Path)
	assert.Nil(t, ds.Data[1].Dataset)

	out, err := json.Marshal(ds)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"paging":null`)
}

func TestEmptyListing(t *testing.T) {
	ds, err := Datasets(json.RawMessage(`{"__typename": "SearchResults", "total": 0, "count": 10, "start": 0, "entities": []}`))
	require.NoError(t, err)
	assert.NotNil(t, ds.Data)
	assert.Empty(t, ds.Data)
	assert.Equal(t, &model.Paging{Total: 0, Limit: 10, Offset: 0}, ds.Paging)

	ds, err = Datasets(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.NotNil(t, ds.Data)
	assert.Nil(t, ds.Paging)
}

func TestPlatformRecommendations(t *testing.T) {
	raw := `{"__typename": "ListRecommendationsResult", "modules": [
		{"title": "Top Tags", "moduleId": "TopTags", "renderType": "TAG_SEARCH_LIST", "entities": [
			{"entity": {"urn": "urn:li:tag:pii"}}
		]},
		{"title": "Platforms", "moduleId": "Platforms", "renderType": "PLATFORM_SEARCH_LIST", "entities": [
			{"entity": {"urn": "urn:li:dataPlatform:hive", "name": "hive", "properties": {"type": "FILE_SYSTEM", "name": "Hive"}}},
			{"entity": {"urn": "urn:li:dataPlatform:kafka", "name": "kafka", "properties": null}}
		]}
	]}`

	pl, err := Platforms(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Nil(t, pl.Paging)
	assert.Equal(t, []model.PlatformEnvelope{
		{Platform: &model.Platform{ID: "urn:li:dataPlatform:hive", Type: "FILE_SYSTEM", Name: "hive", Title: "Hive"}},
		{Platform: &model.Platform{ID: "urn:li:dataPlatform:kafka", Name: "kafka"}},
	}, pl.Data)
}

func TestPlatformRecommendationsWithoutModule(t *testing.T) {
	pl, err := Platforms(json.RawMessage(`{"__typename": "ListRecommendationsResult", "modules": [
		{"moduleId": "TopTags", "entities": [{"entity": {"urn": "urn:li:tag:pii"}}]}
	]}`))
	require.NoError(t, err)
	assert.NotNil(t, pl.Data)
	assert.Empty(t, pl.Data)
}

func TestMalformed(t *testing.T) {
	_, err := Datasets(json.RawMessage(`{"__typename": "SearchResults", "entities": {"oops": 1}}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Tag(json.RawMessage(`[1, 2]`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestResult(t *testing.T) {
	raw, err := Result(json.RawMessage(`{"dataset": null}`), "dataset")
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	raw, err = Result(json.RawMessage(`{"results": {"__typename": "SearchResults"}}`), "results")
	require.NoError(t, err)
	assert.JSONEq(t, `{"__typename": "SearchResults"}`, string(raw))

	_, err = Result(json.RawMessage(`{"other": 1}`), "results")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Result(nil, "results")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Result(json.RawMessage(`null`), "results")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestMutation(t *testing.T) {
	tests := []struct {
		data string
		want bool
	}{
		{`{"success": true}`, true},
		{`{"success": false}`, false},
		{`{"success": null}`, false},
		{`{}`, false},
		{`null`, false},
		{``, false},
		{`"garbage"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			assert.Equal(t, tt.want, Mutation(json.RawMessage(tt.data)))
		})
	}
}
