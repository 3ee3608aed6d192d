package operations

import "compendium/catalog-relay/model"

// DatasetFields is the selection requested for every dataset.
const DatasetFields = `
    urn
    __typename
    ... on Dataset {
        name
        platform {
            name
            properties {
                type
                name: displayName
            }
        }
        properties {
            name
            origin
        }
        schema: schemaMetadata {
            fields {
                type
                path: fieldPath
                native: nativeDataType
            }
        }
        subTypes {
            names: typeNames
        }
        tags {
            tags {
                tag {
                    urn
                    __typename
                    properties {
                        name
                        description
                    }
                }
            }
        }
    }
`

// PlatformFields is the selection requested for every data platform.
const PlatformFields = `
    urn
    __typename
    ... on DataPlatform {
        name
        properties {
            type
            name: displayName
        }
    }
`

// TagFields is the selection requested for every tag.
const TagFields = `
    urn
    __typename
    ... on Tag {
        urn
        properties {
            name
            description
        }
    }
`

// entityShape ties an entity kind to its selection and lookup root field.
type entityShape struct {
	fields string
	root   string
}

var shapes = map[model.Kind]entityShape{
	model.KindDataset:  {fields: DatasetFields, root: "dataset"},
	model.KindPlatform: {fields: PlatformFields, root: "dataPlatform"},
	model.KindTag:      {fields: TagFields, root: "tag"},
}
