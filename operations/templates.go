package operations

import "fmt"

func byID(root, values string) string {
	return fmt.Sprintf(`
        query by_id($urn: String!) {
            %s(urn: $urn) { %s }
        }
    `, root, values)
}

func byName(values string) string {
	return fmt.Sprintf(`
        query by_name($input: AutoCompleteInput!) {
            results: autoComplete(input: $input) {
                __typename
                entities { %s }
            }
        }
    `, values)
}

func bySearch(values string) string {
	return fmt.Sprintf(`
        query by_query($input: SearchInput!) {
            results: search(input: $input) {
                __typename start count total
                entities: searchResults { entity { %s } }
            }
        }
    `, values)
}

func recommendations(values string) string {
	return fmt.Sprintf(`
        query list_recommendations($input: ListRecommendationsInput!) {
            results: listRecommendations(input: $input) {
                __typename
                modules {
                    title
                    moduleId
                    renderType
                    entities: content { entity { %s } }
                }
            }
        }
    `, values)
}

func addTag() string {
	return `
        mutation add_tag($input: TagAssociationInput!) {
            success: addTag(input: $input)
        }
    `
}

func removeTag() string {
	return `
        mutation remove_tag($input: TagAssociationInput!) {
            success: removeTag(input: $input)
        }
    `
}

func healthCheck() string {
	return `query health { __typename }`
}
