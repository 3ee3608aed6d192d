package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"compendium/catalog-relay/dispatch"
	"compendium/catalog-relay/internal/util"
)

// ErrBadRequest marks errors caused by the REST caller.
var ErrBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// listRequest reads the paging controls and the optional free text and name
// parameters. Presence, not emptiness, decides whether a parameter was given.
func listRequest(r *http.Request) (dispatch.Request, error) {
	req := dispatch.NewRequest()
	values := r.URL.Query()

	var err error
	if req.Limit, err = nonNegative(values, "limit", dispatch.DefaultLimit); err != nil {
		return req, err
	}
	if req.Offset, err = nonNegative(values, "offset", dispatch.DefaultOffset); err != nil {
		return req, err
	}

	req.Query = optional(values, "query")
	req.Name = optional(values, "name")
	return req, nil
}

// datasetListRequest also accepts a tag filter, given as a tag urn or name.
func datasetListRequest(r *http.Request) (dispatch.Request, error) {
	req, err := listRequest(r)
	if err != nil {
		return req, err
	}
	if tag := optional(r.URL.Query(), "tags"); tag != nil {
		urn, err := util.ResolveTagUrn(*tag)
		if err != nil {
			return req, badRequest("%v", err)
		}
		req.Filter = &dispatch.Filter{Field: FilterTags, Value: urn}
	}
	return req, nil
}

// relatedRequest lists datasets related to the entity in the path. Only paging
// applies; free text and name parameters are ignored.
func relatedRequest(r *http.Request, field, value string) (dispatch.Request, error) {
	req, err := listRequest(r)
	if err != nil {
		return req, err
	}
	req.Query = nil
	req.Name = nil
	req.Filter = &dispatch.Filter{Field: field, Value: value}
	return req, nil
}

func optional(values url.Values, name string) *string {
	v, ok := values[name]
	if !ok {
		return nil
	}
	s := ""
	if len(v) > 0 {
		s = v[0]
	}
	return &s
}

func nonNegative(values url.Values, name string, fallback int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	if n < 0 {
		return 0, badRequest("%s cannot be negative", name)
	}
	return n, nil
}

// pathParam returns a decoded path parameter. Urns routinely contain escaped
// characters such as %2F inside dataset names. chi routes on RawPath when it
// is set and on the already decoded Path otherwise, so only the former needs
// unescaping.
func pathParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(value)
		if err != nil {
			return "", badRequest("invalid %s: %v", name, err)
		}
		value = unescaped
	}
	if value == "" {
		return "", badRequest("missing %s", name)
	}
	return value, nil
}
