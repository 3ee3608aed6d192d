package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/99designs/gqlgen/graphql"

	"compendium/catalog-relay/dispatch"
	"compendium/catalog-relay/ingest"
	"compendium/catalog-relay/internal/util"
	"compendium/catalog-relay/logger"
	"compendium/catalog-relay/model"
	"compendium/catalog-relay/normalize"
	"compendium/catalog-relay/operations"
)

// Relation names the catalog's search filters understand.
const (
	FilterPlatform = "platform"
	FilterTags     = "tags"
)

// Executor runs a GraphQL operation against the catalog.
type Executor interface {
	Execute(ctx context.Context, op *operations.Operation, variables map[string]interface{}) (*graphql.Response, error)
}

// TagWriter creates and deletes tags through the ingest endpoint.
type TagWriter interface {
	CreateTag(ctx context.Context, req model.CreateTag) (model.TagEnvelope, error)
	DeleteTag(ctx context.Context, urn string) error
}

// Handler serves the REST resources. It holds no per-request state.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	catalog    Executor
	tags       TagWriter
}

func NewHandler(dispatcher *dispatch.Dispatcher, catalog Executor, tags TagWriter) *Handler {
	return &Handler{dispatcher: dispatcher, catalog: catalog, tags: tags}
}

// fetch runs a read operation and extracts its result field. It writes the
// failure response itself and reports false when the caller should stop.
func (h *Handler) fetch(w http.ResponseWriter, r *http.Request, op *operations.Operation, vars dispatch.Variables) (json.RawMessage, bool) {
	log := logger.FromContext(r.Context())

	resp, err := h.catalog.Execute(r.Context(), op, vars)
	if err != nil {
		renderFailure(w, r, err)
		return nil, false
	}

	if len(resp.Errors) > 0 {
		if !hasData(resp.Data) {
			log.Error("Catalog returned errors", "operation", op.Name, "errors", resp.Errors.Error())
			renderError(w, r, http.StatusBadGateway, "catalog returned errors", messages(resp)...)
			return nil, false
		}
		log.Warn("Catalog returned partial data", "operation", op.Name, "errors", resp.Errors.Error())
	}

	raw, err := normalize.Result(resp.Data, op.ResultField)
	if err != nil {
		renderFailure(w, r, err)
		return nil, false
	}
	return raw, true
}

func hasData(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func messages(resp *graphql.Response) []string {
	out := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		out = append(out, e.Message)
	}
	return out
}

// serve runs op, normalizes the result with convert and renders it.
func serve[T any](h *Handler, w http.ResponseWriter, r *http.Request, op *operations.Operation, vars dispatch.Variables, convert func(json.RawMessage) (T, error)) {
	raw, ok := h.fetch(w, r, op, vars)
	if !ok {
		return
	}
	out, err := convert(raw)
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	renderJSON(w, r, http.StatusOK, out)
}

// mutate runs a tag association mutation: 204 on success, 422 when the
// catalog reports failure or returns no data.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op *operations.Operation, vars dispatch.Variables) {
	resp, err := h.catalog.Execute(r.Context(), op, vars)
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	if !normalize.Mutation(resp.Data) {
		details := messages(resp)
		logger.FromContext(r.Context()).Warn("Tag association rejected", "operation", op.Name, "errors", details)
		renderError(w, r, http.StatusUnprocessableEntity, "catalog rejected "+op.Name, details...)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	req, err := datasetListRequest(r)
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	op, vars := h.dispatcher.Dispatch(model.KindDataset, req)
	serve(h, w, r, op, vars, normalize.Datasets)
}

func (h *Handler) getDataset(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	op, vars := h.dispatcher.ByID(model.KindDataset, id)
	serve(h, w, r, op, vars, normalize.Dataset)
}

func (h *Handler) addDatasetTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		renderFailure(w, r, err)
		return
	}

	var body model.AddTag
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		renderFailure(w, r, badRequest("invalid body: %v", err))
		return
	}
	tagUrn, err := util.ResolveTagUrn(body.Tag)
	if err != nil {
		renderFailure(w, r, badRequest("%v", err))
		return
	}

	op, vars := h.dispatcher.AddTag(tagUrn, id)
	h.mutate(w, r, op, vars)
}

func (h *Handler) removeDatasetTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	tagID, err := pathParam(r, "tagId")
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	tagUrn, err := util.ResolveTagUrn(tagID)
	if err != nil {
		renderFailure(w, r, badRequest("%v", err))
		return
	}

	op, vars := h.dispatcher.RemoveTag(tagUrn, id)
	h.mutate(w, r, op, vars)
}

func (h *Handler) listPlatforms(w http.ResponseWriter, r *http.Request) {
	req, err := listRequest(r)
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	op, vars := h.dispatcher.Dispatch(model.KindPlatform, req)
	serve(h, w, r, op, vars, normalize.Platforms)
}

func (h *Handler) getPlatform(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	op, vars := h.dispatcher.ByID(model.KindPlatform, id)
	serve(h, w, r, op, vars, normalize.Platform)
}

func (h *Handler) listPlatformDatasets(w http.ResponseWriter, r *http.Request) {
	h.listRelatedDatasets(w, r, FilterPlatform)
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	req, err := listRequest(r)
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	op, vars := h.dispatcher.Dispatch(model.KindTag, req)
	serve(h, w, r, op, vars, normalize.Tags)
}

func (h *Handler) getTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	op, vars := h.dispatcher.ByID(model.KindTag, id)
	serve(h, w, r, op, vars, normalize.Tag)
}

func (h *Handler) listTagDatasets(w http.ResponseWriter, r *http.Request) {
	h.listRelatedDatasets(w, r, FilterTags)
}

func (h *Handler) listRelatedDatasets(w http.ResponseWriter, r *http.Request, field string) {
	id, err := pathParam(r, "id")
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	req, err := relatedRequest(r, field, id)
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	op, vars := h.dispatcher.Dispatch(model.KindDataset, req)
	serve(h, w, r, op, vars, normalize.Datasets)
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	var body model.CreateTag
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		renderFailure(w, r, badRequest("invalid body: %v", err))
		return
	}

	env, err := h.tags.CreateTag(r.Context(), body)
	if errors.Is(err, ingest.ErrInvalidTag) {
		renderFailure(w, r, badRequest("%v", err))
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to create tag", "name", body.Name, "err", err)
		renderError(w, r, http.StatusInternalServerError, "failed to create tag")
		return
	}
	renderJSON(w, r, http.StatusCreated, env)
}

func (h *Handler) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		renderFailure(w, r, err)
		return
	}

	if err := h.tags.DeleteTag(r.Context(), id); err != nil {
		logger.FromContext(r.Context()).Error("Failed to delete tag", "urn", id, "err", err)
		renderError(w, r, http.StatusInternalServerError, "failed to delete tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
