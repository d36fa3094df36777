package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stratoio/objectgate/internal/facade"
	"github.com/stratoio/objectgate/internal/store"
	"github.com/stratoio/objectgate/internal/version"

	"github.com/go-chi/chi/v5"
)

type handlers struct {
	f *facade.Facade
}

func respondError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFromErr(err))
}

// statusFromErr maps the error taxonomy onto HTTP codes: conflicts are 409,
// genuine not-found misuse is 404, everything else (configuration and
// unclassified provider errors) surfaces as 500.
func statusFromErr(err error) int {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict
	}
	var notFound *store.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(v)
}

func respondGrant(w http.ResponseWriter, grant *store.Grant) {
	if grant == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s, err := grant.JSON()
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(s))
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok", "version": version.Version})
}

func (h *handlers) listBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.f.ListBuckets(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if buckets == nil {
		buckets = []string{}
	}
	respondJSON(w, buckets)
}

func (h *handlers) createBucket(w http.ResponseWriter, r *http.Request) {
	ok, err := h.f.CreateBucket(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, err)
		return
	}
	if ok {
		w.WriteHeader(http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) bucketExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.f.BucketExists(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"exists": exists})
}

func (h *handlers) removeBucket(w http.ResponseWriter, r *http.Request) {
	recursive := r.URL.Query().Get("recursive") == "true"
	ok, err := h.f.RemoveBucket(r.Context(), chi.URLParam(r, "name"), recursive)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"removed": ok})
}

func (h *handlers) archiveBucket(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Prefix         string `json:"prefix"`
		DeleteExisting *bool  `json:"deleteExisting"`
	}
	if err := decodeOptional(r, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	deleteExisting := true
	if in.DeleteExisting != nil {
		deleteExisting = *in.DeleteExisting
	}
	ok, err := h.f.ArchiveBucket(r.Context(), chi.URLParam(r, "name"), in.Prefix, deleteExisting)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"archived": ok})
}

func (h *handlers) transferBucket(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RemoveFromSource bool `json:"removeFromSource"`
		ForceOverwrite   bool `json:"forceOverwrite"`
	}
	if err := decodeOptional(r, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ok, err := h.f.TransferBucketFromSelfHostedToCloud(r.Context(), chi.URLParam(r, "name"), in.RemoveFromSource, in.ForceOverwrite)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"transferred": ok})
}

func (h *handlers) uploadTokenizerData(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProjectID string `json:"projectId"`
		Data      string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ok, err := h.f.UploadTokenizerData(r.Context(), chi.URLParam(r, "name"), in.ProjectID, []byte(in.Data))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"uploaded": ok})
}

func (h *handlers) listObjects(w http.ResponseWriter, r *http.Request) {
	objects, err := h.f.ListObjects(r.Context(), chi.URLParam(r, "name"), r.URL.Query().Get("prefix"))
	if err != nil {
		respondError(w, err)
		return
	}
	if objects == nil {
		objects = []string{}
	}
	respondJSON(w, objects)
}

func (h *handlers) getObject(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	data, err := h.f.GetObject(r.Context(), chi.URLParam(r, "name"), key)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (h *handlers) putObject(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ok, err := h.f.PutObject(r.Context(), chi.URLParam(r, "name"), key, data, r.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"stored": ok})
}

func (h *handlers) deleteObject(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	ok, err := h.f.DeleteObject(r.Context(), chi.URLParam(r, "name"), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"deleted": ok})
}

func (h *handlers) objectExists(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	exists, err := h.f.ObjectExists(r.Context(), chi.URLParam(r, "name"), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"exists": exists})
}

func (h *handlers) copyObject(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SrcKey    string `json:"srcKey"`
		DstBucket string `json:"dstBucket"`
		DstKey    string `json:"dstKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.SrcKey == "" || in.DstBucket == "" {
		http.Error(w, "srcKey and dstBucket are required", http.StatusBadRequest)
		return
	}
	if in.DstKey == "" {
		in.DstKey = in.SrcKey
	}
	ok, err := h.f.CopyObject(r.Context(), chi.URLParam(r, "name"), in.SrcKey, in.DstBucket, in.DstKey)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"copied": ok})
}

func (h *handlers) accessLink(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	link, err := h.f.AccessLink(r.Context(), chi.URLParam(r, "name"), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]string{"url": link})
}

func (h *handlers) fileUploadLink(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	link, err := h.f.FileUploadLink(r.Context(), chi.URLParam(r, "name"), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]string{"url": link})
}

func (h *handlers) dataUploadLink(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	link, formData, err := h.f.DataUploadLink(r.Context(), chi.URLParam(r, "name"), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]any{"url": link, "formData": formData})
}

func (h *handlers) uploadCredentials(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UploadTaskID   string `json:"uploadTaskId"`
		OnlyEssentials bool   `json:"onlyEssentials"`
	}
	if err := decodeOptional(r, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	grant, err := h.f.UploadCredentials(r.Context(), chi.URLParam(r, "name"), in.UploadTaskID, in.OnlyEssentials)
	if err != nil {
		respondError(w, err)
		return
	}
	respondGrant(w, grant)
}

func (h *handlers) downloadCredentials(w http.ResponseWriter, r *http.Request) {
	object := r.URL.Query().Get("object")
	if object == "" {
		http.Error(w, "object is required", http.StatusBadRequest)
		return
	}
	grant, err := h.f.DownloadCredentials(r.Context(), chi.URLParam(r, "name"), object)
	if err != nil {
		respondError(w, err)
		return
	}
	respondGrant(w, grant)
}

func (h *handlers) emptyStorage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Force    bool  `json:"force"`
		OnlyUUID *bool `json:"onlyUuid"`
	}
	if err := decodeOptional(r, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	onlyUUID := true
	if in.OnlyUUID != nil {
		onlyUUID = *in.OnlyUUID
	}
	ok, err := h.f.EmptyStorage(r.Context(), in.Force, onlyUUID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"emptied": ok})
}

// decodeOptional decodes a JSON body when one is present; an empty body keeps
// the defaults.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}
