// Package service implements the HTTP handlers for the items API.
package service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NoManNayeem/Terraform-POC/internal/middleware"
	"github.com/NoManNayeem/Terraform-POC/internal/storage"
)

// maxBodyBytes caps the size of a create request.
const maxBodyBytes = 1 << 20

// ItemService serves the items resource.
type ItemService struct {
	store storage.Store
}

// NewItemService creates a new ItemService with the given storage backend.
func NewItemService(store storage.Store) *ItemService {
	return &ItemService{store: store}
}

// Routes returns a router for the items collection, to be mounted at .../items.
func (s *ItemService) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/", s.ListItems)
	r.Post("/", s.CreateItem)
	r.Get("/{itemID}", s.GetItem)
	r.Delete("/{itemID}", s.DeleteItem)
	return r
}

// ListItems handles GET /items.
func (s *ItemService) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context())
	if err != nil {
		s.internalError(w, r, "ListItems failed", err)
		return
	}

	slog.Debug("ListItems successful", "count", len(items))
	writeJSON(w, http.StatusOK, items)
}

// CreateItem handles POST /items.
func (s *ItemService) CreateItem(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	in, errs := decodeCreateItem(body)
	if errs != nil {
		slog.Info("CreateItem rejected", "errors", len(errs), "request_id", middleware.GetRequestID(r.Context()))
		writeValidation(w, errs)
		return
	}

	item, err := s.store.CreateItem(r.Context(), in)
	if err != nil {
		s.internalError(w, r, "CreateItem failed", err)
		return
	}

	slog.Info("Item created", "item_id", item.ID)
	writeJSON(w, http.StatusCreated, item)
}

// GetItem handles GET /items/{itemID}.
func (s *ItemService) GetItem(w http.ResponseWriter, r *http.Request) {
	id, errs := parseItemID(chi.URLParam(r, "itemID"))
	if errs != nil {
		writeValidation(w, errs)
		return
	}

	item, err := s.store.GetItem(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, msgItemNotFound)
		return
	}
	if err != nil {
		s.internalError(w, r, "GetItem failed", err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /items/{itemID}.
func (s *ItemService) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, errs := parseItemID(chi.URLParam(r, "itemID"))
	if errs != nil {
		writeValidation(w, errs)
		return
	}

	n, err := s.store.DeleteItem(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "DeleteItem failed", err)
		return
	}
	if n == 0 {
		writeDetail(w, http.StatusNotFound, msgItemNotFound)
		return
	}

	slog.Info("Item deleted", "item_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *ItemService) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "request_id", middleware.GetRequestID(r.Context()))
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}
