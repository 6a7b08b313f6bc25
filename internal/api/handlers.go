package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cityequip/cityequip/internal/model"
	"github.com/cityequip/cityequip/internal/store"
)

const (
	msgNotFound = "Equipment not found"
	msgInternal = "internal server error"
	maxBodySize = 1 << 20
)

// ListResponse is the paginated body of GET /equipments.
type ListResponse struct {
	Equipments  []model.Equipment `json:"equipments"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
	Total       int64             `json:"total"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	limit, err := intParam(q.Get("limit"), store.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if page < 1 {
		page = 1
	}

	filter := store.Filter{Type: q.Get("type"), Limit: limit}.Normalize()
	if page-1 > math.MaxInt32/filter.Limit {
		writeError(w, http.StatusBadRequest, "page is out of range")
		return
	}
	filter.Offset = (page - 1) * filter.Limit

	items, total, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, "list equipments", err)
		return
	}
	if items == nil {
		items = []model.Equipment{}
	}
	writeJSON(w, http.StatusOK, ListResponse{
		Equipments:  items,
		TotalPages:  int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
		CurrentPage: page,
		Total:       total,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		s.internalError(w, r, "get equipment", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	e, ok := decodeEquipment(w, r)
	if !ok {
		return
	}
	e.ID = ""
	if err := s.store.Create(r.Context(), e); err != nil {
		s.internalError(w, r, "create equipment", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	e, ok := decodeEquipment(w, r)
	if !ok {
		return
	}
	e.ID = chi.URLParam(r, "id")
	err := s.store.Update(r.Context(), e)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		s.internalError(w, r, "update equipment", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		s.internalError(w, r, "delete equipment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Equipment deleted successfully"})
}

// handleReset wipes the store and reloads the source file. The response is
// plain text: the summary line, or the bare error message.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if s.resetter == nil {
		writeText(w, http.StatusServiceUnavailable, "reset is not available")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ResetTimeout)
	defer cancel()

	res, err := s.resetter.Reset(ctx)
	if err != nil {
		s.log.Error("reset failed",
			zap.Int64("deleted", res.Deleted),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("reset complete",
		zap.Int64("deleted", res.Deleted),
		zap.Int64("inserted", res.Outcome.Inserted),
	)
	writeText(w, http.StatusOK, res.Summary())
}

func decodeEquipment(w http.ResponseWriter, r *http.Request) (*model.Equipment, bool) {
	var e model.Equipment
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	if err := e.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &e, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.Error(op+" failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
