package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/models"
	"github.com/gorilla/mux"
)

const maxBodySize = 1 << 20

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := models.QueryFromValues(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	records, err := s.service.List(r.Context(), mux.Vars(r)["collection"], q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	rec, err := readRecord(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.service.Create(r.Context(), mux.Vars(r)["collection"], rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "record created",
		"collection", mux.Vars(r)["collection"], "id", saved.ID(), "subject", SubjectFromContext(r.Context()))
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	rec, err := readRecord(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.service.Update(r.Context(), mux.Vars(r)["collection"], rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.service.Delete(r.Context(), vars["collection"], vars["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "record deleted",
		"collection", vars["collection"], "id", vars["id"], "subject", SubjectFromContext(r.Context()))
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func readRecord(w http.ResponseWriter, r *http.Request) (models.Record, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidRecord, err)
	}
	rec, err := models.DecodeRecord(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrParseFailure, err)
	}
	return rec, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidQuery),
		errors.Is(err, common.ErrInvalidRecord),
		errors.Is(err, common.ErrParseFailure):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			"error", err, "request_id", requestIDFromContext(r.Context()))
		respondError(w, code, http.StatusText(code))
		return
	}
	respondError(w, code, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		response = []byte(`{"error":"encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
