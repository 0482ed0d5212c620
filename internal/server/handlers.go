package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/reportql/internal/state"
	"github.com/leapstack-labs/reportql/pkg/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	ids := s.catalog.IDs()
	models := make([]core.DataModel, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.catalog.Model(id); ok {
			models = append(models, *m)
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

// handleRunQuery submits an analytics configuration. The response carries
// either an immediate result or a job handle; async submissions answer 202.
func (s *Server) handleRunQuery(w http.ResponseWriter, r *http.Request) {
	var cfg core.QueryConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(cfg.Models) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query has no models"})
		return
	}

	resp, err := s.service.RunQuery(r.Context(), cfg)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	status := http.StatusOK
	if resp.Job != nil {
		status = http.StatusAccepted
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	resp, err := s.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunPreview(w http.ResponseWriter, r *http.Request) {
	var req core.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Models) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "preview has no models"})
		return
	}

	result, err := s.service.RunPreview(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListTemplates(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []state.TemplateSummary{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"templates": list})
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl core.Template
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if tpl.Name == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "template name is required"})
		return
	}

	created := tpl.ID == ""
	if err := s.store.SaveTemplate(r.Context(), &tpl); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, tpl)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.store.GetTemplate(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteTemplate(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
