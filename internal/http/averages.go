package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/certavg/internal/domain"
	"github.com/Clark-Hu/certavg/internal/ratings"
	"github.com/Clark-Hu/certavg/internal/repository"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type averageResponse struct {
	Certificate string         `json:"certificate"`
	Average     float64        `json:"average"`
	Matched     int            `json:"matched"`
	Rows        int            `json:"rows"`
	Skipped     map[string]int `json:"skipped"`
}

type snapshotResponse struct {
	Dataset     string    `json:"dataset"`
	Certificate string    `json:"certificate"`
	Average     float64   `json:"average"`
	Matched     int64     `json:"matched"`
	Rows        int64     `json:"rows"`
	Skipped     int64     `json:"skipped"`
	ComputedAt  time.Time `json:"computedAt"`
}

type snapshotListResponse struct {
	Items []snapshotResponse `json:"items"`
}

func (s *Server) handleGetAverage(w http.ResponseWriter, r *http.Request) {
	certificate, err := decodeCertificateParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	report, err := ratings.Scan(r.Context(), s.cfg.DatasetPath, certificate, ratings.Options{
		QuoteMode: s.cfg.Mode(),
		Logger:    s.logger,
		Metrics:   s.metrics,
	})
	if err != nil {
		s.respondScanError(w, err)
		return
	}

	if s.repo != nil {
		_, _, err := s.repo.Averages.Upsert(r.Context(), repository.SnapshotParams{
			Dataset:     s.cfg.DatasetPath,
			Certificate: certificate,
			Report:      report,
		})
		if err != nil {
			s.logger.Error("record snapshot failed",
				slog.String("certificate", certificate),
				slog.String("error", err.Error()))
		}
	}

	s.respondJSON(w, http.StatusOK, toAverageResponse(report))
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.respondError(w, http.StatusServiceUnavailable, "STORE_DISABLED", "Snapshot storage is not configured")
		return
	}
	certificate, err := decodeCertificateParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	snapshot, err := s.repo.Averages.Get(r.Context(), s.cfg.DatasetPath, certificate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Error("fetch snapshot failed", slog.String("error", err.Error()))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch snapshot")
		return
	}
	s.respondJSON(w, http.StatusOK, toSnapshotResponse(snapshot))
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.respondError(w, http.StatusServiceUnavailable, "STORE_DISABLED", "Snapshot storage is not configured")
		return
	}
	items, err := s.repo.Averages.ListByDataset(r.Context(), s.cfg.DatasetPath)
	if err != nil {
		s.logger.Error("list snapshots failed", slog.String("error", err.Error()))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list snapshots")
		return
	}
	resp := snapshotListResponse{Items: make([]snapshotResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toSnapshotResponse(item))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondScanError(w http.ResponseWriter, err error) {
	switch ratings.KindOf(err) {
	case ratings.KindNoMatchingRecords:
		s.respondError(w, http.StatusNotFound, "NO_MATCHING_RECORDS", err.Error())
	case ratings.KindNotFound:
		s.respondError(w, http.StatusInternalServerError, "DATASET_NOT_FOUND", err.Error())
	case ratings.KindSchema:
		s.respondError(w, http.StatusInternalServerError, "SCHEMA_ERROR", err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute average")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("failed to encode response", slog.String("error", err.Error()))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func toAverageResponse(report domain.ScanReport) averageResponse {
	skipped := make(map[string]int, len(domain.SkipReasons))
	for _, reason := range domain.SkipReasons {
		skipped[string(reason)] = report.Skipped[reason]
	}
	return averageResponse{
		Certificate: report.Certificate,
		Average:     report.Average,
		Matched:     report.Matched,
		Rows:        report.Rows,
		Skipped:     skipped,
	}
}

func toSnapshotResponse(avg domain.CertificateAverage) snapshotResponse {
	return snapshotResponse{
		Dataset:     avg.Dataset,
		Certificate: avg.Certificate,
		Average:     avg.Average,
		Matched:     avg.Matched,
		Rows:        avg.Rows,
		Skipped:     avg.Skipped,
		ComputedAt:  avg.ComputedAt,
	}
}

func decodeCertificateParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "certificate")
	if raw == "" {
		return "", fmt.Errorf("missing certificate parameter")
	}
	certificate, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid certificate parameter")
	}
	return certificate, nil
}
