package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/heimdex/detectq/internal/config"
	"github.com/heimdex/detectq/internal/detections"
	"github.com/heimdex/detectq/internal/logging"
)

const maxBodyBytes = 1 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/health", healthHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Post("/query-aws-rds", queryHandler(cfg))
		r.Get("/videos/{id}/detections", videoDetectionsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	version := cfg.Version
	if version == "" {
		version = config.Version
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: version,
			UptimeS: uptime,
		})
	}
}

func queryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Test {
			probeHandler(cfg, w, r)
			return
		}

		videoID, err := detections.ParseVideoID(string(req.VideoID))
		if err != nil {
			writeQueryError(w, err)
			return
		}
		resolve(cfg, w, r, videoID, req.ObjectName)
	}
}

func videoDetectionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID, err := detections.ParseVideoID(chi.URLParam(r, "id"))
		if err != nil {
			writeQueryError(w, err)
			return
		}
		resolve(cfg, w, r, videoID, r.URL.Query().Get("objectName"))
	}
}

func resolve(cfg ServerConfig, w http.ResponseWriter, r *http.Request, videoID int64, objectName string) {
	if cfg.Resolver == nil {
		WriteError(w, http.StatusInternalServerError, config.ErrNoDatabase.Error(), "INTERNAL_ERROR")
		return
	}

	res, err := cfg.Resolver.Resolve(r.Context(), videoID, objectName)
	if err != nil {
		if detections.KindOf(err) != detections.KindNotFound {
			requestLogger(cfg.Logger, r).Error("query failed", "video_id", videoID, "error", err)
		}
		writeQueryError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ResultToResponse(res))
}

func probeHandler(cfg ServerConfig, w http.ResponseWriter, r *http.Request) {
	if cfg.Prober == nil {
		WriteError(w, http.StatusInternalServerError, config.ErrNoDatabase.Error(), "INTERNAL_ERROR")
		return
	}

	result, err := cfg.Prober.Probe(r.Context())
	if err != nil {
		requestLogger(cfg.Logger, r).Error("connection test failed", "error", err)
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return
	}

	WriteJSON(w, http.StatusOK, ProbeResponse{
		Data:    result,
		Message: "Connection test successful",
	})
}

func writeQueryError(w http.ResponseWriter, err error) {
	switch detections.KindOf(err) {
	case detections.KindInvalidInput:
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case detections.KindNotFound:
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
