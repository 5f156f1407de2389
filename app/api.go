package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"aqiwatch/config"
	"aqiwatch/lib/aqi"
	"aqiwatch/lib/store"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(log *zap.Logger, svc *Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/signup", ctrl.signup)
	r.Post("/unsubscribe", ctrl.unsubscribe)
	r.Get("/aqi", ctrl.convert)

	return r
}

type controller struct {
	log *zap.Logger
	svc *Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "err", err)
		return
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(b)
	}
}

func (ctrl *controller) signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctrl.reject(w, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		ctrl.reject(w, http.StatusBadRequest, err)
		return
	}

	if _, err := ctrl.svc.Signup(ctx, req); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"message": "Subscribed for AQI alerts!"})
}

func (ctrl *controller) unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UnsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctrl.reject(w, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		ctrl.reject(w, http.StatusBadRequest, err)
		return
	}

	if err := ctrl.svc.Unsubscribe(ctx, req); errors.Is(err, store.ErrNotFound) {
		ctrl.reject(w, http.StatusNotFound, err)
		return
	} else if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"message": "Unsubscribed"})
}

// convert exposes the PM2.5→AQI mapping for dashboard consumers.
func (ctrl *controller) convert(w http.ResponseWriter, r *http.Request) {
	pm25, err := strconv.ParseFloat(r.URL.Query().Get("pm25"), 64)
	if err != nil {
		ctrl.reject(w, http.StatusBadRequest, errors.New("pm25 query parameter must be a number"))
		return
	}

	result := aqi.FromPM25(pm25)
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"index":       result.Index,
		"category":    result.Category,
		"description": result.Description,
	})
}
