package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/pipeline"
	"github.com/sells-group/appraisal-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the appraisal HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initEnv(ctx, "serve", true)
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter mounts the API on a chi router with CORS and per-IP rate
// limiting.
func buildRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if cfg.Server.RequestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.Server.RequestsPerMinute, time.Minute))
	}
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Post("/appraisals", func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := env.Orchestrator.Appraise(r.Context(), req)
		switch {
		case errors.Is(err, pipeline.ErrInvalidRequest):
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, model.ErrPropertyNotFound):
			writeError(w, r, http.StatusNotFound, fmt.Sprintf("parcel %s not found", req.ParcelID))
			return
		case err != nil:
			zap.L().Error("appraisal failed", zap.String("parcel_id", req.ParcelID), zap.Error(err))
			writeError(w, r, http.StatusBadGateway, "appraisal failed")
			return
		}
		render.JSON(w, r, result)
	})

	r.Get("/analyses", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.AnalysisFilter{ParcelID: q.Get("parcel_id")}
		var err error
		if filter.Limit, err = intParam(q.Get("limit")); err != nil {
			writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		if filter.Offset, err = intParam(q.Get("offset")); err != nil {
			writeError(w, r, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}

		list, err := env.Store.ListAnalyses(r.Context(), filter)
		if err != nil {
			zap.L().Error("list analyses failed", zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "list analyses failed")
			return
		}
		if list == nil {
			list = []model.Analysis{}
		}
		render.JSON(w, r, list)
	})

	r.Get("/analyses/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		a, err := env.Store.GetAnalysis(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, fmt.Sprintf("analysis %s not found", id))
			return
		}
		if err != nil {
			zap.L().Error("get analysis failed", zap.String("id", id), zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "get analysis failed")
			return
		}
		render.JSON(w, r, a)
	})

	r.Get("/policy", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, env.Policy.Table())
	})

	r.Get("/stages", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(pipeline.Graph()))
	})

	return r
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
