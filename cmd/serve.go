package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/berrytrace/coldchain-cli/internal/system"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		r := chi.NewRouter()
		r.Use(requestLogger)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/batches", func(w http.ResponseWriter, req *http.Request) {
				batches, err := e.Batch.List(req.Context())
				if err != nil {
					writeError(w, http.StatusBadGateway, err)
					return
				}
				writeJSON(w, http.StatusOK, batches)
			})

			r.Post("/batches", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					BerryType string `json:"berry_type"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
					return
				}
				b, err := e.Batch.Create(req.Context(), body.BerryType)
				if err != nil {
					writeError(w, http.StatusBadGateway, err)
					return
				}
				writeJSON(w, http.StatusCreated, b)
			})

			r.Get("/batches/{id}", func(w http.ResponseWriter, req *http.Request) {
				b, err := e.Batch.Get(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusNotFound, err)
					return
				}
				writeJSON(w, http.StatusOK, b)
			})

			r.Get("/batches/{id}/report", func(w http.ResponseWriter, req *http.Request) {
				rep, err := e.Batch.Report(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					// Best-effort report still renders.
					zap.L().Warn("report degraded", zap.Error(err))
				}
				writeJSON(w, http.StatusOK, rep)
			})

			r.Get("/batches/{id}/temperature", func(w http.ResponseWriter, req *http.Request) {
				readings, err := e.Temperature.History(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusBadGateway, err)
					return
				}
				writeJSON(w, http.StatusOK, readings)
			})

			r.Get("/batches/{id}/quality", func(w http.ResponseWriter, req *http.Request) {
				qa, err := e.Quality.Assess(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusBadGateway, err)
					return
				}
				writeJSON(w, http.StatusOK, qa)
			})

			r.Get("/batches/{id}/recommendations", func(w http.ResponseWriter, req *http.Request) {
				set, err := e.Quality.Recommendations(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}
				writeJSON(w, http.StatusOK, set)
			})

			r.Post("/batches/{id}/complete", func(w http.ResponseWriter, req *http.Request) {
				p, err := e.Batch.Complete(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusBadGateway, err)
					return
				}
				writeJSON(w, http.StatusOK, p)
			})

			r.Post("/temperature", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					BatchID     string  `json:"batch_id"`
					Temperature float64 `json:"temperature"`
					Location    string  `json:"location"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
					return
				}
				p, err := e.Temperature.Record(req.Context(), body.BatchID, body.Temperature, body.Location)
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}
				writeJSON(w, http.StatusOK, p)
			})

			r.Get("/system/health", func(w http.ResponseWriter, req *http.Request) {
				metrics, err := e.System.Health(req.Context(), false)
				if err != nil && !eris.Is(err, system.ErrUnrecognizedHealth) {
					writeError(w, http.StatusBadGateway, err)
					return
				}
				writeJSON(w, http.StatusOK, metrics)
			})

			r.Get("/transactions", func(w http.ResponseWriter, req *http.Request) {
				page, _ := strconv.Atoi(req.URL.Query().Get("page"))
				pageSize, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
				txs, err := e.System.Transactions(req.Context(), page, pageSize)
				if err != nil {
					writeError(w, http.StatusBadGateway, err)
					return
				}
				writeJSON(w, http.StatusOK, txs)
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// requestLogger tags each request with an id and logs it on completion.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		start := time.Now()
		next.ServeHTTP(w, r)

		zap.L().Info("request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
