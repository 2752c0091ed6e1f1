package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"caramelo/internal/engine"
	"caramelo/internal/source"
)

const maxUploadSize = 100 << 20 // 100 MB

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, eng *engine.Engine, withMetrics bool) {
	mux.HandleFunc("/ws", HandleWebSocket(eng))
	mux.HandleFunc("/api/upload", handleUpload(eng))
	mux.HandleFunc("/api/healthz", handleHealth(eng))
	if withMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
}

// handleUpload replaces the working batch with a recorded batch file
// (JSON or YAML, chosen by file extension).
func handleUpload(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "File too large (max 100MB)", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Invalid upload: "+err.Error(), http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		packets, err := source.DecodeBatch(file, source.FormatFromName(header.Filename))
		if err != nil {
			http.Error(w, "Failed to read batch: "+err.Error(), http.StatusBadRequest)
			return
		}

		log.WithFields(log.Fields{
			"file":    header.Filename,
			"packets": len(packets),
		}).Info("Batch uploaded")
		eng.Ingest("upload", packets)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

func handleHealth(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(eng.Stats())
	}
}
