package api

import (
	"net/http"
	"time"

	"github.com/stratoio/objectgate/internal/facade"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	code  int
	bytes int64
}

func (sr *statusRecorder) WriteHeader(statusCode int) {
	sr.code = statusCode
	sr.ResponseWriter.WriteHeader(statusCode)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, code: 200}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.code),
				zap.Int64("respBytes", rec.bytes),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func Router(f *facade.Facade, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(requestLogger(logger))

	h := &handlers{f: f}

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/buckets", h.listBuckets)
		r.Post("/buckets/{name}", h.createBucket)
		r.Delete("/buckets/{name}", h.removeBucket)
		r.Get("/buckets/{name}/exists", h.bucketExists)
		r.Post("/buckets/{name}/archive", h.archiveBucket)
		r.Post("/buckets/{name}/transfer", h.transferBucket)
		r.Post("/buckets/{name}/tokenizer", h.uploadTokenizerData)

		r.Get("/buckets/{name}/objects", h.listObjects)
		r.Get("/buckets/{name}/object", h.getObject)
		r.Put("/buckets/{name}/object", h.putObject)
		r.Delete("/buckets/{name}/object", h.deleteObject)
		r.Get("/buckets/{name}/object/exists", h.objectExists)
		r.Post("/buckets/{name}/object/copy", h.copyObject)

		r.Get("/buckets/{name}/access-link", h.accessLink)
		r.Get("/buckets/{name}/upload-link", h.fileUploadLink)
		r.Get("/buckets/{name}/data-upload-link", h.dataUploadLink)
		r.Post("/buckets/{name}/credentials/upload", h.uploadCredentials)
		r.Get("/buckets/{name}/credentials/download", h.downloadCredentials)

		r.Post("/storage/empty", h.emptyStorage)
	})
	return r
}
