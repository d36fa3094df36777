package main

import (
	"net/http"
	"os"
	"time"

	"github.com/stratoio/objectgate/internal/api"
	"github.com/stratoio/objectgate/internal/config"
	"github.com/stratoio/objectgate/internal/facade"
	"github.com/stratoio/objectgate/internal/logging"
	"github.com/stratoio/objectgate/internal/middleware"
	"github.com/stratoio/objectgate/internal/version"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	f := facade.New(logger)
	r := api.Router(f, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.HttpPort,
		Handler:           middleware.Recoverer(r, logger),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       0, // allow long-running uploads/downloads; rely on LB timeouts
		WriteTimeout:      0,
		MaxHeaderBytes:    1 << 20, // 1MB headers
	}
	logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("version", version.Version))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}
