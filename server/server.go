package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ftp2http/config"
	"ftp2http/core/playback"
	"ftp2http/logger"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start(cfg *config.Config) {
	logger.Init(logger.Config{Level: cfg.LogLevel, OutputPath: cfg.LogOutput})

	dial := newStoreFactory(cfg)
	probeFTP(dial, cfg)

	// 播放状态广播中心，整个进程只有一个
	hub := playback.NewHub()
	go hub.Run()

	fileHandler := NewFileHandler(dial)
	browseHandler := NewBrowseHandler(dial, cfg.FTPAddr())
	syncHandler := NewSyncHandler(hub)

	router := mux.NewRouter()

	// CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	router.Handle("/", browseHandler).Methods(http.MethodGet)
	router.Handle("/file", fileHandler).Methods(http.MethodGet)
	router.HandleFunc("/videosync", syncHandler.PageHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", syncHandler.WSHandler).Methods(http.MethodGet)

	// 大文件流式传输和 websocket 长连接都不能设写超时
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("http host running",
			logger.String("url", fmt.Sprintf("http://localhost:%d", cfg.HTTPPort)))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

// probeFTP 启动时验证一次 FTP 连通性。失败只告警，
// 之后的每个请求仍然各自建连。
func probeFTP(dial storeFactory, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := dial(ctx)
	if err != nil {
		logger.Warn("ftp probe failed, will keep dialing per request",
			logger.String("host", cfg.FTPAddr()),
			logger.ErrorField(err))
		return
	}
	if err := client.Close(); err != nil {
		logger.Warn("ftp probe close", logger.ErrorField(err))
	}

	logger.Info("connected to ftp host",
		logger.String("target", fmt.Sprintf("%s@%s", cfg.FTPUser, cfg.FTPAddr())))
}
