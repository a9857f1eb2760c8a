package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mantrafm/config"
	"mantrafm/core/auth"
	"mantrafm/core/lyrics"
	"mantrafm/core/songgen"
	"mantrafm/core/synth"
	"mantrafm/db"
	"mantrafm/logger"
	"mantrafm/model"
	"mantrafm/repository"
	"mantrafm/storage"

	"github.com/gorilla/mux"
	"github.com/minio/minio-go/v7"
)

// Start initializes every dependency and runs the HTTP server until
// an interrupt arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	auth.Configure(cfg.JWTSecret, cfg.JWTExpiresIn)

	// Generation blocks through the synthesis poll loop, so the write
	// timeout must cover the whole poll window.
	pollWindow := cfg.SynthPollInterval * time.Duration(cfg.SynthPollAttempts)
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: pollWindow + time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect gorm", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if err := db.AutoMigrateModels(&model.Playlist{}); err != nil {
		logger.Fatal("Failed to migrate playlist table", logger.ErrorField(err))
	}
	if err := db.SeedCuratedPlaylists(); err != nil {
		logger.Fatal("Failed to seed curated playlists", logger.ErrorField(err))
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	mantraRepo := repository.NewMySQLMantraRepository(db.DB)
	songRepo := repository.NewMySQLSongRepository(db.DB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)

	lyricsClient := lyrics.NewClient(&lyrics.Config{
		BaseURL:      cfg.OpenAIBaseURL,
		APIKey:       cfg.OpenAIKey,
		Model:        cfg.OpenAIModel,
		LyricsTokens: cfg.LyricsTokens,
		TitleTokens:  cfg.TitleTokens,
	})
	synthClient := synth.NewClient(&synth.Config{
		BaseURL: cfg.SynthBaseURL,
		APIKey:  cfg.SynthAPIKey,
		Poll: synth.PollPolicy{
			Interval:    cfg.SynthPollInterval,
			MaxAttempts: cfg.SynthPollAttempts,
		},
	})

	var mirror songgen.AudioMirror
	if cfg.MirrorAudio {
		mirror = storage.NewAudioMirror(cfg)
	}
	orchestrator := songgen.New(mantraRepo, songRepo, lyricsClient, synthClient, mirror)

	apiHandler := NewAPIHandler(userRepo, mantraRepo, songRepo, playlistRepo, orchestrator, cfg)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Auth
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// User
	router.HandleFunc("/api/user/profile", apiHandler.AuthMiddleware(apiHandler.GetUserProfileHandler)).Methods(http.MethodGet)

	// Mantras
	router.HandleFunc("/api/mantras", apiHandler.AuthMiddleware(apiHandler.CreateMantraHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/mantras", apiHandler.AuthMiddleware(apiHandler.GetMantrasHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/mantras/{id}", apiHandler.AuthMiddleware(apiHandler.GetMantraHandler)).Methods(http.MethodGet)

	// Songs
	router.HandleFunc("/api/songs/generate", apiHandler.AuthMiddleware(apiHandler.GenerateSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs", apiHandler.AuthMiddleware(apiHandler.GetSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.GetSongHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateSongHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteSongHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/songs/{id}/timeline", apiHandler.AuthMiddleware(apiHandler.SongTimelineHandler)).Methods(http.MethodGet)

	// Playlists
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.GetPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/songs", apiHandler.AuthMiddleware(apiHandler.GetPlaylistSongsHandler)).Methods(http.MethodGet)

	// Synthesis provider callback
	router.HandleFunc("/api/synth/callback", apiHandler.SynthCallbackHandler).Methods(http.MethodPost)

	// Karaoke line sync
	router.HandleFunc("/ws/karaoke/{id}", apiHandler.KaraokeHandler).Methods(http.MethodGet)

	// Mirrored audio served straight out of MinIO
	router.PathPrefix("/audio/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/")
		client := storage.GetMinioClient()
		if client == nil {
			http.Error(w, "Object storage not available", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		object, err := client.GetObject(ctx, cfg.MinioBucket, objectPath, minio.GetObjectOptions{})
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "public, max-age=31536000")

		if _, err := io.Copy(w, object); err != nil {
			logger.Error("Error serving audio from MinIO", logger.ErrorField(err))
		}
	})

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
