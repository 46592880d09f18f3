package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"melodex/cache"
	"melodex/config"
	"melodex/core/audio"
	"melodex/core/auth"
	"melodex/core/catalog"
	"melodex/core/ingest"
	"melodex/core/youtube"
	"melodex/db"
	"melodex/logger"
	"melodex/repository"
	"melodex/storage"
)

const searchCacheTTL = 5 * time.Minute
const categoryCacheTTL = 10 * time.Minute

// Start initializes every backing system and runs the HTTP server until a
// termination signal arrives.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
	})
	defer logger.Sync()

	ctx := context.Background()

	mongoClient, database, err := db.ConnectMongo(ctx, cfg)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", logger.ErrorField(err))
	}
	defer func() {
		if err := db.Disconnect(context.Background(), mongoClient); err != nil {
			logger.Warn("MongoDB disconnect failed", logger.ErrorField(err))
		}
	}()
	if err := db.EnsureIndexes(ctx, database); err != nil {
		logger.Fatal("could not ensure indexes", logger.ErrorField(err))
	}
	logger.Info("connected to MongoDB", logger.String("database", cfg.MongoDB))

	blobStore, err := storage.NewMinioStore(ctx, cfg)
	if err != nil {
		logger.Fatal("could not initialize blob storage", logger.ErrorField(err))
	}
	logger.Info("connected to blob storage", logger.String("bucket", cfg.MinioBucket))

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("could not connect to Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis", logger.String("addr", cfg.RedisAddr))

	songRepo := repository.NewMongoSongRepository(database)
	userRepo := repository.NewMongoUserRepository(database)
	playlistRepo := repository.NewMongoPlaylistRepository(database)
	categoryRepo := repository.NewMongoCategoryRepository(database)
	cachedCategories := cache.NewCategoryCache(categoryRepo, redisClient, categoryCacheTTL)

	source := youtube.NewClient(cfg.YTDLPPath)
	prober := audio.NewFFprobe(cfg.FFprobePath)
	searchCache := cache.NewSearchCache(redisClient, searchCacheTTL)

	ingestSvc := ingest.NewService(songRepo, userRepo, cachedCategories, blobStore, source, prober, searchCache, cfg)
	catalogSvc := catalog.NewService(playlistRepo, songRepo)
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTExpiry)

	apiHandler := NewAPIHandler(songRepo, userRepo, playlistRepo, cachedCategories, ingestSvc, catalogSvc, verifier, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Auth
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", apiHandler.AuthMiddleware(apiHandler.LogoutHandler)).Methods(http.MethodPost)

	// Songs
	router.HandleFunc("/api/songs", apiHandler.SearchSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", apiHandler.AuthMiddleware(apiHandler.RequireAuthor(apiHandler.CreateSongHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}", apiHandler.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.RequireAuthor(apiHandler.UpdateSongHandler))).Methods(http.MethodPut)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.RequireAuthor(apiHandler.DeleteSongHandler))).Methods(http.MethodDelete)

	// Categories
	router.HandleFunc("/api/categories", apiHandler.ListCategoriesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/categories", apiHandler.AuthMiddleware(apiHandler.RequireAuthor(apiHandler.CreateCategoryHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/categories/in-use", apiHandler.CategoriesInUseHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/categories/{id}", apiHandler.AuthMiddleware(apiHandler.RequireAuthor(apiHandler.DeleteCategoryHandler))).Methods(http.MethodDelete)

	// Video import
	router.HandleFunc("/api/import/search", apiHandler.AuthMiddleware(apiHandler.SearchCandidatesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/import", apiHandler.AuthMiddleware(apiHandler.ImportHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/import/batch", apiHandler.AuthMiddleware(apiHandler.ImportBatchHandler)).Methods(http.MethodPost)

	// Playlists
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists", apiHandler.AuthMiddleware(apiHandler.ListPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.GetPlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.RenamePlaylistHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/playlists/{id}", apiHandler.AuthMiddleware(apiHandler.DeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/songs", apiHandler.AuthMiddleware(apiHandler.PlaylistMembershipHandler)).Methods(http.MethodPost)

	// Users
	router.HandleFunc("/api/users", apiHandler.AuthMiddleware(apiHandler.ListUsersHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/me", apiHandler.AuthMiddleware(apiHandler.GetProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/me", apiHandler.AuthMiddleware(apiHandler.UpdateProfileHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/users/me", apiHandler.AuthMiddleware(apiHandler.DeleteAccountHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/users/me/favorites", apiHandler.AuthMiddleware(apiHandler.AddFavoriteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/users/me/favorites", apiHandler.AuthMiddleware(apiHandler.RemoveFavoriteHandler)).Methods(http.MethodDelete)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // imports block on extraction
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.ServerAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
	logger.Info("server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
