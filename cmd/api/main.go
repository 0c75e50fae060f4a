package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/cubeclub-dev/cubedraft-backend/internal/api/handlers"
	"github.com/cubeclub-dev/cubedraft-backend/internal/api/middleware"
	"github.com/cubeclub-dev/cubedraft-backend/internal/database"
	"github.com/cubeclub-dev/cubedraft-backend/internal/services/draft"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
		}
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("エラー: DATABASE_URL 環境変数が設定されていません。")
	}

	dbService, err := database.NewDatabaseService(databaseURL)
	if err != nil {
		log.Fatalf("データベースサービスの初期化に失敗しました: %v", err)
	}
	defer dbService.Close()

	// リポジトリとサービスの組み立て
	poolRepo := database.NewPoolRepository(dbService.DB)
	draftRepo := database.NewDraftRepository(dbService.DB)
	draftService := draft.NewDraftService(poolRepo, draftRepo, draft.DefaultFormat())

	publicHandler := handlers.NewPublicHandler(dbService)
	poolHandler := handlers.NewPoolHandler(poolRepo)
	draftHandler := handlers.NewDraftHandler(draftService)

	r := mux.NewRouter()

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/public", handlers.PublicHandlerFunc).Methods("GET")
	r.HandleFunc("/api/health", publicHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/api/pools", poolHandler.ListPools).Methods("GET")
	r.HandleFunc("/api/pools/{poolID}", poolHandler.GetPool).Methods("GET")
	r.HandleFunc("/api/drafts/{draftID}", draftHandler.GetDraft).Methods("GET")
	r.HandleFunc("/api/drafts/{draftID}/picks/{pickNumber}", draftHandler.GetPickView).Methods("GET")

	// 認証が必要なルートグループを作成
	// /api/protected/ で始まる全てのパスにAuthMiddlewareを適用します。
	protectedRouter := r.PathPrefix("/api/protected").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware)
	protectedRouter.HandleFunc("/drafts", draftHandler.CreateDraft).Methods("POST")
	protectedRouter.HandleFunc("/drafts/{draftID}/picks", draftHandler.SubmitPick).Methods("POST")

	corsHandler := middleware.CORSHandler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler(r)))
}
