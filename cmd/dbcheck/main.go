package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv" // .envファイルを読み込むため
	_ "github.com/lib/pq"      // PostgreSQLドライバー
)

// データベース接続を確認するための開発用コマンドです。
func main() {
	// .envファイルを読み込む (開発環境の場合)
	err := godotenv.Load()
	if err != nil {
		log.Printf("warning: Error loading .env file: %v", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("エラー: DATABASE_URL 環境変数が設定されていません。")
	}

	fmt.Printf("テスト開始: データベース接続を試行中...\nURLの最初の50文字: %s...\n", databaseURL[:min(len(databaseURL), 50)])

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		log.Fatalf("エラー: データベースへの接続オブジェクト作成に失敗しました: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("エラー: データベースのPingに失敗しました。接続情報やネットワークを確認してください: %v", err)
	}

	fmt.Println("成功: データベースに正常に接続し、Pingが成功しました！")

	// ドラフト関連テーブルの存在を確認する
	for _, table := range []string{"pools", "pool_cards", "drafts"} {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&count); err != nil {
			log.Printf("警告: テーブル %s の確認に失敗しました: %v", table, err)
		} else {
			fmt.Printf("テーブル %s: %d 行\n", table, count)
		}
	}
}

// min helper function for logging
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
