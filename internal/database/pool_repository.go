package database

import (
	"database/sql"
	"fmt"

	"github.com/cubeclub-dev/cubedraft-backend/internal/models"
)

// PoolRepository はカードプール関連のデータベース操作を定義するインターフェースです。
// プールはドラフトエンジンから読み取り専用で、作成・編集は管理画面側の操作です。
type PoolRepository interface {
	ListPools(tx *sql.Tx) ([]models.Pool, error)
	GetPoolByID(tx *sql.Tx, poolID string) (*models.Pool, error)
	GetCandidatesByPoolID(tx *sql.Tx, poolID string) (*models.PoolCandidates, error)
}

// poolRepositoryImpl はPoolRepositoryインターフェースの実装です。
type poolRepositoryImpl struct {
	db *sql.DB
}

// NewPoolRepository はPoolRepositoryの新しいインスタンスを作成します。
func NewPoolRepository(db *sql.DB) PoolRepository {
	return &poolRepositoryImpl{db: db}
}

// ListPools は全プールを作成日時の降順で取得します。
func (r *poolRepositoryImpl) ListPools(tx *sql.Tx) ([]models.Pool, error) {
	query := `SELECT id, name, status, card_count, created_at FROM pools ORDER BY created_at DESC`

	// NOTE: トランザクションがnilの場合も考慮 (Read-only操作のため)
	var rows *sql.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(query)
	} else {
		rows, err = r.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("プール一覧のクエリに失敗しました: %w", err)
	}
	defer rows.Close()

	pools := []models.Pool{}
	for rows.Next() {
		var p models.Pool
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.CardCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("プール行のスキャンに失敗しました: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プール一覧のイテレーション中にエラーが発生しました: %w", err)
	}
	return pools, nil
}

// GetPoolByID は指定されたIDのプールを取得します。
// プールが存在しない場合はnilを返します。
func (r *poolRepositoryImpl) GetPoolByID(tx *sql.Tx, poolID string) (*models.Pool, error) {
	query := `SELECT id, name, status, card_count, created_at FROM pools WHERE id = $1`

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRow(query, poolID)
	} else {
		row = r.db.QueryRow(query, poolID)
	}

	pool := &models.Pool{}
	err := row.Scan(&pool.ID, &pool.Name, &pool.Status, &pool.CardCount, &pool.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // プールが存在しない場合はnilを返す
	}
	if err != nil {
		return nil, fmt.Errorf("プールの取得に失敗しました: %w", err)
	}
	return pool, nil
}

// GetCandidatesByPoolID は指定プールの候補カードIDをタグごとに分類して取得します。
// welcomeタグのカードはドラフト対象外のため結果に含めません。
func (r *poolRepositoryImpl) GetCandidatesByPoolID(tx *sql.Tx, poolID string) (*models.PoolCandidates, error) {
	query := `SELECT card_id, tag FROM pool_cards WHERE pool_id = $1 ORDER BY card_id ASC`

	var rows *sql.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(query, poolID)
	} else {
		rows, err = r.db.Query(query, poolID)
	}
	if err != nil {
		return nil, fmt.Errorf("候補カードのクエリに失敗しました: %w", err)
	}
	defer rows.Close()

	candidates := &models.PoolCandidates{
		Commanders: []string{},
		Others:     []string{},
	}
	for rows.Next() {
		var cardID string
		var tag string
		if err := rows.Scan(&cardID, &tag); err != nil {
			return nil, fmt.Errorf("候補カード行のスキャンに失敗しました: %w", err)
		}
		switch models.CardTag(tag) {
		case models.TagCommander:
			candidates.Commanders = append(candidates.Commanders, cardID)
		case models.TagWelcome:
			// ドラフト対象外
		default:
			candidates.Others = append(candidates.Others, cardID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("候補カードのイテレーション中にエラーが発生しました: %w", err)
	}
	return candidates, nil
}
