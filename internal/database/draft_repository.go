package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cubeclub-dev/cubedraft-backend/internal/models"
)

// ErrVersionConflict はドラフト更新時のバージョン競合を表すエラーです。
// 読み取り後に別の送信が先に書き込んだ場合に発生し、クライアントは
// 最新の状態を取得し直して再送信する必要があります。
var ErrVersionConflict = errors.New("ドラフトが他の送信によって更新されています。再試行してください")

// DraftRepository はドラフト関連のデータベース操作を定義するインターフェースです。
// ドラフト行は常に丸ごと読み、丸ごと書き戻します。パック配列とピック履歴を
// 部分更新すると互いの整合性が崩れるためです。
type DraftRepository interface {
	CreateDraft(d *models.Draft) error
	GetDraftByID(draftID string) (*models.Draft, error)
	UpdateDraftState(d *models.Draft) error
}

// draftRepositoryImpl はDraftRepositoryインターフェースの実装です。
type draftRepositoryImpl struct {
	db *sql.DB
}

// NewDraftRepository はDraftRepositoryの新しいインスタンスを作成します。
func NewDraftRepository(db *sql.DB) DraftRepository {
	return &draftRepositoryImpl{db: db}
}

// CreateDraft は新しいドラフトを挿入します。
// パック配列とピック履歴はJSONBカラムとして保存します。
func (r *draftRepositoryImpl) CreateDraft(d *models.Draft) error {
	packsJSON, err := json.Marshal(d.Packs)
	if err != nil {
		return fmt.Errorf("パック配列のマーシャルに失敗しました: %w", err)
	}
	picksJSON, err := json.Marshal(d.Picks)
	if err != nil {
		return fmt.Errorf("ピック履歴のマーシャルに失敗しました: %w", err)
	}

	now := time.Now()
	_, err = r.db.Exec(
		`INSERT INTO drafts (id, pool_id, seat, packs, picks, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.PoolID, d.Seat, packsJSON, picksJSON, d.Version, now, now,
	)
	if err != nil {
		return fmt.Errorf("新しいドラフトの挿入に失敗しました: %w", err)
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

// GetDraftByID は指定されたIDのドラフトを丸ごと取得します。
// ドラフトが存在しない場合はnilを返します。
func (r *draftRepositoryImpl) GetDraftByID(draftID string) (*models.Draft, error) {
	var d models.Draft
	var packsJSON, picksJSON []byte

	row := r.db.QueryRow(
		`SELECT id, pool_id, seat, packs, picks, version, created_at, updated_at FROM drafts WHERE id = $1`,
		draftID,
	)
	err := row.Scan(&d.ID, &d.PoolID, &d.Seat, &packsJSON, &picksJSON, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // ドラフトが存在しない場合はnilを返す
	}
	if err != nil {
		return nil, fmt.Errorf("ドラフトの取得に失敗しました: %w", err)
	}

	if err := json.Unmarshal(packsJSON, &d.Packs); err != nil {
		return nil, fmt.Errorf("パック配列のアンマーシャルに失敗しました: %w", err)
	}
	if err := json.Unmarshal(picksJSON, &d.Picks); err != nil {
		return nil, fmt.Errorf("ピック履歴のアンマーシャルに失敗しました: %w", err)
	}
	return &d, nil
}

// UpdateDraftState はドラフトのパック配列とピック履歴を1回の条件付き更新で書き戻します。
// 読み取り時のバージョンから変化していた場合は何も更新せずErrVersionConflictを返します
// （楽観ロック）。成功時は渡されたドラフトのVersionをインクリメントします。
func (r *draftRepositoryImpl) UpdateDraftState(d *models.Draft) error {
	packsJSON, err := json.Marshal(d.Packs)
	if err != nil {
		return fmt.Errorf("パック配列のマーシャルに失敗しました: %w", err)
	}
	picksJSON, err := json.Marshal(d.Picks)
	if err != nil {
		return fmt.Errorf("ピック履歴のマーシャルに失敗しました: %w", err)
	}

	result, err := r.db.Exec(
		`UPDATE drafts SET packs = $1, picks = $2, version = version + 1, updated_at = NOW()
		 WHERE id = $3 AND version = $4`,
		packsJSON, picksJSON, d.ID, d.Version,
	)
	if err != nil {
		return fmt.Errorf("ドラフトの更新に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ドラフト更新の結果確認に失敗しました: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	d.Version++
	return nil
}
