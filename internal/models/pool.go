package models

import "time"

// CardTag はプール内のカードの役割を表すタグです。
type CardTag string

const (
	TagCommander CardTag = "commander" // 統率者スロット候補
	TagWelcome   CardTag = "welcome"   // ドラフト対象外（ウェルカムデッキ用）
	TagOther     CardTag = "other"     // 残りスロットを埋める通常カード
)

// Pool はpoolsテーブルのレコードに対応する構造体です。
// ドラフトに使用できるカードの固定セットを表します。エンジンからは読み取り専用です。
type Pool struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`    // ライフサイクル状態 (draft / published / archived)
	CardCount int       `json:"cardCount"` // プールに含まれるカード総数
	CreatedAt time.Time `json:"createdAt"`
}

// PoolCandidates はプールの候補カードIDをタグごとに分類したものです。
// welcomeタグのカードはドラフト対象外のため、ここには含まれません。
type PoolCandidates struct {
	Commanders []string `json:"commanders"`
	Others     []string `json:"others"`
}

// PoolResponse はAPIレスポンスでプール情報を返す際に使用します。
type PoolResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CardCount int       `json:"cardCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse はプールをAPIレスポンス用の構造体へ変換します。
func (p Pool) ToResponse() PoolResponse {
	return PoolResponse{
		ID:        p.ID,
		Name:      p.Name,
		Status:    p.Status,
		CardCount: p.CardCount,
		CreatedAt: p.CreatedAt,
	}
}
