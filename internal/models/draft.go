package models

import "time"

// Pack はドラフト中に1つの席へ提示されるカードの束です。
// 構築後は中身不変で、ローテーションによって位置（担当席）だけが変わります。
type Pack struct {
	ID      string   `json:"id"`      // "pack_1" のような連番ID。ピック検証のジョインキーになります
	CardIDs []string `json:"cardIds"` // パックに含まれるカードID（順序あり）
}

// PickEntry は1席分のピック履歴1件に対応します。
// どのパックからどの2枚を取ったかを記録します。
type PickEntry struct {
	PackID  string   `json:"packId"`
	CardIDs []string `json:"cardIds"`
}

// Draft はdraftsテーブルのレコードに対応する集約ルートです。
// packs は seat*3 個のパックを保持し、picks は席インデックスごとのピック履歴です。
// Version は楽観ロック用のバージョン番号で、更新のたびにインクリメントされます。
type Draft struct {
	ID        string        `json:"id"`
	PoolID    string        `json:"poolId"`
	Seat      int           `json:"seat"`
	Packs     []Pack        `json:"packs"`
	Picks     [][]PickEntry `json:"picks"` // 外側の配列は席インデックス
	Version   int           `json:"version"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Clone はドラフトのディープコピーを返します。
// エンジンはスナップショットを書き換えるため、検証失敗時に元の状態を保つ目的で使用します。
func (d *Draft) Clone() *Draft {
	c := *d
	c.Packs = make([]Pack, len(d.Packs))
	for i, p := range d.Packs {
		c.Packs[i] = Pack{ID: p.ID, CardIDs: append([]string(nil), p.CardIDs...)}
	}
	c.Picks = make([][]PickEntry, len(d.Picks))
	for i, seatPicks := range d.Picks {
		c.Picks[i] = make([]PickEntry, len(seatPicks))
		for j, e := range seatPicks {
			c.Picks[i][j] = PickEntry{PackID: e.PackID, CardIDs: append([]string(nil), e.CardIDs...)}
		}
	}
	return &c
}

// DraftCreateRequest はドラフト作成APIのリクエストボディです。
// Seat が省略(0)の場合はデフォルトの8席になります。
type DraftCreateRequest struct {
	PoolID string `json:"poolId"`
	Seat   int    `json:"seat"`
}

// DraftCreateResponse はドラフト作成APIのレスポンスです。
type DraftCreateResponse struct {
	DraftID    string `json:"draftId"`
	PacksCount int    `json:"packsCount"`
}

// PickSubmissionEntry は1席分のピック送信内容です。
// SeatIndex はポインタにして「数値が送られていない」ことを区別します。
type PickSubmissionEntry struct {
	SeatIndex *int     `json:"seatIndex"`
	PackID    string   `json:"packId"`
	CardIDs   []string `json:"cardIds"`
}

// PickSubmissionRequest はピック送信APIのリクエストボディです。
// 全席分のエントリを同時に送信します。
type PickSubmissionRequest struct {
	PickNumber int                   `json:"pickNumber"`
	Picks      []PickSubmissionEntry `json:"picks"`
}

// PickSubmissionResponse はピック送信APIのレスポンスです。
// IsComplete が true の場合、クライアントは全ピック閲覧ページへ遷移します。
type PickSubmissionResponse struct {
	NextPickNumber int  `json:"nextPickNumber"`
	IsComplete     bool `json:"isComplete"`
}
