package draft

import "github.com/cubeclub-dev/cubedraft-backend/internal/models"

// SeatProjection は1席分の表示用ピック状態です。
type SeatProjection struct {
	SeatIndex          int      `json:"seatIndex"`
	PackID             string   `json:"packId"`             // 表示に使うパックID
	VisibleCardIDs     []string `json:"visibleCardIds"`     // その席のパックに残って見えているカード
	PickedSoFarCardIDs []string `json:"pickedSoFarCardIds"` // 対象ピックより前に取った累積カード
	IsCompleted        bool     `json:"isCompleted"`        // この席が対象ピックを記録済みか
	HistoricalPackID   string   `json:"historicalPackId,omitempty"`
}

// PickProjection はあるピック番号の全席分の表示用状態です。
type PickProjection struct {
	PickNumber  int              `json:"pickNumber"`
	SliceIndex  int              `json:"sliceIndex"`
	TotalPicks  int              `json:"totalPicks"`
	IsCompleted bool             `json:"isCompleted"` // 全席が対象ピックを記録済みか
	Seats       []SeatProjection `json:"seats"`
}

// ProjectPickHistory はドラフトのスナップショットから、指定ピック番号時点の
// 各席の表示状態を再構築する読み取り専用の純粋関数です。進行中のピックにも
// 過去のピックにも同じスライス計算を使うため、ページ描画のたびに呼んでも
// 同一入力に対して常に同一の結果を返します。
//
// 完了済みのピックでは、その席の履歴に記録されたpackIdで描画します。
// ローテーションでpacks配列の並びが変わっていても、当時見ていたパックを
// 正しく復元するためです。未完了のピックは現在のスライス割当で描画します。
func ProjectPickHistory(d *models.Draft, targetPickNumber int, format Format) PickProjection {
	packSize := 0
	if len(d.Packs) > 0 {
		packSize = len(d.Packs[0].CardIDs)
	}
	info := ResolveSlice(len(d.Packs), d.Seat, targetPickNumber, packSize, format.CardsPerPick)
	target := info.ClampedPickNumber

	packsByID := make(map[string]*models.Pack, len(d.Packs))
	for i := range d.Packs {
		packsByID[d.Packs[i].ID] = &d.Packs[i]
	}

	// 対象ピックより前のピックでパックから取り除かれたカードをpackIdごとに集計する。
	// 履歴のインデックス i はピック番号 i+1 に対応します。
	removedByPack := make(map[string]map[string]struct{})
	for _, seatPicks := range d.Picks {
		for i, entry := range seatPicks {
			if i+1 >= target {
				break
			}
			removed, ok := removedByPack[entry.PackID]
			if !ok {
				removed = make(map[string]struct{}, len(entry.CardIDs))
				removedByPack[entry.PackID] = removed
			}
			for _, cardID := range entry.CardIDs {
				removed[cardID] = struct{}{}
			}
		}
	}

	allCompleted := true
	seats := make([]SeatProjection, d.Seat)
	for s := 0; s < d.Seat; s++ {
		seatPicks := []models.PickEntry(nil)
		if s < len(d.Picks) {
			seatPicks = d.Picks[s]
		}
		completed := len(seatPicks) >= target
		if !completed {
			allCompleted = false
		}

		proj := SeatProjection{
			SeatIndex:   s,
			IsCompleted: completed,
		}

		if completed {
			proj.HistoricalPackID = seatPicks[target-1].PackID
			proj.PackID = proj.HistoricalPackID
		} else if idx := info.ActivePackIndex(s, len(d.Packs)); idx >= 0 {
			proj.PackID = d.Packs[idx].ID
		}

		if pack, ok := packsByID[proj.PackID]; ok {
			removed := removedByPack[pack.ID]
			visible := make([]string, 0, len(pack.CardIDs))
			for _, cardID := range pack.CardIDs {
				if _, gone := removed[cardID]; !gone {
					visible = append(visible, cardID)
				}
			}
			proj.VisibleCardIDs = visible
		} else {
			proj.VisibleCardIDs = []string{}
		}

		pickedSoFar := []string{}
		for i, entry := range seatPicks {
			if i+1 >= target {
				break
			}
			pickedSoFar = append(pickedSoFar, entry.CardIDs...)
		}
		proj.PickedSoFarCardIDs = pickedSoFar

		seats[s] = proj
	}

	return PickProjection{
		PickNumber:  target,
		SliceIndex:  info.SliceIndex,
		TotalPicks:  info.TotalPicks,
		IsCompleted: allCompleted,
		Seats:       seats,
	}
}
