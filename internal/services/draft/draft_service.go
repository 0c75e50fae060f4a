package draft

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/cubeclub-dev/cubedraft-backend/internal/database"
	"github.com/cubeclub-dev/cubedraft-backend/internal/models"
)

// DraftService はドラフト関連のビジネスロジックを定義するインターフェースです。
// エンジンはプロセス内に状態を持たず、操作のたびに永続化されたスナップショットを
// 読み直して計算し、結果を丸ごと書き戻します。
type DraftService interface {
	InitializeDraft(poolID string, seat int) (*models.DraftCreateResponse, error)
	SubmitPick(draftID string, pickNumber int, picks []models.PickSubmissionEntry) (*models.PickSubmissionResponse, error)
	GetDraft(draftID string) (*models.Draft, error)
	ProjectPick(draftID string, pickNumber int) (*PickProjection, error)
}

// draftServiceImpl はDraftServiceインターフェースの実装です。
type draftServiceImpl struct {
	poolRepo  database.PoolRepository
	draftRepo database.DraftRepository
	format    Format
}

// NewDraftService はDraftServiceの新しいインスタンスを作成します。
func NewDraftService(poolRepo database.PoolRepository, draftRepo database.DraftRepository, format Format) DraftService {
	return &draftServiceImpl{
		poolRepo:  poolRepo,
		draftRepo: draftRepo,
		format:    format,
	}
}

// InitializeDraft は指定プールからseat*3個のパックを構築し、
// 空のピック履歴を持つ新しいドラフトを作成して永続化します。
// seat が 0 の場合はデフォルトの8席として扱います。
func (s *draftServiceImpl) InitializeDraft(poolID string, seat int) (*models.DraftCreateResponse, error) {
	if seat == 0 {
		seat = DefaultSeatCount
	}
	if seat < 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("席数は1以上である必要があります: %d", seat)}
	}

	pool, err := s.poolRepo.GetPoolByID(nil, poolID)
	if err != nil {
		return nil, fmt.Errorf("プールの取得に失敗しました: %w", err)
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}

	candidates, err := s.poolRepo.GetCandidatesByPoolID(nil, poolID)
	if err != nil {
		return nil, fmt.Errorf("プールの候補カード取得に失敗しました: %w", err)
	}

	builder := NewPackBuilder(s.format)
	packs, err := builder.Build(candidates.Commanders, candidates.Others, s.format.TotalPacks(seat))
	if err != nil {
		// 在庫不足エラーは数量診断ごとそのまま呼び出し元へ返す
		return nil, err
	}

	picks := make([][]models.PickEntry, seat)
	for i := range picks {
		picks[i] = []models.PickEntry{}
	}

	newDraft := &models.Draft{
		ID:      uuid.New().String(),
		PoolID:  poolID,
		Seat:    seat,
		Packs:   packs,
		Picks:   picks,
		Version: 1,
	}
	if err := s.draftRepo.CreateDraft(newDraft); err != nil {
		return nil, fmt.Errorf("ドラフトの作成に失敗しました: %w", err)
	}

	log.Printf("DraftService Info: プール %s から %d 席・%d パックのドラフト %s を作成しました", poolID, seat, len(packs), newDraft.ID)
	return &models.DraftCreateResponse{
		DraftID:    newDraft.ID,
		PacksCount: len(packs),
	}, nil
}

// SubmitPick は全席同時のピック送信を検証し、各席の履歴へ追記したうえで
// スライス内のパックをローテーションします。検証は順番に行い、最初の失敗で
// 一切の変更なしに中断します（全席分が揃うか、何も起きないかのどちらか）。
func (s *draftServiceImpl) SubmitPick(draftID string, pickNumber int, picks []models.PickSubmissionEntry) (*models.PickSubmissionResponse, error) {
	// 1. 送信内容の形の検証。状態を読む前に弾きます。
	if len(picks) == 0 {
		return nil, &ValidationError{Message: "ピック送信の内容が不正です"}
	}
	for _, entry := range picks {
		if entry.SeatIndex == nil || entry.PackID == "" || len(entry.CardIDs) != s.format.CardsPerPick {
			return nil, &ValidationError{Message: "ピック送信の内容が不正です"}
		}
		for _, cardID := range entry.CardIDs {
			if cardID == "" {
				return nil, &ValidationError{Message: "ピック送信の内容が不正です"}
			}
		}
	}

	// 2. ドラフトの存在確認
	d, err := s.draftRepo.GetDraftByID(draftID)
	if err != nil {
		return nil, fmt.Errorf("ドラフトの取得に失敗しました: %w", err)
	}
	if d == nil {
		return nil, ErrDraftNotFound
	}

	// 3. ピック番号の検証。クライアントのスライス計算は信用せず、
	// 現在の履歴からサーバー側で算出し直した番号と突き合わせます。
	packSize := 0
	if len(d.Packs) > 0 {
		packSize = len(d.Packs[0].CardIDs)
	}
	current := currentPickNumber(d)
	info := ResolveSlice(len(d.Packs), d.Seat, current, packSize, s.format.CardsPerPick)
	// 完了済みドラフトでは現在値が総ピック数を超え、丸め込みで最終ピック番号に
	// 戻ってしまう。丸めはリゾルバの読み取り側だけの寛容さなので、
	// 変更操作では丸める前の現在値で完了を判定して拒否します。
	if current > info.TotalPicks {
		return nil, ErrDraftComplete
	}
	if pickNumber != info.ClampedPickNumber {
		return nil, &StalePickError{Submitted: pickNumber, Current: info.ClampedPickNumber}
	}

	// 4. 全席分のエントリが揃っているかの検証
	bySeat := make(map[int]models.PickSubmissionEntry, d.Seat)
	for _, entry := range picks {
		seatIndex := *entry.SeatIndex
		if seatIndex < 0 || seatIndex >= d.Seat {
			return nil, &ValidationError{Message: fmt.Sprintf("席 %d は範囲外です", seatIndex)}
		}
		if _, dup := bySeat[seatIndex]; dup {
			return nil, &ValidationError{Message: fmt.Sprintf("席 %d の選択が重複しています", seatIndex)}
		}
		bySeat[seatIndex] = entry
	}
	for seatIndex := 0; seatIndex < d.Seat; seatIndex++ {
		if _, ok := bySeat[seatIndex]; !ok {
			return nil, &MissingSelectionError{Seat: seatIndex}
		}
	}

	// 5. 各席のpackIdが現在のスライス割当と一致するかの検証
	for seatIndex := 0; seatIndex < d.Seat; seatIndex++ {
		idx := info.ActivePackIndex(seatIndex, len(d.Packs))
		if idx < 0 || bySeat[seatIndex].PackID != d.Packs[idx].ID {
			return nil, &PackMismatchError{Seat: seatIndex}
		}
	}

	// 検証完了。ここから先は送信順に履歴へ追記します。
	for _, entry := range picks {
		seatIndex := *entry.SeatIndex
		d.Picks[seatIndex] = append(d.Picks[seatIndex], models.PickEntry{
			PackID:  entry.PackID,
			CardIDs: append([]string(nil), entry.CardIDs...),
		})
	}

	// ローテーションは次のピックが同じスライスに留まる場合のみ行います。
	// 次のスライスへ進む際は構築時の割当のまま引き継ぎます。
	next := info.ClampedPickNumber + 1
	isComplete := next > info.TotalPicks
	if !isComplete {
		nextInfo := ResolveSlice(len(d.Packs), d.Seat, next, packSize, s.format.CardsPerPick)
		if nextInfo.SliceIndex == info.SliceIndex {
			rotatePacks(d.Packs, info.StartIndex, d.Seat, info.SliceIndex)
		}
	}

	// ピック履歴とパック配列を1回の条件付き更新で書き戻します。
	// 読み取り後に別の送信が先に書き込んでいた場合はバージョン競合になります。
	if err := s.draftRepo.UpdateDraftState(d); err != nil {
		return nil, err
	}

	log.Printf("DraftService Info: ドラフト %s のピック %d を記録しました (次: %d, 完了: %v)", draftID, info.ClampedPickNumber, next, isComplete)
	return &models.PickSubmissionResponse{
		NextPickNumber: next,
		IsComplete:     isComplete,
	}, nil
}

// GetDraft はドラフトのスナップショットをそのまま返します。
func (s *draftServiceImpl) GetDraft(draftID string) (*models.Draft, error) {
	d, err := s.draftRepo.GetDraftByID(draftID)
	if err != nil {
		return nil, fmt.Errorf("ドラフトの取得に失敗しました: %w", err)
	}
	if d == nil {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// ProjectPick は指定ピック番号時点の表示用状態を再構築して返します。
func (s *draftServiceImpl) ProjectPick(draftID string, pickNumber int) (*PickProjection, error) {
	d, err := s.GetDraft(draftID)
	if err != nil {
		return nil, err
	}
	projection := ProjectPickHistory(d, pickNumber, s.format)
	return &projection, nil
}

// currentPickNumber は履歴の長さから現在の論理ピック番号を導出します。
// 全席同時ピックのため通常は全席の履歴長が等しく、最短の履歴を基準にします。
func currentPickNumber(d *models.Draft) int {
	if len(d.Picks) == 0 {
		return 1
	}
	shortest := len(d.Picks[0])
	for _, seatPicks := range d.Picks[1:] {
		if len(seatPicks) < shortest {
			shortest = len(seatPicks)
		}
	}
	return shortest + 1
}
