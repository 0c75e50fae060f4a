package draft

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/cubeclub-dev/cubedraft-backend/internal/database"
	"github.com/cubeclub-dev/cubedraft-backend/internal/models"
)

// fakePoolRepo はテスト用のインメモリPoolRepository実装です。
type fakePoolRepo struct {
	pool       *models.Pool
	candidates *models.PoolCandidates
}

func (f *fakePoolRepo) ListPools(tx *sql.Tx) ([]models.Pool, error) {
	if f.pool == nil {
		return []models.Pool{}, nil
	}
	return []models.Pool{*f.pool}, nil
}

func (f *fakePoolRepo) GetPoolByID(tx *sql.Tx, poolID string) (*models.Pool, error) {
	if f.pool != nil && f.pool.ID == poolID {
		return f.pool, nil
	}
	return nil, nil
}

func (f *fakePoolRepo) GetCandidatesByPoolID(tx *sql.Tx, poolID string) (*models.PoolCandidates, error) {
	return f.candidates, nil
}

// fakeDraftRepo はテスト用のインメモリDraftRepository実装です。
// 本物と同様、読み取りはスナップショットのコピーを返し、
// 書き込みは丸ごと置き換えてバージョンを進めます。
type fakeDraftRepo struct {
	drafts    map[string]*models.Draft
	updateErr error
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: make(map[string]*models.Draft)}
}

func (f *fakeDraftRepo) CreateDraft(d *models.Draft) error {
	f.drafts[d.ID] = d.Clone()
	return nil
}

func (f *fakeDraftRepo) GetDraftByID(draftID string) (*models.Draft, error) {
	d, ok := f.drafts[draftID]
	if !ok {
		return nil, nil
	}
	return d.Clone(), nil
}

func (f *fakeDraftRepo) UpdateDraftState(d *models.Draft) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored := d.Clone()
	stored.Version++
	f.drafts[d.ID] = stored
	d.Version++
	return nil
}

// newTestPoolRepo は指定席数のドラフトに十分な在庫を持つプールを用意します。
func newTestPoolRepo(seat int) *fakePoolRepo {
	format := DefaultFormat()
	totalPacks := format.TotalPacks(seat)
	return &fakePoolRepo{
		pool: &models.Pool{ID: "pool-1", Name: "テストキューブ", Status: "published"},
		candidates: &models.PoolCandidates{
			Commanders: genCardIDs("cmd", format.NeedCommanders*totalPacks),
			Others:     genCardIDs("oth", format.NeedOthers*totalPacks),
		},
	}
}

// createTestDraft はドラフトを1つ作成し、サービスとリポジトリとドラフトIDを返します。
func createTestDraft(t *testing.T, seat int) (DraftService, *fakeDraftRepo, string) {
	t.Helper()
	draftRepo := newFakeDraftRepo()
	service := NewDraftService(newTestPoolRepo(seat), draftRepo, DefaultFormat())

	resp, err := service.InitializeDraft("pool-1", seat)
	if err != nil {
		t.Fatalf("InitializeDraft failed: %v", err)
	}
	return service, draftRepo, resp.DraftID
}

func intPtr(i int) *int {
	return &i
}

// buildSubmission は現在のドラフト状態から全席分の正しい送信内容を組み立てます。
// 各席の現在の割当パックから、まだ残っている先頭2枚を選びます。
func buildSubmission(t *testing.T, d *models.Draft, pickNumber int) []models.PickSubmissionEntry {
	t.Helper()
	projection := ProjectPickHistory(d, pickNumber, DefaultFormat())
	entries := make([]models.PickSubmissionEntry, 0, d.Seat)
	for _, seatProj := range projection.Seats {
		if len(seatProj.VisibleCardIDs) < 2 {
			t.Fatalf("seat %d has fewer than 2 visible cards at pick %d", seatProj.SeatIndex, pickNumber)
		}
		entries = append(entries, models.PickSubmissionEntry{
			SeatIndex: intPtr(seatProj.SeatIndex),
			PackID:    seatProj.PackID,
			CardIDs:   []string{seatProj.VisibleCardIDs[0], seatProj.VisibleCardIDs[1]},
		})
	}
	return entries
}

// TestInitializeDraft_CreatesPacksAndEmptyHistory はドラフト作成で
// seat*3個のパックと空のピック履歴が永続化されることを検証します。
func TestInitializeDraft_CreatesPacksAndEmptyHistory(t *testing.T) {
	_, draftRepo, draftID := createTestDraft(t, 4)

	d := draftRepo.drafts[draftID]
	if d == nil {
		t.Fatal("draft was not persisted")
	}
	if len(d.Packs) != 12 {
		t.Errorf("expected 12 packs, got %d", len(d.Packs))
	}
	if len(d.Picks) != 4 {
		t.Errorf("expected 4 pick histories, got %d", len(d.Picks))
	}
	for i, seatPicks := range d.Picks {
		if len(seatPicks) != 0 {
			t.Errorf("seat %d: expected empty history, got %d entries", i, len(seatPicks))
		}
	}
	if d.Version != 1 {
		t.Errorf("expected initial version 1, got %d", d.Version)
	}
}

// TestInitializeDraft_DefaultSeat は席数省略時にデフォルトの8席になることを検証します。
func TestInitializeDraft_DefaultSeat(t *testing.T) {
	draftRepo := newFakeDraftRepo()
	service := NewDraftService(newTestPoolRepo(DefaultSeatCount), draftRepo, DefaultFormat())

	resp, err := service.InitializeDraft("pool-1", 0)
	if err != nil {
		t.Fatalf("InitializeDraft failed: %v", err)
	}
	if resp.PacksCount != 24 {
		t.Errorf("expected 24 packs for default 8 seats, got %d", resp.PacksCount)
	}
	if d := draftRepo.drafts[resp.DraftID]; d.Seat != DefaultSeatCount {
		t.Errorf("expected seat %d, got %d", DefaultSeatCount, d.Seat)
	}
}

// TestInitializeDraft_InvalidSeat は負の席数がバリデーションエラーになることを検証します。
func TestInitializeDraft_InvalidSeat(t *testing.T) {
	service := NewDraftService(newTestPoolRepo(4), newFakeDraftRepo(), DefaultFormat())

	_, err := service.InitializeDraft("pool-1", -1)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

// TestInitializeDraft_PoolNotFound は存在しないプールIDがエラーになることを検証します。
func TestInitializeDraft_PoolNotFound(t *testing.T) {
	service := NewDraftService(newTestPoolRepo(4), newFakeDraftRepo(), DefaultFormat())

	_, err := service.InitializeDraft("unknown-pool", 4)
	if !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

// TestInitializeDraft_InsufficientInventory は在庫不足時にドラフトが
// 一切作成されないことを検証します。
func TestInitializeDraft_InsufficientInventory(t *testing.T) {
	format := DefaultFormat()
	poolRepo := newTestPoolRepo(4)
	// 統率者カードを必要数より1枚少なくする
	poolRepo.candidates.Commanders = genCardIDs("cmd", format.NeedCommanders*format.TotalPacks(4)-1)
	draftRepo := newFakeDraftRepo()
	service := NewDraftService(poolRepo, draftRepo, format)

	_, err := service.InitializeDraft("pool-1", 4)
	var invErr *InsufficientInventoryError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected *InsufficientInventoryError, got %v", err)
	}
	if len(draftRepo.drafts) != 0 {
		t.Errorf("expected no drafts persisted, got %d", len(draftRepo.drafts))
	}
}

// TestSubmitPick_AppendsHistoryAndRotates はピック送信で履歴が追記され、
// 奇数スライスでは各席が左隣のパックを受け取る向きにローテーションする
// ことを検証します。
func TestSubmitPick_AppendsHistoryAndRotates(t *testing.T) {
	service, draftRepo, draftID := createTestDraft(t, 4)
	before := draftRepo.drafts[draftID].Clone()

	resp, err := service.SubmitPick(draftID, 1, buildSubmission(t, before, 1))
	if err != nil {
		t.Fatalf("SubmitPick failed: %v", err)
	}
	if resp.NextPickNumber != 2 {
		t.Errorf("expected next pick 2, got %d", resp.NextPickNumber)
	}
	if resp.IsComplete {
		t.Error("expected draft not to be complete after pick 1")
	}

	after := draftRepo.drafts[draftID]
	for seatIndex := 0; seatIndex < 4; seatIndex++ {
		if len(after.Picks[seatIndex]) != 1 {
			t.Errorf("seat %d: expected 1 history entry, got %d", seatIndex, len(after.Picks[seatIndex]))
		}
	}

	// スライス1は奇数なので new[i] = old[(i-1+4)%4]
	wantOrder := []string{"pack_4", "pack_1", "pack_2", "pack_3"}
	for i, want := range wantOrder {
		if after.Packs[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, after.Packs[i].ID)
		}
	}
	// スライス2以降は動かない
	for i := 4; i < 12; i++ {
		if after.Packs[i].ID != before.Packs[i].ID {
			t.Errorf("position %d: pack moved across slice boundary", i)
		}
	}
	if after.Version != before.Version+1 {
		t.Errorf("expected version %d, got %d", before.Version+1, after.Version)
	}
}

// TestSubmitPick_EvenSliceRotatesOppositeDirection は偶数スライスで
// ローテーションの向きが反転することを検証します。
func TestSubmitPick_EvenSliceRotatesOppositeDirection(t *testing.T) {
	service, draftRepo, draftID := createTestDraft(t, 4)

	// スライス1の10ピックを消化してスライス2の先頭ピックまで進める
	for pick := 1; pick <= 10; pick++ {
		current := draftRepo.drafts[draftID].Clone()
		if _, err := service.SubmitPick(draftID, pick, buildSubmission(t, current, pick)); err != nil {
			t.Fatalf("pick %d failed: %v", pick, err)
		}
	}

	before := draftRepo.drafts[draftID].Clone()
	if _, err := service.SubmitPick(draftID, 11, buildSubmission(t, before, 11)); err != nil {
		t.Fatalf("pick 11 failed: %v", err)
	}

	after := draftRepo.drafts[draftID]
	// スライス2（偶数）は new[i] = old[(i+1)%4]
	for i := 0; i < 4; i++ {
		want := before.Packs[4+(i+1)%4].ID
		if after.Packs[4+i].ID != want {
			t.Errorf("slice 2 position %d: expected %s, got %s", i, want, after.Packs[4+i].ID)
		}
	}
}

// TestSubmitPick_NoRotationAcrossSliceBoundary はスライス最終ピックの送信で
// パック配列が一切動かないことを検証します。
func TestSubmitPick_NoRotationAcrossSliceBoundary(t *testing.T) {
	service, draftRepo, draftID := createTestDraft(t, 4)

	for pick := 1; pick <= 9; pick++ {
		current := draftRepo.drafts[draftID].Clone()
		if _, err := service.SubmitPick(draftID, pick, buildSubmission(t, current, pick)); err != nil {
			t.Fatalf("pick %d failed: %v", pick, err)
		}
	}

	before := draftRepo.drafts[draftID].Clone()
	resp, err := service.SubmitPick(draftID, 10, buildSubmission(t, before, 10))
	if err != nil {
		t.Fatalf("pick 10 failed: %v", err)
	}
	if resp.NextPickNumber != 11 {
		t.Errorf("expected next pick 11, got %d", resp.NextPickNumber)
	}

	after := draftRepo.drafts[draftID]
	for i := range after.Packs {
		if after.Packs[i].ID != before.Packs[i].ID {
			t.Errorf("position %d: expected no rotation when advancing to a new slice", i)
		}
	}
}

// TestSubmitPick_MissingSeatLeavesDraftUntouched は一部の席が欠けた送信が
// 何も変更せずにエラーになることを検証します（全席分か、何も起きないか）。
func TestSubmitPick_MissingSeatLeavesDraftUntouched(t *testing.T) {
	service, draftRepo, draftID := createTestDraft(t, 4)
	before := draftRepo.drafts[draftID].Clone()

	submission := buildSubmission(t, before, 1)
	// 席2のエントリを取り除く
	partial := make([]models.PickSubmissionEntry, 0, 3)
	for _, entry := range submission {
		if *entry.SeatIndex != 2 {
			partial = append(partial, entry)
		}
	}

	_, err := service.SubmitPick(draftID, 1, partial)
	var missingErr *MissingSelectionError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected *MissingSelectionError, got %v", err)
	}
	if missingErr.Seat != 2 {
		t.Errorf("expected missing seat 2, got %d", missingErr.Seat)
	}

	after := draftRepo.drafts[draftID]
	if !reflect.DeepEqual(before, after) {
		t.Error("draft state changed despite validation failure")
	}
}

// TestSubmitPick_PackMismatch は古い割当のpackIdを送るとエラーになることを検証します。
func TestSubmitPick_PackMismatch(t *testing.T) {
	service, draftRepo, draftID := createTestDraft(t, 4)
	before := draftRepo.drafts[draftID].Clone()

	submission := buildSubmission(t, before, 1)
	submission[1].PackID = "pack_9" // 席1に別スライスのパックを指定

	_, err := service.SubmitPick(draftID, 1, submission)
	var mismatchErr *PackMismatchError
	if !errors.As(err, &mismatchErr) {
		t.Fatalf("expected *PackMismatchError, got %v", err)
	}
	if mismatchErr.Seat != 1 {
		t.Errorf("expected mismatch for seat 1, got %d", mismatchErr.Seat)
	}

	after := draftRepo.drafts[draftID]
	if !reflect.DeepEqual(before, after) {
		t.Error("draft state changed despite validation failure")
	}
}

// TestSubmitPick_StalePickNumber はサーバー側で算出した現在のピック番号と
// 一致しない送信がエラーになることを検証します。
func TestSubmitPick_StalePickNumber(t *testing.T) {
	service, draftRepo, draftID := createTestDraft(t, 4)
	before := draftRepo.drafts[draftID].Clone()

	_, err := service.SubmitPick(draftID, 5, buildSubmission(t, before, 1))
	var staleErr *StalePickError
	if !errors.As(err, &staleErr) {
		t.Fatalf("expected *StalePickError, got %v", err)
	}
	if staleErr.Current != 1 {
		t.Errorf("expected current pick 1, got %d", staleErr.Current)
	}
}

// TestSubmitPick_InvalidPayload は形の不正な送信が状態を読む前に弾かれることを検証します。
func TestSubmitPick_InvalidPayload(t *testing.T) {
	service, _, draftID := createTestDraft(t, 2)

	cases := [][]models.PickSubmissionEntry{
		nil,
		{},
		{{SeatIndex: nil, PackID: "pack_1", CardIDs: []string{"a", "b"}}},
		{{SeatIndex: intPtr(0), PackID: "", CardIDs: []string{"a", "b"}}},
		{{SeatIndex: intPtr(0), PackID: "pack_1", CardIDs: []string{"a"}}},
		{{SeatIndex: intPtr(0), PackID: "pack_1", CardIDs: []string{"a", ""}}},
		{
			{SeatIndex: intPtr(0), PackID: "pack_1", CardIDs: []string{"a", "b"}},
			{SeatIndex: intPtr(5), PackID: "pack_2", CardIDs: []string{"c", "d"}}, // 範囲外の席
		},
	}
	for i, picks := range cases {
		_, err := service.SubmitPick(draftID, 1, picks)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("case %d: expected *ValidationError, got %v", i, err)
		}
	}
}

// TestSubmitPick_DraftNotFound は存在しないドラフトへの送信が404系エラーになることを検証します。
func TestSubmitPick_DraftNotFound(t *testing.T) {
	service := NewDraftService(newTestPoolRepo(2), newFakeDraftRepo(), DefaultFormat())

	picks := []models.PickSubmissionEntry{
		{SeatIndex: intPtr(0), PackID: "pack_1", CardIDs: []string{"a", "b"}},
		{SeatIndex: intPtr(1), PackID: "pack_2", CardIDs: []string{"c", "d"}},
	}
	_, err := service.SubmitPick("unknown-draft", 1, picks)
	if !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}

// TestSubmitPick_VersionConflictSurfaced は楽観ロックの競合が
// そのまま呼び出し元へ伝わることを検証します。
func TestSubmitPick_VersionConflictSurfaced(t *testing.T) {
	service, draftRepo, draftID := createTestDraft(t, 4)
	draftRepo.updateErr = database.ErrVersionConflict
	before := draftRepo.drafts[draftID].Clone()

	_, err := service.SubmitPick(draftID, 1, buildSubmission(t, before, 1))
	if !errors.Is(err, database.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

// TestSubmitPick_CompletionSignal は4席・20枚パックの30ピックを完走し、
// 最終ピックで完了シグナルが返ることを検証します。
func TestSubmitPick_CompletionSignal(t *testing.T) {
	service, draftRepo, draftID := createTestDraft(t, 4)

	var lastResp *models.PickSubmissionResponse
	for pick := 1; pick <= 30; pick++ {
		current := draftRepo.drafts[draftID].Clone()
		resp, err := service.SubmitPick(draftID, pick, buildSubmission(t, current, pick))
		if err != nil {
			t.Fatalf("pick %d failed: %v", pick, err)
		}
		if pick < 30 && resp.IsComplete {
			t.Fatalf("pick %d: draft reported complete too early", pick)
		}
		lastResp = resp
	}

	if !lastResp.IsComplete {
		t.Error("expected isComplete=true after pick 30")
	}
	if lastResp.NextPickNumber != 31 {
		t.Errorf("expected next pick 31, got %d", lastResp.NextPickNumber)
	}

	// 各席は30回のピックで60枚取っているはず
	final := draftRepo.drafts[draftID]
	for seatIndex, seatPicks := range final.Picks {
		if len(seatPicks) != 30 {
			t.Errorf("seat %d: expected 30 entries, got %d", seatIndex, len(seatPicks))
		}
	}
}

// TestSubmitPick_ResubmitAfterCompletionRejected は完走済みドラフトへ最終ピックを
// 再送信しても拒否され、履歴が一切変化しないことを検証します。完了後の割当packIdは
// 最終ピック時のまま一致してしまうため、packId検証だけでは再送信を防げません。
func TestSubmitPick_ResubmitAfterCompletionRejected(t *testing.T) {
	service, draftRepo, draftID := createTestDraft(t, 4)

	for pick := 1; pick <= 30; pick++ {
		current := draftRepo.drafts[draftID].Clone()
		if _, err := service.SubmitPick(draftID, pick, buildSubmission(t, current, pick)); err != nil {
			t.Fatalf("pick %d failed: %v", pick, err)
		}
	}
	before := draftRepo.drafts[draftID].Clone()

	// 最終ピック時のpackIdを使い、検証されない適当なカードIDで再送信する
	resubmission := make([]models.PickSubmissionEntry, 0, 4)
	for seatIndex := 0; seatIndex < 4; seatIndex++ {
		resubmission = append(resubmission, models.PickSubmissionEntry{
			SeatIndex: intPtr(seatIndex),
			PackID:    before.Picks[seatIndex][29].PackID,
			CardIDs:   []string{"bogus_a", "bogus_b"},
		})
	}

	_, err := service.SubmitPick(draftID, 30, resubmission)
	if !errors.Is(err, ErrDraftComplete) {
		t.Fatalf("expected ErrDraftComplete, got %v", err)
	}

	after := draftRepo.drafts[draftID]
	if !reflect.DeepEqual(before, after) {
		t.Error("completed draft was mutated by a resubmission")
	}
	for seatIndex, seatPicks := range after.Picks {
		if len(seatPicks) != 30 {
			t.Errorf("seat %d: expected history to stay at 30 entries, got %d", seatIndex, len(seatPicks))
		}
	}
}
