package draft

import (
	"errors"
	"fmt"
)

// ErrPoolNotFound は指定されたプールが存在しない場合のエラーです。
var ErrPoolNotFound = errors.New("プールが見つかりませんでした")

// ErrDraftNotFound は指定されたドラフトが存在しない場合のエラーです。
var ErrDraftNotFound = errors.New("ドラフトが見つかりませんでした")

// ErrDraftComplete は完了済みドラフトへのピック送信を表すエラーです。
// 完了後の番号は丸め込みで最終ピックに戻ってしまうため、丸める前に検出します。
var ErrDraftComplete = errors.New("ドラフトは既に完了しています")

// ValidationError はリクエスト内容そのものが不正な場合のエラーです。
// 状態を読む前に弾けるカテゴリで、HTTPレイヤーでは400に対応します。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InsufficientInventoryError はパック構築の事前チェックで在庫不足を検出した場合のエラーです。
// クライアントの再試行ではなくプールへのカード追加が必要なカテゴリのため、
// 必要数と実際の数をメッセージに含めます。
type InsufficientInventoryError struct {
	Category  string // "commander" または "other"
	Required  int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("%sカードが不足しています: 必要 %d 枚, 現在 %d 枚", e.Category, e.Required, e.Available)
}

// MissingSelectionError は全席同時ピック送信に特定の席の選択が欠けている場合のエラーです。
// クライアントが再取得・再送信できるよう席番号を保持します。
type MissingSelectionError struct {
	Seat int
}

func (e *MissingSelectionError) Error() string {
	return fmt.Sprintf("席 %d の選択がありません", e.Seat)
}

// PackMismatchError は送信されたpackIdがその席の現在の割当パックと一致しない場合のエラーです。
// ローテーション後の古い画面からの送信を検出します。
type PackMismatchError struct {
	Seat int
}

func (e *PackMismatchError) Error() string {
	return fmt.Sprintf("席 %d のpackIdが現在の割当と一致しません", e.Seat)
}

// StalePickError は送信されたピック番号がサーバー側で算出した現在のピック番号と
// 一致しない場合のエラーです。再取得して再送信すれば解消します。
type StalePickError struct {
	Submitted int
	Current   int
}

func (e *StalePickError) Error() string {
	return fmt.Sprintf("ピック番号 %d は現在のピック番号 %d と一致しません。最新の状態を取得し直してください", e.Submitted, e.Current)
}
