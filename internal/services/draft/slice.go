package draft

import "github.com/cubeclub-dev/cubedraft-backend/internal/models"

// SliceInfo はあるピック番号に対応するスライス（同時に場に出ているS個のパック群）の
// 位置情報です。永続化されない導出値で、ResolveSliceが毎回計算します。
type SliceInfo struct {
	SliceIndex        int // 1始まりのスライス番号
	StartIndex        int // packs配列内でのスライス先頭位置
	PicksPerPack      int // 1スライス内で発生する論理ピック数
	TotalSlices       int
	TotalPicks        int
	ClampedPickNumber int // 範囲内に丸めた後のピック番号
}

// ResolveSlice はピック番号からアクティブなスライスを割り出す純粋関数です。
// 範囲外のピック番号はエラーにせず最寄りの有効値に丸めるため、
// ナビゲーションUIが行き過ぎた番号を渡しても常に結果が返ります。
//
// packs が空の場合は picksPerPack が0に退化するため、除算・乗算の箇所は
// すべて最低1に底上げして「1スライスあたり最低1ピック」を保ちます。
func ResolveSlice(packCount, seat, pickNumber, packSize, cardsPerPick int) SliceInfo {
	seatFloor := maxInt(1, seat)
	totalSlices := ceilDiv(packCount, seatFloor)
	picksPerPack := ceilDiv(packSize, maxInt(1, cardsPerPick))
	perPackFloor := maxInt(1, picksPerPack)
	totalPicks := totalSlices * perPackFloor

	clamped := pickNumber
	if clamped < 1 {
		clamped = 1
	}
	if upper := maxInt(1, totalPicks); clamped > upper {
		clamped = upper
	}

	sliceIndex := ceilDiv(clamped, perPackFloor)
	return SliceInfo{
		SliceIndex:        sliceIndex,
		StartIndex:        (sliceIndex - 1) * seat,
		PicksPerPack:      picksPerPack,
		TotalSlices:       totalSlices,
		TotalPicks:        totalPicks,
		ClampedPickNumber: clamped,
	}
}

// ActivePackIndex は指定席が現在見ているパックのpacks配列内の位置を返します。
// 範囲外の場合は -1 を返します。
func (s SliceInfo) ActivePackIndex(seatIndex, packCount int) int {
	idx := s.StartIndex + seatIndex
	if seatIndex < 0 || idx < 0 || idx >= packCount {
		return -1
	}
	return idx
}

// rotatePacks はスライス内のパック割当をローテーションします。
// 奇数スライスでは各席が左隣の席のパックを受け取り（new[i] = old[(i-1+S) mod S]）、
// 偶数スライスでは逆方向に回します。スライスの境界を越えてパックが動くことはなく、
// パックそのものは複製も変更もされず位置だけが入れ替わります。
func rotatePacks(packs []models.Pack, start, count, sliceIndex int) {
	if count <= 1 || start < 0 || start+count > len(packs) {
		return
	}
	offset := count - 1
	if sliceIndex%2 == 0 {
		offset = 1
	}
	rotated := make([]models.Pack, count)
	for i := range rotated {
		rotated[i] = packs[start+(i+offset)%count]
	}
	copy(packs[start:start+count], rotated)
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
