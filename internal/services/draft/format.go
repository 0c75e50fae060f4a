package draft

// Format はドラフト形式の設定値をまとめた構造体です。
// パック構成やピック枚数をプール/ルールセットごとに変えられるよう、
// リテラルを直接書かずにこの構造体を各コンポーネントへ渡します。
type Format struct {
	NeedCommanders int // 1パックあたりの統率者カード枚数
	NeedOthers     int // 1パックあたりの通常カード枚数
	CardsPerPick   int // 1ピックで取るカード枚数
	SlicesPerSeat  int // 1席あたりのパック数（= ラウンド数）
}

// DefaultSeatCount はリクエストで席数が省略された場合のデフォルト値です。
const DefaultSeatCount = 8

// DefaultFormat は標準の統率者キューブドラフト形式を返します。
// 統率者2枚 + 通常18枚の20枚パック、1ピック2枚、3ラウンド。
func DefaultFormat() Format {
	return Format{
		NeedCommanders: 2,
		NeedOthers:     18,
		CardsPerPick:   2,
		SlicesPerSeat:  3,
	}
}

// PackSize は1パックのカード総数を返します。
func (f Format) PackSize() int {
	return f.NeedCommanders + f.NeedOthers
}

// TotalPacks は指定席数のドラフトに必要なパック総数を返します。
func (f Format) TotalPacks(seat int) int {
	return seat * f.SlicesPerSeat
}
