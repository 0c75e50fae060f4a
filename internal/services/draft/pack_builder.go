package draft

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cubeclub-dev/cubedraft-backend/internal/models"
)

// PackBuilder はプールの候補カードから固定構成のパック群を構築します。
// 1回のビルド全体で使用済みIDを追跡するため、同一ドラフト内で
// 同じカードが複数のパックに入ることはありません。
type PackBuilder struct {
	format Format
	rng    *rand.Rand
}

// NewPackBuilder はPackBuilderの新しいインスタンスを作成します。
func NewPackBuilder(format Format) *PackBuilder {
	return &PackBuilder{
		format: format,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSeededPackBuilder はシードを固定したPackBuilderを作成します。
// 再現が必要な場面（テストなど）で使用します。
func NewSeededPackBuilder(format Format, seed int64) *PackBuilder {
	return &PackBuilder{
		format: format,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Build はtotalPacks個のパックを構築します。
// commanders / others はwelcomeタグ除外済みの候補カードIDリストです。
//
// 在庫不足は割り当て開始前の事前チェックで検出し、部分的なパックは一切作りません。
// 割り当て中に残りプールが現在のパック分に足りなくなった場合は、
// 未使用分だけを残して両プールをシャッフルし直してから続行します
// （真の在庫不足は事前チェック済みなので、これは使用済みIDの偏り対策です）。
func (b *PackBuilder) Build(commanders, others []string, totalPacks int) ([]models.Pack, error) {
	needCommanders := b.format.NeedCommanders * totalPacks
	if len(commanders) < needCommanders {
		return nil, &InsufficientInventoryError{Category: "commander", Required: needCommanders, Available: len(commanders)}
	}
	needOthers := b.format.NeedOthers * totalPacks
	if len(others) < needOthers {
		return nil, &InsufficientInventoryError{Category: "other", Required: needOthers, Available: len(others)}
	}

	remainingCommanders := b.shuffled(commanders)
	remainingOthers := b.shuffled(others)
	used := make(map[string]struct{}, needCommanders+needOthers)

	packs := make([]models.Pack, 0, totalPacks)
	for n := 1; n <= totalPacks; n++ {
		if countUnused(remainingCommanders, used) < b.format.NeedCommanders ||
			countUnused(remainingOthers, used) < b.format.NeedOthers {
			remainingCommanders = b.reshuffleUnused(commanders, used)
			remainingOthers = b.reshuffleUnused(others, used)
		}

		commanderIDs, ok := drawUnique(&remainingCommanders, used, b.format.NeedCommanders)
		if !ok {
			return nil, &InsufficientInventoryError{Category: "commander", Required: needCommanders, Available: len(commanders)}
		}
		otherIDs, ok := drawUnique(&remainingOthers, used, b.format.NeedOthers)
		if !ok {
			return nil, &InsufficientInventoryError{Category: "other", Required: needOthers, Available: len(others)}
		}

		cardIDs := make([]string, 0, b.format.PackSize())
		cardIDs = append(cardIDs, commanderIDs...)
		cardIDs = append(cardIDs, otherIDs...)
		packs = append(packs, models.Pack{
			ID:      fmt.Sprintf("pack_%d", n),
			CardIDs: cardIDs,
		})
	}
	return packs, nil
}

// shuffled はリストのコピーをFisher-Yates（rand.Shuffle）でシャッフルして返します。
// 入力スライスは変更しません。
func (b *PackBuilder) shuffled(ids []string) []string {
	out := append([]string(nil), ids...)
	b.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// reshuffleUnused は候補リストから使用済みIDを除外したものをシャッフルして返します。
func (b *PackBuilder) reshuffleUnused(ids []string, used map[string]struct{}) []string {
	unused := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := used[id]; !ok {
			unused = append(unused, id)
		}
	}
	b.rng.Shuffle(len(unused), func(i, j int) {
		unused[i], unused[j] = unused[j], unused[i]
	})
	return unused
}

// countUnused はプール内の未使用IDの数を返します。
func countUnused(pool []string, used map[string]struct{}) int {
	count := 0
	for _, id := range pool {
		if _, ok := used[id]; !ok {
			count++
		}
	}
	return count
}

// drawUnique はプールの先頭から未使用のIDをk個取り出し、使用済みに記録します。
// 使用済みIDが混ざっていた場合は読み飛ばします（二重使用への防御的チェック）。
// k個集める前にプールが尽きた場合は false を返します。
func drawUnique(pool *[]string, used map[string]struct{}, k int) ([]string, bool) {
	drawn := make([]string, 0, k)
	rest := *pool
	for len(drawn) < k && len(rest) > 0 {
		id := rest[0]
		rest = rest[1:]
		if _, ok := used[id]; ok {
			continue
		}
		used[id] = struct{}{}
		drawn = append(drawn, id)
	}
	*pool = rest
	if len(drawn) < k {
		return drawn, false
	}
	return drawn, true
}
