package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cubeclub-dev/cubedraft-backend/internal/database"
	"github.com/cubeclub-dev/cubedraft-backend/internal/models"
)

// PoolHandler はカードプール関連のHTTPリクエストを処理します。
type PoolHandler struct {
	poolRepo database.PoolRepository
}

// NewPoolHandler はPoolHandlerの新しいインスタンスを作成します。
func NewPoolHandler(poolRepo database.PoolRepository) *PoolHandler {
	return &PoolHandler{poolRepo: poolRepo}
}

// ListPools はプール一覧を取得するハンドラーです。
// GET /api/pools
func (h *PoolHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorResponse(w, http.StatusMethodNotAllowed, "許可されていないメソッド")
		return
	}

	pools, err := h.poolRepo.ListPools(nil)
	if err != nil {
		log.Printf("プール一覧取得エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "プール一覧の取得に失敗しました")
		return
	}

	responses := make([]models.PoolResponse, len(pools))
	for i, pool := range pools {
		responses[i] = pool.ToResponse()
	}
	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pools": responses,
	})
}

// GetPool は指定されたプールの詳細を取得するハンドラーです。
// GET /api/pools/{poolID}
func (h *PoolHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	poolID := vars["poolID"]
	if poolID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "プールIDが指定されていません")
		return
	}

	pool, err := h.poolRepo.GetPoolByID(nil, poolID)
	if err != nil {
		log.Printf("プール %s の取得エラー: %v", poolID, err)
		WriteErrorResponse(w, http.StatusInternalServerError, "プール情報の取得に失敗しました")
		return
	}
	if pool == nil {
		WriteErrorResponse(w, http.StatusNotFound, "プールが見つかりませんでした")
		return
	}

	WriteJSONResponse(w, http.StatusOK, pool.ToResponse())
}
