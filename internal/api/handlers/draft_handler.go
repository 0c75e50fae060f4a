package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cubeclub-dev/cubedraft-backend/internal/api/middleware"
	"github.com/cubeclub-dev/cubedraft-backend/internal/database"
	"github.com/cubeclub-dev/cubedraft-backend/internal/models"
	"github.com/cubeclub-dev/cubedraft-backend/internal/services/draft"
)

// DraftHandler はドラフト関連のHTTPリクエストを処理します。
type DraftHandler struct {
	DraftService draft.DraftService
}

// NewDraftHandler はDraftHandlerの新しいインスタンスを作成します。
func NewDraftHandler(s draft.DraftService) *DraftHandler {
	return &DraftHandler{DraftService: s}
}

// CreateDraft は新しいドラフトを作成するハンドラーです。
// POST /api/protected/drafts
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorResponse(w, http.StatusMethodNotAllowed, "許可されていないメソッド")
		return
	}

	// ContextからユーザーIDを取得します (AuthMiddlewareが設定されている前提)
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Println("エラー: ドラフト作成ハンドラでユーザーIDがコンテキストに見つかりませんでした。")
		WriteErrorResponse(w, http.StatusUnauthorized, "未認証: ユーザーIDが見つかりません")
		return
	}

	var req models.DraftCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("リクエストボディのパースに失敗しました: %v", err)
		WriteErrorResponse(w, http.StatusBadRequest, "不正なリクエスト: 無効なリクエストボディです")
		return
	}
	if req.PoolID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "poolIdが指定されていません")
		return
	}

	resp, err := h.DraftService.InitializeDraft(req.PoolID, req.Seat)
	if err != nil {
		log.Printf("ユーザー %s のドラフト作成に失敗しました: %v", userID, err)
		h.writeDraftError(w, err)
		return
	}

	WriteJSONResponse(w, http.StatusCreated, resp)
}

// SubmitPick は全席同時のピック送信を処理するハンドラーです。
// POST /api/protected/drafts/{draftID}/picks
func (h *DraftHandler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorResponse(w, http.StatusMethodNotAllowed, "許可されていないメソッド")
		return
	}

	vars := mux.Vars(r)
	draftID := vars["draftID"]
	if draftID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "ドラフトIDが指定されていません")
		return
	}

	var req models.PickSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("ピック送信ボディのパースに失敗しました: %v", err)
		WriteErrorResponse(w, http.StatusBadRequest, "不正なリクエスト: 無効なリクエストボディです")
		return
	}

	resp, err := h.DraftService.SubmitPick(draftID, req.PickNumber, req.Picks)
	if err != nil {
		log.Printf("ドラフト %s のピック送信に失敗しました: %v", draftID, err)
		h.writeDraftError(w, err)
		return
	}

	WriteJSONResponse(w, http.StatusOK, resp)
}

// GetDraft はドラフトのスナップショットをそのまま返すハンドラーです。
// GET /api/drafts/{draftID}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	draftID := vars["draftID"]

	d, err := h.DraftService.GetDraft(draftID)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, d)
}

// GetPickView は指定ピック番号時点の表示用状態を返すハンドラーです。
// ピック番号が範囲外でもエラーにはならず、最寄りの有効なピックに丸められます。
// GET /api/drafts/{draftID}/picks/{pickNumber}
func (h *DraftHandler) GetPickView(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	draftID := vars["draftID"]

	pickNumber, err := strconv.Atoi(vars["pickNumber"])
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "ピック番号が数値ではありません")
		return
	}

	projection, err := h.DraftService.ProjectPick(draftID, pickNumber)
	if err != nil {
		h.writeDraftError(w, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, projection)
}

// writeDraftError はドラフトサービスのエラーをHTTPステータスに対応付けます。
// バリデーション系は400、存在しないリソースは404、競合は409、在庫不足は422、
// それ以外の永続化エラーは500です。サーバー側で自動再試行はしません。
func (h *DraftHandler) writeDraftError(w http.ResponseWriter, err error) {
	var validationErr *draft.ValidationError
	var missingErr *draft.MissingSelectionError
	var mismatchErr *draft.PackMismatchError
	var staleErr *draft.StalePickError
	var inventoryErr *draft.InsufficientInventoryError

	switch {
	case errors.Is(err, draft.ErrPoolNotFound), errors.Is(err, draft.ErrDraftNotFound):
		WriteErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrVersionConflict), errors.Is(err, draft.ErrDraftComplete):
		WriteErrorResponse(w, http.StatusConflict, err.Error())
	case errors.As(err, &staleErr):
		WriteErrorResponse(w, http.StatusConflict, err.Error())
	case errors.As(err, &validationErr), errors.As(err, &missingErr), errors.As(err, &mismatchErr):
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &inventoryErr):
		WriteErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
	default:
		WriteErrorResponse(w, http.StatusInternalServerError, "内部サーバーエラー")
	}
}
