package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/middleware"
)

// InventoryService define o contrato que o Handler espera da camada de Serviço.
type InventoryService interface {
	CreateRecord(ctx domain.Context, req domain.NewRecordRequest) (domain.InventoryRecord, error)
	GetRecord(ctx domain.Context, id string) (domain.InventoryRecord, error)
	ApplyAdjustment(ctx domain.Context, req domain.AdjustmentRequest) (domain.InventoryRecord, error)
	ApplyBulk(ctx domain.Context, items []domain.AdjustmentRequest) ([]domain.InventoryRecord, error)
}

// BulkAdjustmentRequest é o payload esperado para o ajuste em lote.
type BulkAdjustmentRequest struct {
	Items []domain.AdjustmentRequest `json:"items"`
}

// BulkAdjustmentResponse traz o estado final de cada registro afetado pelo lote.
type BulkAdjustmentResponse struct {
	Records []domain.InventoryRecordResponse `json:"records"`
}

// Handler agrupa todos os métodos de Handler de inventário.
type Handler struct {
	Service InventoryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc InventoryService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
// Violações de invariante e falhas de lote carregam o detalhe estruturado no corpo,
// para que a UI monte uma mensagem acionável.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		// Sucesso
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	// TRATAMENTO DE ERROS
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	var bulkErr *apperror.BulkError
	if errors.As(err, &bulkErr) {
		errorResponse["failures"] = bulkErr.Failures
	}
	var invariantErr *apperror.InvariantError
	if errors.As(err, &invariantErr) {
		errorResponse["violation"] = invariantErr.Violation
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// actorFromContext extrai a identidade autenticada, que vira o actor_id do ajuste.
func actorFromContext(r *http.Request) (string, error) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		return "", apperror.NewUnauthorizedError("Autorização necessária. Token não processado.")
	}
	return claims.UserID, nil
}

// CreateRecordHandler lida com a requisição POST /v1/inventory/records.
func (h *Handler) CreateRecordHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.NewRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	record, err := h.Service.CreateRecord(r.Context(), req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, record.ToResponse(), nil, http.StatusCreated)
}

// GetRecordHandler lida com a requisição GET /v1/inventory/records/{id}.
func (h *Handler) GetRecordHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/inventory/records/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O identificador do registro é obrigatório."), 0)
		return
	}

	record, err := h.Service.GetRecord(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, record.ToResponse(), nil, http.StatusOK)
}

// AdjustmentHandler lida com a requisição POST /v1/inventory/adjustments.
func (h *Handler) AdjustmentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	actorID, err := actorFromContext(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	var req domain.AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}
	req.ActorID = actorID

	record, err := h.Service.ApplyAdjustment(r.Context(), req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, record.ToResponse(), nil, http.StatusOK)
}

// BulkAdjustmentHandler lida com a requisição POST /v1/inventory/adjustments/bulk.
func (h *Handler) BulkAdjustmentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	actorID, err := actorFromContext(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	var req BulkAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}
	for i := range req.Items {
		req.Items[i].ActorID = actorID
	}

	records, err := h.Service.ApplyBulk(r.Context(), req.Items)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	response := BulkAdjustmentResponse{Records: make([]domain.InventoryRecordResponse, 0, len(records))}
	for _, record := range records {
		response.Records = append(response.Records, record.ToResponse())
	}

	h.handleServiceResponse(w, r, response, nil, http.StatusOK)
}
