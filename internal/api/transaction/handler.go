package transaction

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// LedgerService define o contrato que o Handler espera da camada de Serviço.
type LedgerService interface {
	QueryTransactions(ctx domain.Context, filter domain.TransactionFilter) (domain.TransactionPage, error)
	ExportTransactions(ctx domain.Context, filter domain.TransactionFilter, w io.Writer) error
}

// Handler agrupa os métodos de Handler de consulta ao ledger.
type Handler struct {
	Service LedgerService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc LedgerService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
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

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// parseFilter monta o TransactionFilter a partir da query string.
// Datas aceitam RFC3339 ou apenas a data (2006-01-02); no segundo formato,
// date_to é estendida até o fim do dia para a faixa ficar inclusiva.
func parseFilter(values url.Values) (domain.TransactionFilter, error) {
	filter := domain.TransactionFilter{
		InventoryRecordID: strings.TrimSpace(values.Get("record_id")),
		WarehouseID:       strings.TrimSpace(values.Get("warehouse_id")),
		ProductVariantID:  strings.TrimSpace(values.Get("variant_id")),
		ActorID:           strings.TrimSpace(values.Get("actor_id")),
	}

	if raw := strings.TrimSpace(values.Get("type")); raw != "" {
		filter.TransactionType = domain.TransactionType(raw)
	}

	if raw := strings.TrimSpace(values.Get("date_from")); raw != "" {
		parsed, _, err := parseDate(raw)
		if err != nil {
			return filter, apperror.NewInvalidFilterError(
				fmt.Sprintf("Formato de data inválido em date_from: '%s'. Use RFC3339 ou AAAA-MM-DD.", raw))
		}
		filter.DateFrom = &parsed
	}

	if raw := strings.TrimSpace(values.Get("date_to")); raw != "" {
		parsed, dateOnly, err := parseDate(raw)
		if err != nil {
			return filter, apperror.NewInvalidFilterError(
				fmt.Sprintf("Formato de data inválido em date_to: '%s'. Use RFC3339 ou AAAA-MM-DD.", raw))
		}
		if dateOnly {
			parsed = parsed.Add(24*time.Hour - time.Nanosecond)
		}
		filter.DateTo = &parsed
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apperror.NewInvalidFilterError("O parâmetro page deve ser um número inteiro.")
		}
		filter.Page = page
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apperror.NewInvalidFilterError("O parâmetro limit deve ser um número inteiro.")
		}
		filter.Limit = limit
	}

	return filter, nil
}

func parseDate(raw string) (time.Time, bool, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, false, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return parsed, true, nil
}

// QueryHandler lida com a requisição GET /v1/transactions.
func (h *Handler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	page, err := h.Service.QueryTransactions(r.Context(), filter)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, page, nil, http.StatusOK)
}

// ExportHandler lida com a requisição GET /v1/transactions/export,
// transmitindo o CSV direto no corpo da resposta.
func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"transactions-%s.csv\"", time.Now().UTC().Format("20060102-150405")))

	if err := h.Service.ExportTransactions(r.Context(), filter, w); err != nil {
		// Os headers já podem ter sido enviados; se ainda não foram, devolve o erro estruturado.
		h.Logger.Error("Falha durante a exportação do ledger.", err)
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}
}
