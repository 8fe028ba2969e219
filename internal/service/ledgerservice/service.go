package ledgerservice

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// Paginação padrão das consultas ao ledger.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// LedgerRepository define o contrato que o Serviço do Ledger espera da camada de Persistência.
type LedgerRepository interface {
	QueryTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.TransactionPage, error)
	ExportTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionExportRow, error)
}

// Service é a superfície de leitura do ledger: consulta paginada e exportação
// tabular. Lançamentos existentes nunca são mutados por nenhum caminho daqui.
type Service struct {
	repo   LedgerRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço do Ledger.
func NewService(repo LedgerRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// QueryTransactions valida o filtro, aplica os padrões de paginação e retorna
// a página de lançamentos, ordenada por created_at decrescente.
func (s *Service) QueryTransactions(ctx domain.Context, filter domain.TransactionFilter) (domain.TransactionPage, error) {
	if err := validateFilter(filter); err != nil {
		s.logger.Warn("Consulta ao ledger rejeitada por filtro inválido.", map[string]interface{}{"error": err.Error()})
		return domain.TransactionPage{}, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para QueryTransactions", nil)
	}

	return s.repo.QueryTransactions(ctxGo, filter)
}

// ExportTransactions escreve o conjunto filtrado completo como CSV no writer.
// Projeção puramente de leitura: nenhum lock é adquirido.
func (s *Service) ExportTransactions(ctx domain.Context, filter domain.TransactionFilter, w io.Writer) error {
	if err := validateFilter(filter); err != nil {
		s.logger.Warn("Exportação do ledger rejeitada por filtro inválido.", map[string]interface{}{"error": err.Error()})
		return err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para ExportTransactions", nil)
	}

	rows, err := s.repo.ExportTransactions(ctxGo, filter)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)

	header := []string{
		"id", "created_at", "inventory_record_id", "variant_sku", "variant_name",
		"warehouse_name", "transaction_type", "quantity_change",
		"previous_quantity", "new_quantity", "reason", "actor_id",
	}
	if err := writer.Write(header); err != nil {
		return apperror.NewInternalError("Falha ao escrever cabeçalho da exportação.", err)
	}

	for _, row := range rows {
		entry := row.Entry
		record := []string{
			strconv.FormatInt(entry.ID, 10),
			entry.CreatedAt.Format(time.RFC3339),
			entry.InventoryRecordID,
			row.VariantSKU,
			row.VariantName,
			row.WarehouseName,
			string(entry.TransactionType),
			strconv.Itoa(entry.QuantityChange),
			strconv.Itoa(entry.PreviousQuantity),
			strconv.Itoa(entry.NewQuantity),
			entry.Reason,
			entry.ActorID,
		}
		if err := writer.Write(record); err != nil {
			return apperror.NewInternalError("Falha ao escrever linha da exportação.", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperror.NewInternalError("Falha ao finalizar exportação CSV.", err)
	}

	s.logger.Info("Exportação do ledger concluída.", map[string]interface{}{"total_rows": len(rows)})
	return nil
}

// validateFilter rejeita filtros inválidos antes de qualquer leitura.
func validateFilter(filter domain.TransactionFilter) error {
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return apperror.NewInvalidFilterError("A data inicial não pode ser posterior à data final.")
	}
	if filter.TransactionType != "" && !filter.TransactionType.IsValid() {
		return apperror.NewInvalidFilterError(
			fmt.Sprintf("Tipo de transação desconhecido: '%s'.", filter.TransactionType))
	}
	if filter.Page < 0 || filter.Limit < 0 {
		return apperror.NewInvalidFilterError("Página e limite não podem ser negativos.")
	}
	return nil
}
