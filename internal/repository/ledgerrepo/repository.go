package ledgerrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// LedgerRepository é a superfície de leitura do ledger de transações.
// O ledger é append-only: os INSERTs acontecem exclusivamente dentro da
// transação de commit do motor de ajustes (inventoryrepo); aqui não existe
// nenhuma operação de mutação. Consultas nunca participam do lock por registro.
type LedgerRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewLedgerRepository cria e retorna uma nova instância do Repositório do Ledger.
func NewLedgerRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *LedgerRepository {
	return &LedgerRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// buildWhere monta a cláusula WHERE e os argumentos posicionais a partir do filtro.
// Os filtros por armazém e variante passam pelo registro de inventário (join).
func buildWhere(filter domain.TransactionFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.InventoryRecordID != "" {
		add("t.inventory_record_id = $%d", filter.InventoryRecordID)
	}
	if filter.WarehouseID != "" {
		add("ir.warehouse_id = $%d", filter.WarehouseID)
	}
	if filter.ProductVariantID != "" {
		add("ir.product_variant_id = $%d", filter.ProductVariantID)
	}
	if filter.TransactionType != "" {
		add("t.transaction_type = $%d", string(filter.TransactionType))
	}
	if filter.ActorID != "" {
		add("t.actor_id = $%d", filter.ActorID)
	}
	// Intervalo [DateFrom, DateTo] inclusivo nas duas pontas.
	if filter.DateFrom != nil {
		add("t.created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("t.created_at <= $%d", *filter.DateTo)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// QueryTransactions retorna a página de lançamentos que satisfaz o filtro,
// ordenada por created_at decrescente (desempate pelo id, também decrescente).
func (r *LedgerRepository) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.TransactionPage, error) {
	r.logger.Debug("Consultando ledger de transações.", map[string]interface{}{
		"record_id": filter.InventoryRecordID,
		"page":      filter.Page,
		"limit":     filter.Limit,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where, args := buildWhere(filter)

	const fromClause = `
        FROM inventory_transactions t
        JOIN inventory_records ir ON ir.id = t.inventory_record_id`

	// 1. Total de lançamentos para a paginação
	countQuery := "SELECT COUNT(*)" + fromClause + where

	var total int
	if err := r.DB.QueryRowContext(ctxTimeout, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar lançamentos do ledger.", err)
		return domain.TransactionPage{}, apperror.NewDBError("Falha ao contar lançamentos do ledger", err)
	}

	// 2. Página de lançamentos
	pageQuery := `
        SELECT t.id, t.inventory_record_id, t.transaction_type, t.quantity_change,
               t.previous_quantity, t.new_quantity, t.reason, t.actor_id, t.created_at` +
		fromClause + where +
		fmt.Sprintf(" ORDER BY t.created_at DESC, t.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	offset := (filter.Page - 1) * filter.Limit
	pageArgs := append(args, filter.Limit, offset)

	rows, err := r.DB.QueryContext(ctxTimeout, pageQuery, pageArgs...)
	if err != nil {
		r.logger.Error("Falha ao consultar lançamentos do ledger.", err)
		return domain.TransactionPage{}, apperror.NewDBError("Falha ao consultar ledger", err)
	}
	defer rows.Close()

	var entries []domain.TransactionEntry
	for rows.Next() {
		var entry domain.TransactionEntry
		err := rows.Scan(
			&entry.ID, &entry.InventoryRecordID, &entry.TransactionType, &entry.QuantityChange,
			&entry.PreviousQuantity, &entry.NewQuantity, &entry.Reason, &entry.ActorID, &entry.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear lançamento do ledger.", err)
			return domain.TransactionPage{}, apperror.NewDBError("Falha ao mapear lançamentos do ledger", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas do ledger.", err)
		return domain.TransactionPage{}, apperror.NewDBError("Erro após iteração do ledger", err)
	}

	r.logger.Info("Consulta ao ledger concluída.", map[string]interface{}{"total": total, "returned": len(entries)})
	return domain.TransactionPage{
		Entries: entries,
		Total:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}, nil
}

// ExportTransactions retorna o conjunto filtrado completo enriquecido com os
// metadados de exibição (SKU/nome da variante, nome do armazém). Projeção
// puramente de leitura; nenhum lock é adquirido.
func (r *LedgerRepository) ExportTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionExportRow, error) {
	r.logger.Debug("Exportando lançamentos do ledger.", nil)

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where, args := buildWhere(filter)

	query := `
        SELECT t.id, t.inventory_record_id, t.transaction_type, t.quantity_change,
               t.previous_quantity, t.new_quantity, t.reason, t.actor_id, t.created_at,
               COALESCE(v.sku, ''), COALESCE(v.name, ''), COALESCE(w.name, '')
        FROM inventory_transactions t
        JOIN inventory_records ir ON ir.id = t.inventory_record_id
        LEFT JOIN variants v ON v.id = ir.product_variant_id
        LEFT JOIN warehouses w ON w.id = ir.warehouse_id` +
		where + " ORDER BY t.created_at DESC, t.id DESC"

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao consultar ledger para exportação.", err)
		return nil, apperror.NewDBError("Falha ao exportar ledger", err)
	}
	defer rows.Close()

	var result []domain.TransactionExportRow
	for rows.Next() {
		var row domain.TransactionExportRow
		err := rows.Scan(
			&row.Entry.ID, &row.Entry.InventoryRecordID, &row.Entry.TransactionType, &row.Entry.QuantityChange,
			&row.Entry.PreviousQuantity, &row.Entry.NewQuantity, &row.Entry.Reason, &row.Entry.ActorID, &row.Entry.CreatedAt,
			&row.VariantSKU, &row.VariantName, &row.WarehouseName,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear linha de exportação do ledger.", err)
			return nil, apperror.NewDBError("Falha ao mapear exportação do ledger", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de exportação.", err)
		return nil, apperror.NewDBError("Erro após iteração de exportação", err)
	}

	r.logger.Info("Exportação do ledger concluída.", map[string]interface{}{"total_rows": len(result)})
	return result, nil
}
