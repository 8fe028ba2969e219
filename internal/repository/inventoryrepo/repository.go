package inventoryrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// Código de erro do PostgreSQL para violação de chave única.
const pqUniqueViolation = "23505"

// InventoryRepository persiste os registros de inventário e, junto com cada
// mutação, o lançamento correspondente no ledger — sempre na mesma transação.
type InventoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewInventoryRepository cria e retorna uma nova instância do Repositório de Inventário.
func NewInventoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *InventoryRepository {
	return &InventoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// CreateRecord insere o registro único por par (variante, armazém).
// Par duplicado resulta em ConflictError.
func (r *InventoryRepository) CreateRecord(ctx context.Context, record domain.InventoryRecord) (domain.InventoryRecord, error) {
	r.logger.Debug("Iniciando CreateRecord no repositório.", map[string]interface{}{
		"product_variant_id": record.ProductVariantID,
		"warehouse_id":       record.WarehouseID,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	record.ID = uuid.NewString()
	record.Version = 1
	now := time.Now().UTC()
	record.CreatedAt = now
	record.LastUpdatedAt = now

	query := `
        INSERT INTO inventory_records
            (id, product_variant_id, warehouse_id, stock_quantity, reserved_quantity, reorder_level, version, created_at, last_updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		record.ID, record.ProductVariantID, record.WarehouseID,
		record.StockQuantity, record.ReservedQuantity, record.ReorderLevel,
		record.Version, record.CreatedAt, record.LastUpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			r.logger.Warn("Registro de inventário duplicado para o par variante/armazém.", map[string]interface{}{
				"product_variant_id": record.ProductVariantID,
				"warehouse_id":       record.WarehouseID,
			})
			return domain.InventoryRecord{}, apperror.NewConflictError(
				fmt.Sprintf("Já existe registro de inventário para a variante %s no armazém %s.",
					record.ProductVariantID, record.WarehouseID))
		}
		r.logger.Error("Falha ao inserir registro de inventário no DB.", err)
		return domain.InventoryRecord{}, apperror.NewDBError("Falha ao criar registro de inventário", err)
	}

	r.logger.Info("Registro de inventário criado com sucesso.", map[string]interface{}{"id": record.ID})
	return record, nil
}

// GetRecord busca um registro de inventário pelo ID.
func (r *InventoryRepository) GetRecord(ctx context.Context, id string) (domain.InventoryRecord, error) {
	r.logger.Debug("Buscando registro de inventário no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, product_variant_id, warehouse_id, stock_quantity, reserved_quantity, reorder_level, version, created_at, last_updated_at
        FROM inventory_records
        WHERE id = $1`

	var record domain.InventoryRecord
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&record.ID, &record.ProductVariantID, &record.WarehouseID,
		&record.StockQuantity, &record.ReservedQuantity, &record.ReorderLevel,
		&record.Version, &record.CreatedAt, &record.LastUpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Registro de inventário não encontrado.", map[string]interface{}{"id": id})
		return domain.InventoryRecord{}, apperror.NewNotFoundError(
			fmt.Sprintf("Registro de inventário com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar registro de inventário no DB.", err)
		return domain.InventoryRecord{}, apperror.NewDBError("Falha ao buscar registro de inventário", err)
	}

	return record, nil
}

// CommitAdjustments aplica uma lista de mutações já validadas como uma única
// transação: para cada mutação, o UPDATE do registro (com checagem de versão
// OCC) e o INSERT do lançamento no ledger. Ou tudo commita, ou nada.
//
// O leitor nunca observa um registro atualizado sem o lançamento
// correspondente, nem o contrário.
func (r *InventoryRepository) CommitAdjustments(ctx context.Context, changes []domain.AppliedAdjustment) ([]domain.InventoryRecord, error) {
	r.logger.Debug("Iniciando commit de ajustes no repositório.", map[string]interface{}{"total_changes": len(changes)})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de ajuste.", err)
		return nil, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro; no-op após Commit

	const queryUpdate = `
        UPDATE inventory_records
        SET stock_quantity = $1, version = $2, last_updated_at = $3
        WHERE id = $4 AND version = $5`

	const queryInsertEntry = `
        INSERT INTO inventory_transactions
            (inventory_record_id, transaction_type, quantity_change, previous_quantity, new_quantity, reason, actor_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`

	updated := make([]domain.InventoryRecord, 0, len(changes))
	now := time.Now().UTC()

	for _, change := range changes {
		record := change.Record

		result, err := tx.ExecContext(ctxTimeout, queryUpdate,
			change.Outcome.NewStock,
			record.Version+1, // Incrementa a versão
			now,
			record.ID,
			record.Version, // Checa a versão carregada para OCC
		)
		if err != nil {
			r.logger.Error("Falha ao atualizar registro de inventário.", err)
			return nil, apperror.NewDBError("Falha ao atualizar registro de inventário", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			r.logger.Error("Falha ao verificar linhas afetadas no ajuste.", err)
			return nil, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
		}
		if rowsAffected == 0 {
			// OCC: o registro foi modificado fora do lock deste processo.
			r.logger.Warn("Falha no controle de concorrência otimista (OCC) durante o ajuste.", map[string]interface{}{
				"record_id":        record.ID,
				"expected_version": record.Version,
			})
			return nil, apperror.NewConflictError("O registro de inventário foi modificado por outra operação. Tente novamente.")
		}

		entry := change.Entry
		entry.CreatedAt = now
		err = tx.QueryRowContext(ctxTimeout, queryInsertEntry,
			entry.InventoryRecordID, entry.TransactionType, entry.QuantityChange,
			entry.PreviousQuantity, entry.NewQuantity, entry.Reason, entry.ActorID, entry.CreatedAt,
		).Scan(&entry.ID)
		if err != nil {
			r.logger.Error("Falha ao inserir lançamento no ledger.", err)
			return nil, apperror.NewDBError("Falha ao registrar lançamento de auditoria", err)
		}

		record.StockQuantity = change.Outcome.NewStock
		record.Version++
		record.LastUpdatedAt = now
		updated = append(updated, record)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de ajuste.", commitErr)
		return nil, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Ajustes commitados com sucesso.", map[string]interface{}{"total_changes": len(changes)})
	return updated, nil
}
