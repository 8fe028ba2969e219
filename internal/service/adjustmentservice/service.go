package adjustmentservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/keylock"
	"stockledger/internal/pkg/logger"
)

// InventoryRepository define o contrato que o motor de ajustes espera da camada de Persistência.
type InventoryRepository interface {
	CreateRecord(ctx context.Context, record domain.InventoryRecord) (domain.InventoryRecord, error)
	GetRecord(ctx context.Context, id string) (domain.InventoryRecord, error)
	CommitAdjustments(ctx context.Context, changes []domain.AppliedAdjustment) ([]domain.InventoryRecord, error)
}

// Service é o motor de ajustes: valida cada mudança de quantidade contra o
// modelo de invariantes e a commita junto com seu lançamento de auditoria.
//
// Cada registro de inventário é a unidade de exclusão mútua: ajustes contra o
// mesmo registro são serializados pelo gerenciador de locks, registros
// diferentes prosseguem em paralelo.
//
// A quantidade reservada não é ajustável por este caminho; mudanças de
// reserva seriam uma operação separada, com autorização própria.
type Service struct {
	repo   InventoryRepository
	locks  *keylock.Manager
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Motor de Ajustes.
func NewService(repo InventoryRepository, locks *keylock.Manager, logger logger.Logger) *Service {
	return &Service{repo: repo, locks: locks, logger: logger}
}

// CreateRecord cria o registro único por par (variante, armazém), validando
// que as quantidades iniciais já satisfazem o invariante.
func (s *Service) CreateRecord(ctx domain.Context, req domain.NewRecordRequest) (domain.InventoryRecord, error) {
	if strings.TrimSpace(req.ProductVariantID) == "" || strings.TrimSpace(req.WarehouseID) == "" {
		return domain.InventoryRecord{}, apperror.NewValidationError("Variante e armazém são obrigatórios.")
	}
	if req.StockQuantity < 0 || req.ReservedQuantity < 0 || req.ReorderLevel < 0 {
		return domain.InventoryRecord{}, apperror.NewValidationError("Quantidades iniciais não podem ser negativas.")
	}
	if req.StockQuantity-req.ReservedQuantity < 0 {
		return domain.InventoryRecord{}, apperror.NewValidationError("A quantidade reservada não pode exceder o estoque.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para CreateRecord", nil)
	}

	record := domain.InventoryRecord{
		ProductVariantID: req.ProductVariantID,
		WarehouseID:      req.WarehouseID,
		StockQuantity:    req.StockQuantity,
		ReservedQuantity: req.ReservedQuantity,
		ReorderLevel:     req.ReorderLevel,
	}

	created, err := s.repo.CreateRecord(ctxGo, record)
	if err != nil {
		return domain.InventoryRecord{}, err
	}

	s.logger.Info("Registro de inventário criado.", map[string]interface{}{
		"record_id":          created.ID,
		"product_variant_id": created.ProductVariantID,
		"warehouse_id":       created.WarehouseID,
	})
	return created, nil
}

// GetRecord busca um registro de inventário pelo ID. Leituras não participam
// do lock por registro.
func (s *Service) GetRecord(ctx domain.Context, id string) (domain.InventoryRecord, error) {
	if strings.TrimSpace(id) == "" {
		return domain.InventoryRecord{}, apperror.NewValidationError("O identificador do registro é obrigatório.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	return s.repo.GetRecord(ctxGo, id)
}

// ApplyAdjustment aplica um único ajuste de ponta a ponta: valida via o modelo
// de invariantes, atualiza o registro e anexa o lançamento no ledger — as duas
// escritas na mesma transação. Em qualquer erro, nada é escrito.
func (s *Service) ApplyAdjustment(ctx domain.Context, req domain.AdjustmentRequest) (domain.InventoryRecord, error) {
	s.logger.Debug("Iniciando ajuste de estoque no serviço.", map[string]interface{}{
		"record_id": req.RecordID,
		"delta":     req.Delta,
		"type":      string(req.TransactionType),
	})

	if _, err := s.validateAdjustment(&req); err != nil {
		s.logger.Warn("Ajuste rejeitado na validação de entrada.", map[string]interface{}{
			"record_id": req.RecordID,
			"error":     err.Error(),
		})
		return domain.InventoryRecord{}, err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para ApplyAdjustment", nil)
	}

	// Escritor único por registro.
	s.locks.Lock(req.RecordID)
	defer s.locks.Unlock(req.RecordID)

	record, err := s.repo.GetRecord(ctxGo, req.RecordID)
	if err != nil {
		return domain.InventoryRecord{}, err
	}

	outcome, violation := domain.EvaluateAdjustment(record, req.Delta)
	if violation != nil {
		s.logger.Warn("Ajuste violaria invariante de quantidade.", map[string]interface{}{
			"record_id":     record.ID,
			"code":          violation.Code,
			"current_stock": violation.CurrentStock,
			"delta":         violation.Delta,
		})
		return domain.InventoryRecord{}, apperror.NewInvariantError(violation)
	}

	updated, err := s.repo.CommitAdjustments(ctxGo, []domain.AppliedAdjustment{
		buildChange(record, outcome, req),
	})
	if err != nil {
		s.logger.Error("Falha ao commitar ajuste no repositório.", err)
		return domain.InventoryRecord{}, err
	}

	s.logger.Info("Ajuste de estoque aplicado com sucesso.", map[string]interface{}{
		"record_id":    updated[0].ID,
		"new_quantity": updated[0].StockQuantity,
		"delta":        req.Delta,
		"actor_id":     req.ActorID,
	})
	return updated[0], nil
}

// ApplyBulk aplica uma lista de ajustes como uma unidade tudo-ou-nada.
//
// Fase 1 (validação): com os locks de todos os registros distintos adquiridos
// em ordem determinística, cada item é avaliado em dry-run. Itens duplicados
// para o mesmo registro dobram sequencialmente, cada um contra o resultado
// acumulado do lote. Todas as falhas são coletadas — nunca há curto-circuito
// no primeiro item ruim.
//
// Fase 2 (commit): somente se todos os itens passaram, todas as mutações e
// seus lançamentos são commitados em uma única transação. Aplicação parcial
// não existe: ou o lote inteiro commita, ou o lote inteiro falha.
func (s *Service) ApplyBulk(ctx domain.Context, items []domain.AdjustmentRequest) ([]domain.InventoryRecord, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidationError("O lote de ajustes não pode ser vazio.")
	}

	s.logger.Debug("Iniciando ajuste em lote no serviço.", map[string]interface{}{"total_items": len(items)})

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para ApplyBulk", nil)
	}

	// Locks adquiridos em ordem determinística (deduplicados e ordenados)
	// para que lotes concorrentes sobrepostos não entrem em deadlock; são
	// mantidos até o fim da fase 2.
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.RecordID != "" {
			ids = append(ids, item.RecordID)
		}
	}
	release := s.locks.LockAll(ids)
	defer release()

	// Fase 1: validação de todos os itens, sem nenhuma mutação.
	working := make(map[string]domain.InventoryRecord)
	order := make([]string, 0, len(items))
	changes := make([]domain.AppliedAdjustment, 0, len(items))
	var failures []apperror.BulkItemFailure

	for i := range items {
		item := items[i]

		if code, err := s.validateAdjustment(&item); err != nil {
			failures = append(failures, apperror.BulkItemFailure{
				Index: i, RecordID: item.RecordID, Code: code, Message: err.Error(),
			})
			continue
		}

		record, loaded := working[item.RecordID]
		if !loaded {
			fetched, err := s.repo.GetRecord(ctxGo, item.RecordID)
			if err != nil {
				var notFoundErr *apperror.NotFoundError
				if errors.As(err, &notFoundErr) {
					failures = append(failures, apperror.BulkItemFailure{
						Index: i, RecordID: item.RecordID, Code: apperror.CodeNotFound, Message: err.Error(),
					})
					continue
				}
				// Falha de infraestrutura aborta o lote inteiro, sem escrita.
				s.logger.Error("Falha ao carregar registro durante a validação do lote.", err)
				return nil, err
			}
			record = fetched
			working[item.RecordID] = record
			order = append(order, item.RecordID)
		}

		outcome, violation := domain.EvaluateAdjustment(record, item.Delta)
		if violation != nil {
			failures = append(failures, apperror.BulkItemFailure{
				Index: i, RecordID: item.RecordID, Code: violation.Code, Message: violation.Error(),
			})
			continue
		}

		changes = append(changes, buildChange(record, outcome, item))

		// O próximo item do mesmo registro enxerga o efeito deste.
		record.StockQuantity = outcome.NewStock
		record.Version++
		working[item.RecordID] = record
	}

	if len(failures) > 0 {
		s.logger.Warn("Lote de ajustes rejeitado na fase de validação.", map[string]interface{}{
			"total_items":    len(items),
			"total_failures": len(failures),
		})
		return nil, &apperror.BulkError{Failures: failures}
	}

	// Fase 2: commit de todas as mutações em uma transação.
	updated, err := s.repo.CommitAdjustments(ctxGo, changes)
	if err != nil {
		s.logger.Error("Falha ao commitar lote de ajustes no repositório.", err)
		return nil, err
	}

	// Com duplicatas, o mesmo registro aparece várias vezes em updated;
	// a resposta traz o estado final de cada registro, na ordem de submissão.
	final := make(map[string]domain.InventoryRecord, len(updated))
	for _, rec := range updated {
		final[rec.ID] = rec
	}
	result := make([]domain.InventoryRecord, 0, len(order))
	for _, id := range order {
		result = append(result, final[id])
	}

	s.logger.Info("Lote de ajustes aplicado com sucesso.", map[string]interface{}{
		"total_items":   len(items),
		"total_records": len(result),
	})
	return result, nil
}

// validateAdjustment normaliza e valida uma requisição de ajuste.
// Retorna o código de falha (para o relatório exaustivo do lote) junto com o erro.
func (s *Service) validateAdjustment(req *domain.AdjustmentRequest) (string, error) {
	if strings.TrimSpace(req.RecordID) == "" {
		return apperror.CodeValidation, apperror.NewValidationError("O identificador do registro é obrigatório.")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperror.CodeReasonRequired, apperror.NewValidationError("O motivo do ajuste é obrigatório.")
	}
	if strings.TrimSpace(req.ActorID) == "" {
		return apperror.CodeValidation, apperror.NewValidationError("O autor do ajuste não foi identificado.")
	}

	// Tipo não informado vira correção; vendas/compras devem passar o tipo explicitamente.
	if req.TransactionType == "" {
		req.TransactionType = domain.TransactionCorrection
	}
	if !req.TransactionType.IsValid() {
		return apperror.CodeValidation, apperror.NewValidationError(
			fmt.Sprintf("Tipo de transação desconhecido: '%s'.", req.TransactionType))
	}

	// Delta zero é legal: gera lançamento "apenas motivo" (ex: confirmação de inventário).
	return "", nil
}

// buildChange monta a mutação validada e o lançamento de auditoria correspondente.
func buildChange(record domain.InventoryRecord, outcome domain.AdjustmentOutcome, req domain.AdjustmentRequest) domain.AppliedAdjustment {
	return domain.AppliedAdjustment{
		Record:  record,
		Outcome: outcome,
		Entry: domain.TransactionEntry{
			InventoryRecordID: record.ID,
			TransactionType:   req.TransactionType,
			QuantityChange:    req.Delta,
			PreviousQuantity:  record.StockQuantity,
			NewQuantity:       outcome.NewStock,
			Reason:            strings.TrimSpace(req.Reason),
			ActorID:           req.ActorID,
		},
	}
}
