package adjustmentservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/keylock"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/service/adjustmentservice"
)

// MockInventoryRepository é uma implementação mock da interface InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) CreateRecord(ctx context.Context, record domain.InventoryRecord) (domain.InventoryRecord, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(domain.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepository) GetRecord(ctx context.Context, id string) (domain.InventoryRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRepository) CommitAdjustments(ctx context.Context, changes []domain.AppliedAdjustment) ([]domain.InventoryRecord, error) {
	args := m.Called(ctx, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InventoryRecord), args.Error(1)
}

func newTestService(repo *MockInventoryRepository) *adjustmentservice.Service {
	return adjustmentservice.NewService(repo, keylock.NewManager(), logger.NewLogger("error"))
}

func testRecord(id string, stock, reserved int) domain.InventoryRecord {
	now := time.Now()
	return domain.InventoryRecord{
		ID:               id,
		ProductVariantID: uuid.New().String(),
		WarehouseID:      uuid.New().String(),
		StockQuantity:    stock,
		ReservedQuantity: reserved,
		Version:          1,
		CreatedAt:        now,
		LastUpdatedAt:    now,
	}
}

// TestApplyAdjustment_Success testa um ajuste bem-sucedido, incluindo o
// conteúdo do lançamento de auditoria montado para o commit.
func TestApplyAdjustment_Success(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	recordID := uuid.New().String()
	current := testRecord(recordID, 10, 2)
	updated := current
	updated.StockQuantity = 15
	updated.Version = 2

	var committed []domain.AppliedAdjustment
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(current, nil)
	mockRepo.On("CommitAdjustments", mock.AnythingOfType("context.backgroundCtx"), mock.AnythingOfType("[]domain.AppliedAdjustment")).
		Run(func(args mock.Arguments) {
			committed = args.Get(1).([]domain.AppliedAdjustment)
		}).
		Return([]domain.InventoryRecord{updated}, nil)

	result, err := svc.ApplyAdjustment(context.Background(), domain.AdjustmentRequest{
		RecordID:        recordID,
		Delta:           5,
		Reason:          "Recebimento de compra",
		TransactionType: domain.TransactionPurchase,
		ActorID:         "user-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, 15, result.StockQuantity)
	assert.Equal(t, 2, result.Version)

	// O lançamento de auditoria deve carregar o snapshot antes/depois.
	assert.Len(t, committed, 1)
	entry := committed[0].Entry
	assert.Equal(t, recordID, entry.InventoryRecordID)
	assert.Equal(t, domain.TransactionPurchase, entry.TransactionType)
	assert.Equal(t, 5, entry.QuantityChange)
	assert.Equal(t, 10, entry.PreviousQuantity)
	assert.Equal(t, 15, entry.NewQuantity)
	assert.Equal(t, "Recebimento de compra", entry.Reason)
	assert.Equal(t, "user-1", entry.ActorID)
	mockRepo.AssertExpectations(t)
}

// TestApplyAdjustment_Fail_ReasonRequired testa que ajuste sem motivo é
// rejeitado antes de qualquer acesso ao repositório.
func TestApplyAdjustment_Fail_ReasonRequired(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	_, err := svc.ApplyAdjustment(context.Background(), domain.AdjustmentRequest{
		RecordID: uuid.New().String(),
		Delta:    5,
		Reason:   "   ",
		ActorID:  "user-1",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "motivo")
	mockRepo.AssertNotCalled(t, "GetRecord", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "CommitAdjustments", mock.Anything, mock.Anything)
}

// TestApplyAdjustment_Fail_NegativeStock testa a rejeição de baixa maior que o estoque.
func TestApplyAdjustment_Fail_NegativeStock(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	recordID := uuid.New().String()
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(testRecord(recordID, 10, 0), nil)

	_, err := svc.ApplyAdjustment(context.Background(), domain.AdjustmentRequest{
		RecordID: recordID,
		Delta:    -15,
		Reason:   "Venda",
		ActorID:  "user-1",
	})

	assert.Error(t, err)
	var invariantErr *apperror.InvariantError
	assert.ErrorAs(t, err, &invariantErr)
	assert.Equal(t, domain.ViolationNegativeStock, invariantErr.Violation.Code)
	mockRepo.AssertNotCalled(t, "CommitAdjustments", mock.Anything, mock.Anything)
}

// TestApplyAdjustment_Fail_NegativeAvailable testa a rejeição de baixa que
// comeria unidades reservadas, mesmo com estoque resultante positivo.
func TestApplyAdjustment_Fail_NegativeAvailable(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	recordID := uuid.New().String()
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(testRecord(recordID, 10, 8), nil)

	_, err := svc.ApplyAdjustment(context.Background(), domain.AdjustmentRequest{
		RecordID: recordID,
		Delta:    -5,
		Reason:   "Baixa por avaria",
		ActorID:  "user-1",
	})

	assert.Error(t, err)
	var invariantErr *apperror.InvariantError
	assert.ErrorAs(t, err, &invariantErr)
	assert.Equal(t, domain.ViolationNegativeAvailable, invariantErr.Violation.Code)
	assert.Equal(t, -3, invariantErr.Violation.NewAvailable)
	mockRepo.AssertNotCalled(t, "CommitAdjustments", mock.Anything, mock.Anything)
}

// TestApplyAdjustment_ZeroDelta_StillRecordsEntry testa que delta zero é legal
// e ainda gera lançamento no ledger (correção "apenas motivo").
func TestApplyAdjustment_ZeroDelta_StillRecordsEntry(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	recordID := uuid.New().String()
	current := testRecord(recordID, 7, 0)
	updated := current
	updated.Version = 2

	var committed []domain.AppliedAdjustment
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(current, nil)
	mockRepo.On("CommitAdjustments", mock.AnythingOfType("context.backgroundCtx"), mock.AnythingOfType("[]domain.AppliedAdjustment")).
		Run(func(args mock.Arguments) {
			committed = args.Get(1).([]domain.AppliedAdjustment)
		}).
		Return([]domain.InventoryRecord{updated}, nil)

	result, err := svc.ApplyAdjustment(context.Background(), domain.AdjustmentRequest{
		RecordID: recordID,
		Delta:    0,
		Reason:   "Contagem física confirmada",
		ActorID:  "user-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, 7, result.StockQuantity)
	assert.Len(t, committed, 1)
	assert.Equal(t, 0, committed[0].Entry.QuantityChange)
	assert.Equal(t, 7, committed[0].Entry.PreviousQuantity)
	assert.Equal(t, 7, committed[0].Entry.NewQuantity)
	mockRepo.AssertExpectations(t)
}

// TestApplyAdjustment_DefaultType_Correction testa que tipo ausente vira 'correction'.
func TestApplyAdjustment_DefaultType_Correction(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	recordID := uuid.New().String()
	current := testRecord(recordID, 10, 0)
	updated := current
	updated.StockQuantity = 12
	updated.Version = 2

	var committed []domain.AppliedAdjustment
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(current, nil)
	mockRepo.On("CommitAdjustments", mock.AnythingOfType("context.backgroundCtx"), mock.AnythingOfType("[]domain.AppliedAdjustment")).
		Run(func(args mock.Arguments) {
			committed = args.Get(1).([]domain.AppliedAdjustment)
		}).
		Return([]domain.InventoryRecord{updated}, nil)

	_, err := svc.ApplyAdjustment(context.Background(), domain.AdjustmentRequest{
		RecordID: recordID,
		Delta:    2,
		Reason:   "Acerto de contagem",
		ActorID:  "user-1",
	})

	assert.NoError(t, err)
	assert.Len(t, committed, 1)
	assert.Equal(t, domain.TransactionCorrection, committed[0].Entry.TransactionType)
}

// TestApplyAdjustment_Fail_RecordNotFound testa o ajuste contra registro inexistente.
func TestApplyAdjustment_Fail_RecordNotFound(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	recordID := uuid.New().String()
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(domain.InventoryRecord{}, apperror.NewNotFoundError("Registro de inventário não encontrado."))

	_, err := svc.ApplyAdjustment(context.Background(), domain.AdjustmentRequest{
		RecordID: recordID,
		Delta:    1,
		Reason:   "Venda",
		ActorID:  "user-1",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertNotCalled(t, "CommitAdjustments", mock.Anything, mock.Anything)
}

// TestApplyBulk_Fail_CollectsAllFailures testa que a fase de validação do lote
// é exaustiva: todas as falhas são relatadas e nenhum item é aplicado.
func TestApplyBulk_Fail_CollectsAllFailures(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	okID := uuid.New().String()
	poorID := uuid.New().String()

	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), okID).
		Return(testRecord(okID, 100, 0), nil)
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), poorID).
		Return(testRecord(poorID, 3, 0), nil)

	items := []domain.AdjustmentRequest{
		{RecordID: okID, Delta: -10, Reason: "Venda", ActorID: "user-1"},
		{RecordID: okID, Delta: 5, Reason: "", ActorID: "user-1"},         // sem motivo
		{RecordID: poorID, Delta: -10, Reason: "Venda", ActorID: "user-1"}, // estoque insuficiente
	}

	_, err := svc.ApplyBulk(context.Background(), items)

	assert.Error(t, err)
	var bulkErr *apperror.BulkError
	assert.ErrorAs(t, err, &bulkErr)
	assert.Len(t, bulkErr.Failures, 2)

	assert.Equal(t, 1, bulkErr.Failures[0].Index)
	assert.Equal(t, apperror.CodeReasonRequired, bulkErr.Failures[0].Code)
	assert.Equal(t, 2, bulkErr.Failures[1].Index)
	assert.Equal(t, domain.ViolationNegativeStock, bulkErr.Failures[1].Code)

	// Tudo-ou-nada: nenhum item chega ao commit.
	mockRepo.AssertNotCalled(t, "CommitAdjustments", mock.Anything, mock.Anything)
}

// TestApplyBulk_DuplicateRecords_FoldAgainstBatchState testa que itens
// duplicados do mesmo registro são avaliados contra o resultado acumulado do
// lote, não contra o estado persistido.
func TestApplyBulk_DuplicateRecords_FoldAgainstBatchState(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	recordID := uuid.New().String()
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(testRecord(recordID, 100, 0), nil).Once()

	// Individualmente ambos passariam contra estoque 100; em sequência o
	// segundo deixaria o estoque em -10.
	items := []domain.AdjustmentRequest{
		{RecordID: recordID, Delta: -60, Reason: "Venda", ActorID: "user-1"},
		{RecordID: recordID, Delta: -50, Reason: "Venda", ActorID: "user-1"},
	}

	_, err := svc.ApplyBulk(context.Background(), items)

	assert.Error(t, err)
	var bulkErr *apperror.BulkError
	assert.ErrorAs(t, err, &bulkErr)
	assert.Len(t, bulkErr.Failures, 1)
	assert.Equal(t, 1, bulkErr.Failures[0].Index)
	assert.Equal(t, domain.ViolationNegativeStock, bulkErr.Failures[0].Code)

	mockRepo.AssertNotCalled(t, "CommitAdjustments", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t) // GetRecord uma única vez, apesar da duplicata
}

// TestApplyBulk_Success_DuplicateRecords testa o commit de um lote com
// duplicatas válidas: cada mutação encadeia o snapshot e a versão da anterior,
// e a resposta traz apenas o estado final do registro.
func TestApplyBulk_Success_DuplicateRecords(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	recordID := uuid.New().String()
	current := testRecord(recordID, 100, 0)
	final := current
	final.StockQuantity = 60
	final.Version = 3

	var committed []domain.AppliedAdjustment
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(current, nil).Once()
	mockRepo.On("CommitAdjustments", mock.AnythingOfType("context.backgroundCtx"), mock.AnythingOfType("[]domain.AppliedAdjustment")).
		Run(func(args mock.Arguments) {
			committed = args.Get(1).([]domain.AppliedAdjustment)
		}).
		Return([]domain.InventoryRecord{
			{ID: recordID, StockQuantity: 40, Version: 2},
			final,
		}, nil)

	items := []domain.AdjustmentRequest{
		{RecordID: recordID, Delta: -60, Reason: "Venda", ActorID: "user-1"},
		{RecordID: recordID, Delta: 20, Reason: "Devolução", TransactionType: domain.TransactionReturn, ActorID: "user-1"},
	}

	result, err := svc.ApplyBulk(context.Background(), items)

	assert.NoError(t, err)
	assert.Len(t, committed, 2)

	// Primeira mutação parte do estado persistido.
	assert.Equal(t, 100, committed[0].Entry.PreviousQuantity)
	assert.Equal(t, 40, committed[0].Entry.NewQuantity)
	assert.Equal(t, 1, committed[0].Record.Version)

	// Segunda mutação parte do resultado da primeira, com a versão encadeada.
	assert.Equal(t, 40, committed[1].Entry.PreviousQuantity)
	assert.Equal(t, 60, committed[1].Entry.NewQuantity)
	assert.Equal(t, 2, committed[1].Record.Version)

	// A resposta colapsa as duplicatas no estado final.
	assert.Len(t, result, 1)
	assert.Equal(t, 60, result[0].StockQuantity)
	assert.Equal(t, 3, result[0].Version)
	mockRepo.AssertExpectations(t)
}

// TestApplyBulk_Fail_EmptyBatch testa a rejeição de lote vazio.
func TestApplyBulk_Fail_EmptyBatch(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	_, err := svc.ApplyBulk(context.Background(), nil)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "GetRecord", mock.Anything, mock.Anything)
}

// TestApplyBulk_Fail_InfrastructureAbortsBatch testa que falha de
// infraestrutura no carregamento aborta o lote inteiro, sem relatório parcial.
func TestApplyBulk_Fail_InfrastructureAbortsBatch(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	recordID := uuid.New().String()
	dbErr := apperror.NewDBError("Falha ao buscar registro de inventário", errors.New("connection reset"))
	mockRepo.On("GetRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(domain.InventoryRecord{}, dbErr)

	_, err := svc.ApplyBulk(context.Background(), []domain.AdjustmentRequest{
		{RecordID: recordID, Delta: 1, Reason: "Venda", ActorID: "user-1"},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InternalError{}, err)
	mockRepo.AssertNotCalled(t, "CommitAdjustments", mock.Anything, mock.Anything)
}

// TestCreateRecord_Fail_ReservedExceedsStock testa que o registro já nasce
// obedecendo o invariante de disponibilidade.
func TestCreateRecord_Fail_ReservedExceedsStock(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := newTestService(mockRepo)

	_, err := svc.CreateRecord(context.Background(), domain.NewRecordRequest{
		ProductVariantID: uuid.New().String(),
		WarehouseID:      uuid.New().String(),
		StockQuantity:    5,
		ReservedQuantity: 8,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything)
}
