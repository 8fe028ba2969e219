package ledgerservice_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/service/ledgerservice"
)

// MockLedgerRepository é uma implementação mock da interface LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.TransactionPage, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.TransactionPage), args.Error(1)
}

func (m *MockLedgerRepository) ExportTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.TransactionExportRow, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransactionExportRow), args.Error(1)
}

func newTestService(repo *MockLedgerRepository) *ledgerservice.Service {
	return ledgerservice.NewService(repo, logger.NewLogger("error"))
}

// TestQueryTransactions_Fail_InvalidDateRange testa que data inicial posterior
// à final rejeita a consulta antes de qualquer leitura.
func TestQueryTransactions_Fail_InvalidDateRange(t *testing.T) {
	mockRepo := new(MockLedgerRepository)
	svc := newTestService(mockRepo)

	from := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.QueryTransactions(context.Background(), domain.TransactionFilter{
		DateFrom: &from,
		DateTo:   &to,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidFilterError{}, err)
	mockRepo.AssertNotCalled(t, "QueryTransactions", mock.Anything, mock.Anything)
}

// TestQueryTransactions_Fail_UnknownType testa a rejeição de tipo de transação desconhecido.
func TestQueryTransactions_Fail_UnknownType(t *testing.T) {
	mockRepo := new(MockLedgerRepository)
	svc := newTestService(mockRepo)

	_, err := svc.QueryTransactions(context.Background(), domain.TransactionFilter{
		TransactionType: "loan",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidFilterError{}, err)
	mockRepo.AssertNotCalled(t, "QueryTransactions", mock.Anything, mock.Anything)
}

// TestQueryTransactions_AppliesPaginationDefaults testa os padrões de página e limite.
func TestQueryTransactions_AppliesPaginationDefaults(t *testing.T) {
	mockRepo := new(MockLedgerRepository)
	svc := newTestService(mockRepo)

	mockRepo.On("QueryTransactions", mock.AnythingOfType("context.backgroundCtx"),
		mock.MatchedBy(func(f domain.TransactionFilter) bool {
			return f.Page == 1 && f.Limit == ledgerservice.DefaultPageLimit
		})).
		Return(domain.TransactionPage{Page: 1, Limit: ledgerservice.DefaultPageLimit}, nil)

	_, err := svc.QueryTransactions(context.Background(), domain.TransactionFilter{})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestQueryTransactions_CapsLimit testa que o limite é rebaixado ao teto.
func TestQueryTransactions_CapsLimit(t *testing.T) {
	mockRepo := new(MockLedgerRepository)
	svc := newTestService(mockRepo)

	mockRepo.On("QueryTransactions", mock.AnythingOfType("context.backgroundCtx"),
		mock.MatchedBy(func(f domain.TransactionFilter) bool {
			return f.Limit == ledgerservice.MaxPageLimit
		})).
		Return(domain.TransactionPage{}, nil)

	_, err := svc.QueryTransactions(context.Background(), domain.TransactionFilter{Page: 1, Limit: 9999})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestExportTransactions_WritesCSV testa o conteúdo da exportação: cabeçalho e
// uma linha por lançamento, com os metadados de exibição.
func TestExportTransactions_WritesCSV(t *testing.T) {
	mockRepo := new(MockLedgerRepository)
	svc := newTestService(mockRepo)

	createdAt := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	rows := []domain.TransactionExportRow{
		{
			Entry: domain.TransactionEntry{
				ID:                42,
				InventoryRecordID: "rec-1",
				TransactionType:   domain.TransactionSale,
				QuantityChange:    -3,
				PreviousQuantity:  10,
				NewQuantity:       7,
				Reason:            "Venda no balcão",
				ActorID:           "user-1",
				CreatedAt:         createdAt,
			},
			VariantSKU:    "SKU-001",
			VariantName:   "Camiseta P",
			WarehouseName: "CD São Paulo",
		},
	}

	mockRepo.On("ExportTransactions", mock.AnythingOfType("context.backgroundCtx"), mock.AnythingOfType("domain.TransactionFilter")).
		Return(rows, nil)

	var buf bytes.Buffer
	err := svc.ExportTransactions(context.Background(), domain.TransactionFilter{}, &buf)

	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "id,created_at,inventory_record_id,variant_sku,variant_name,warehouse_name,transaction_type,quantity_change,previous_quantity,new_quantity,reason,actor_id", lines[0])
	assert.Contains(t, lines[1], "42,2026-03-15T10:30:00Z,rec-1,SKU-001,Camiseta P,CD São Paulo,sale,-3,10,7,Venda no balcão,user-1")
	mockRepo.AssertExpectations(t)
}

// TestExportTransactions_Fail_InvalidFilter testa que filtro inválido não gera leitura nem escrita.
func TestExportTransactions_Fail_InvalidFilter(t *testing.T) {
	mockRepo := new(MockLedgerRepository)
	svc := newTestService(mockRepo)

	from := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	err := svc.ExportTransactions(context.Background(), domain.TransactionFilter{DateFrom: &from, DateTo: &to}, &buf)

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidFilterError{}, err)
	assert.Zero(t, buf.Len())
	mockRepo.AssertNotCalled(t, "ExportTransactions", mock.Anything, mock.Anything)
}
