package warehouseservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/service/warehouseservice"
)

// MockWarehouseRepository é uma implementação mock da interface WarehouseRepository
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) GetAllWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Warehouse), args.Error(1)
}

// Helper function to create a basic logger
func newTestLogger() logger.Logger {
	return logger.NewLogger("error")
}

func TestGetWarehouseByID_Success(t *testing.T) {
	mockRepo := new(MockWarehouseRepository)
	svc := warehouseservice.NewService(mockRepo, newTestLogger())

	id := uuid.New().String()
	expected := domain.Warehouse{
		ID:        id,
		Name:      "CD São Paulo",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	mockRepo.On("GetWarehouseByID", mock.Anything, id).Return(expected, nil)

	ctx := context.Background()
	result, err := svc.GetWarehouseByID(ctx, id)

	assert.NoError(t, err)
	assert.Equal(t, expected.Name, result.Name)
	mockRepo.AssertExpectations(t)
}

func TestGetWarehouseByID_Fail_InvalidUUID(t *testing.T) {
	mockRepo := new(MockWarehouseRepository)
	svc := warehouseservice.NewService(mockRepo, newTestLogger())

	ctx := context.Background()
	_, err := svc.GetWarehouseByID(ctx, "nao-e-um-uuid")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "GetWarehouseByID", mock.Anything, mock.Anything)
}

func TestGetAllWarehouses_Success(t *testing.T) {
	mockRepo := new(MockWarehouseRepository)
	svc := warehouseservice.NewService(mockRepo, newTestLogger())

	expected := []domain.Warehouse{
		{ID: uuid.New().String(), Name: "CD São Paulo"},
		{ID: uuid.New().String(), Name: "CD Recife"},
	}

	mockRepo.On("GetAllWarehouses", mock.Anything).Return(expected, nil)

	ctx := context.Background()
	result, err := svc.GetAllWarehouses(ctx)

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	mockRepo.AssertExpectations(t)
}
