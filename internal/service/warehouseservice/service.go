package warehouseservice

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// WarehouseRepository define o contrato que o Serviço de Armazéns espera da camada de Persistência.
// O registro de armazéns é colaborador externo: somente-leitura.
type WarehouseRepository interface {
	GetWarehouseByID(ctx context.Context, id string) (domain.Warehouse, error)
	GetAllWarehouses(ctx context.Context) ([]domain.Warehouse, error)
}

// Service expõe a consulta de metadados de armazéns para exibição.
type Service struct {
	repo   WarehouseRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Armazéns.
func NewService(repo WarehouseRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetWarehouseByID busca um armazém pelo ID, validando o formato do identificador.
func (s *Service) GetWarehouseByID(ctx domain.Context, id string) (domain.Warehouse, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return domain.Warehouse{}, apperror.NewValidationError("O ID do armazém deve ser um UUID válido.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetWarehouseByID", nil)
	}

	return s.repo.GetWarehouseByID(ctxGo, id)
}

// GetAllWarehouses lista todos os armazéns cadastrados.
func (s *Service) GetAllWarehouses(ctx domain.Context) ([]domain.Warehouse, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetAllWarehouses", nil)
	}

	return s.repo.GetAllWarehouses(ctxGo)
}
