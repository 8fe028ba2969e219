package catalogservice

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// CatalogRepository define o contrato de consulta ao catálogo.
// O catálogo é colaborador externo: somente-leitura, nunca mutado aqui.
type CatalogRepository interface {
	FindVariantByID(ctx context.Context, id string) (domain.Variant, error)
}

// Service resolve metadados de exibição de variantes (SKU, nome).
type Service struct {
	repo   CatalogRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(repo CatalogRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetVariantByID busca os metadados de uma variante pelo ID.
func (s *Service) GetVariantByID(ctx domain.Context, id string) (domain.Variant, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return domain.Variant{}, apperror.NewValidationError("O ID da variante deve ser um UUID válido.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetVariantByID", nil)
	}

	return s.repo.FindVariantByID(ctxGo, id)
}
