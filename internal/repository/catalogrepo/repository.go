package catalogrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/cache"
	"stockledger/internal/pkg/logger"
)

// Chave de cache para metadados de variante.
const variantCacheKey = "variant:%s"

// CatalogRepository resolve metadados de exibição do catálogo (variante → SKU,
// nome). O catálogo é colaborador externo: este repositório é estritamente
// somente-leitura e usa a estratégia Cache-Aside com Redis.
type CatalogRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewCatalogRepository cria e retorna uma nova instância do Repositório de Catálogo.
func NewCatalogRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// FindVariantByID busca os metadados de uma variante, preferindo o cache.
func (r *CatalogRepository) FindVariantByID(ctx context.Context, id string) (domain.Variant, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(variantCacheKey, id)
	var variant domain.Variant

	// 1. Cache-Aside (READ): tentar obter do Redis.
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &variant) == nil {
			return variant, nil
		}
		// Desserialização falhou; segue para o DB.
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): logamos e seguimos para o DB.
		r.logger.Warn("Falha ao ler variante do cache.", map[string]interface{}{"variant_id": id, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados (PostgreSQL).
	query := `
        SELECT v.id, v.product_id, v.sku, v.name, v.attribute, v.value
        FROM variants v
        WHERE v.id = $1`

	err = r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&variant.ID, &variant.ProductID, &variant.SKU, &variant.Name,
		&variant.Attribute, &variant.Value,
	)

	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Variante não encontrada no catálogo.", map[string]interface{}{"variant_id": id})
		return domain.Variant{}, apperror.NewNotFoundError(fmt.Sprintf("Variante com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar variante no DB.", err)
		return domain.Variant{}, apperror.NewDBError("Falha ao buscar variante", err)
	}

	// 3. Cache-Aside (WRITE): popular o cache para futuras requisições.
	if variantJSON, marshalErr := json.Marshal(variant); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, variantJSON, r.CacheTTL)
	}

	return variant, nil
}
