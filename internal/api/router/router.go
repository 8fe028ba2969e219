package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"stockledger/config"
	"stockledger/internal/api/catalog"
	"stockledger/internal/api/inventory"
	"stockledger/internal/api/transaction"
	"stockledger/internal/api/user"
	"stockledger/internal/api/warehouse"
	"stockledger/internal/domain"
	"stockledger/internal/pkg/cache"
	"stockledger/internal/pkg/middleware"
	"stockledger/internal/pkg/token"
)

// NewRouter é a função principal que configura e retorna o roteador HTTP.
// Recebe os Handlers já inicializados e aplica os middlewares de autenticação,
// permissão e rate limiting.
func NewRouter(
	inventoryHandler *inventory.Handler,
	transactionHandler *transaction.Handler,
	userHandler *user.Handler,
	warehouseHandler *warehouse.Handler,
	catalogHandler *catalog.Handler,
	tokenSvc token.TokenService,
	cacheClient cache.Client,
	cfg *config.Config,
) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	authenticate := middleware.NewAuthMiddleware(tokenSvc)
	requireWriter := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleManager)

	// 1. Rotas de Identidade (públicas)
	mux.HandleFunc("/v1/users/register", userHandler.RegisterHandler)
	mux.HandleFunc("/v1/users/login", userHandler.LoginHandler)

	// 2. Rotas de Inventário
	// POST cria registro; GET com sufixo de ID consulta um registro.
	mux.HandleFunc("/v1/inventory/records", authenticate(requireWriter(inventoryHandler.CreateRecordHandler)))
	mux.HandleFunc("/v1/inventory/records/", authenticate(inventoryHandler.GetRecordHandler))

	// 3. Rotas de Ajuste (exigem papel de escrita)
	mux.HandleFunc("/v1/inventory/adjustments", authenticate(requireWriter(inventoryHandler.AdjustmentHandler)))
	mux.HandleFunc("/v1/inventory/adjustments/bulk", authenticate(requireWriter(inventoryHandler.BulkAdjustmentHandler)))

	// 4. Rotas do Ledger (somente leitura)
	mux.HandleFunc("/v1/transactions", authenticate(transactionHandler.QueryHandler))
	mux.HandleFunc("/v1/transactions/export", authenticate(transactionHandler.ExportHandler))

	// 5. Rotas de Catálogo e Armazéns (somente leitura)
	mux.HandleFunc("/v1/variants/", authenticate(catalogHandler.GetVariantHandler))
	mux.HandleFunc("/v1/warehouses", authenticate(warehouseHandler.ListHandler))
	mux.HandleFunc("/v1/warehouses/", authenticate(warehouseHandler.GetHandler))

	// 6. Documentação Swagger
	mux.Handle("/swagger/", httpSwagger.Handler())

	// 7. Rota de Ping/Health Check
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// 8. Rate limiting global, contado por IP no Redis
	return middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)(mux)
}
