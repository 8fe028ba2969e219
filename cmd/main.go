package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"stockledger/config"
	"stockledger/internal/pkg/cache"
	"stockledger/internal/pkg/database"
	"stockledger/internal/pkg/keylock"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"stockledger/internal/api/catalog"
	"stockledger/internal/api/inventory"
	"stockledger/internal/api/router"
	"stockledger/internal/api/transaction"
	"stockledger/internal/api/user"
	"stockledger/internal/api/warehouse"
	"stockledger/internal/repository/catalogrepo"
	"stockledger/internal/repository/inventoryrepo"
	"stockledger/internal/repository/ledgerrepo"
	"stockledger/internal/repository/userrepo"
	"stockledger/internal/repository/warehouserepo"
	"stockledger/internal/service/adjustmentservice"
	"stockledger/internal/service/catalogservice"
	"stockledger/internal/service/ledgerservice"
	"stockledger/internal/service/userservice"
	"stockledger/internal/service/warehouseservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço StockLedger...")

	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos, mas continuamos,
		// pois as variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		log.Fatal("Falha ao conectar ao Redis.", err)
	}
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// D. Gerenciador de locks por registro (exclusão mútua dos ajustes)
	locks := keylock.NewManager()

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Inventário e Ajustes
	inventoryRepo := inventoryrepo.NewInventoryRepository(db, cfg.DBTimeout, log)
	adjustmentSvc := adjustmentservice.NewService(inventoryRepo, locks, log)
	inventoryHandler := inventory.NewHandler(adjustmentSvc, log)
	log.Debug("Módulo de Inventário inicializado.", nil)

	// B. Ledger de Transações (somente leitura)
	ledgerRepo := ledgerrepo.NewLedgerRepository(db, cfg.DBTimeout, log)
	ledgerSvc := ledgerservice.NewService(ledgerRepo, log)
	transactionHandler := transaction.NewHandler(ledgerSvc, log)
	log.Debug("Módulo do Ledger inicializado.", nil)

	// C. Identidade
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	userSvc := userservice.NewService(userRepo, tokenSvc, log)
	userHandler := user.NewHandler(userSvc, log)
	log.Debug("Módulo de Usuários inicializado.", nil)

	// D. Catálogo (leitura com cache Redis) e Armazéns
	catalogRepo := catalogrepo.NewCatalogRepository(db, cacheClient, cfg.DBTimeout, cfg.CatalogCacheTTL, log)
	catalogSvc := catalogservice.NewService(catalogRepo, log)
	catalogHandler := catalog.NewHandler(catalogSvc, log)

	warehouseRepo := warehouserepo.NewWarehouseRepository(db, cfg.DBTimeout, log)
	warehouseSvc := warehouseservice.NewService(warehouseRepo, log)
	warehouseHandler := warehouse.NewHandler(warehouseSvc, log)
	log.Debug("Módulos de Catálogo e Armazéns inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(
		inventoryHandler,
		transactionHandler,
		userHandler,
		warehouseHandler,
		catalogHandler,
		tokenSvc,
		cacheClient,
		cfg,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // Exportações de CSV podem demorar mais
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor StockLedger ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	// Lógica do Graceful Shutdown (captura de sinal)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
