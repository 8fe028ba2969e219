package domain

import "time"

// InventoryRecord representa o nível de estoque de uma variante específica em um armazém.
// Existe exatamente um registro por par (variante, armazém); toda mutação passa
// pelo motor de ajustes, nunca por escrita direta.
// Inclui uma coluna 'version' para controle de concorrência otimista (OCC).
type InventoryRecord struct {
	ID               string    `json:"id"`
	ProductVariantID string    `json:"product_variant_id"`
	WarehouseID      string    `json:"warehouse_id"`
	StockQuantity    int       `json:"stock_quantity"`
	ReservedQuantity int       `json:"reserved_quantity"`
	ReorderLevel     int       `json:"reorder_level"`
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	LastUpdatedAt    time.Time `json:"last_updated_at"`
}

// AvailableQuantity é sempre derivada (estoque - reservado) e nunca persistida,
// para que não exista um segundo campo que possa divergir.
func (r InventoryRecord) AvailableQuantity() int {
	return r.StockQuantity - r.ReservedQuantity
}

// IsLowStock indica se o registro está abaixo do nível de reposição.
// Apenas informativo; nunca bloqueia ajustes.
func (r InventoryRecord) IsLowStock() bool {
	return r.StockQuantity <= r.ReorderLevel
}

// InventoryRecordResponse é a projeção de leitura do registro, com os campos derivados.
type InventoryRecordResponse struct {
	InventoryRecord
	AvailableQuantity int  `json:"available_quantity"`
	LowStock          bool `json:"low_stock"`
}

// ToResponse monta a projeção de leitura, recalculando os derivados.
func (r InventoryRecord) ToResponse() InventoryRecordResponse {
	return InventoryRecordResponse{
		InventoryRecord:   r,
		AvailableQuantity: r.AvailableQuantity(),
		LowStock:          r.IsLowStock(),
	}
}

// NewRecordRequest é o payload esperado para a criação de um registro de inventário.
type NewRecordRequest struct {
	ProductVariantID string `json:"product_variant_id" validate:"required,uuid"`
	WarehouseID      string `json:"warehouse_id" validate:"required,uuid"`
	StockQuantity    int    `json:"stock_quantity"`
	ReservedQuantity int    `json:"reserved_quantity"`
	ReorderLevel     int    `json:"reorder_level"`
}

// AdjustmentRequest é o payload esperado para a requisição de ajuste de estoque.
// ActorID é preenchido a partir do token de autenticação, nunca do corpo.
type AdjustmentRequest struct {
	RecordID        string          `json:"record_id" validate:"required,uuid"`
	Delta           int             `json:"delta"`
	Reason          string          `json:"reason" validate:"required"`
	TransactionType TransactionType `json:"transaction_type,omitempty"`
	ActorID         string          `json:"-"`
}

// AppliedAdjustment é uma mutação já validada pelo modelo de invariantes,
// pronta para ser commitada: o registro carregado, o estado prospectivo e o
// lançamento correspondente do ledger. As duas escritas (UPDATE do registro e
// INSERT do lançamento) devem acontecer na mesma transação.
type AppliedAdjustment struct {
	Record  InventoryRecord
	Outcome AdjustmentOutcome
	Entry   TransactionEntry
}
