package domain

import "time"

// TransactionType classifica a origem de um ajuste de estoque.
type TransactionType string

const (
	TransactionSale       TransactionType = "sale"
	TransactionPurchase   TransactionType = "purchase"
	TransactionReturn     TransactionType = "return"
	TransactionCorrection TransactionType = "correction"
	TransactionDamage     TransactionType = "damage"
	TransactionTransfer   TransactionType = "transfer"
	TransactionOther      TransactionType = "other"
)

// IsValid verifica se o tipo de transação é um dos valores conhecidos.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionSale, TransactionPurchase, TransactionReturn,
		TransactionCorrection, TransactionDamage, TransactionTransfer, TransactionOther:
		return true
	}
	return false
}

// TransactionEntry é o registro imutável de um ajuste commitado (append-only).
// Guarda o snapshot da quantidade antes/depois para auditoria sem replay.
// Um lançamento nunca referencia outro: uma correção é um novo lançamento.
type TransactionEntry struct {
	ID                int64           `json:"id"`
	InventoryRecordID string          `json:"inventory_record_id"`
	TransactionType   TransactionType `json:"transaction_type"`
	QuantityChange    int             `json:"quantity_change"`
	PreviousQuantity  int             `json:"previous_quantity"`
	NewQuantity       int             `json:"new_quantity"`
	Reason            string          `json:"reason"`
	ActorID           string          `json:"actor_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TransactionFilter define os parâmetros de busca e paginação do ledger.
// O intervalo [DateFrom, DateTo] é inclusivo nas duas pontas.
type TransactionFilter struct {
	InventoryRecordID string
	WarehouseID       string
	ProductVariantID  string
	TransactionType   TransactionType
	ActorID           string
	DateFrom          *time.Time
	DateTo            *time.Time
	Page              int
	Limit             int
}

// TransactionPage é o resultado paginado de uma consulta ao ledger,
// ordenado por created_at decrescente.
type TransactionPage struct {
	Entries []TransactionEntry `json:"entries"`
	Total   int                `json:"total"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
}

// TransactionExportRow é a projeção de exportação: o lançamento enriquecido
// com metadados de exibição do catálogo e do registro de armazéns.
type TransactionExportRow struct {
	Entry         TransactionEntry
	VariantSKU    string
	VariantName   string
	WarehouseName string
}
