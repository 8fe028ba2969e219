package domain

import (
	"time"
)

// Product representa o item do catálogo. O catálogo é um colaborador externo
// deste serviço: consumimos os dados apenas para exibição, nunca os mutamos.
type Product struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"` // Stock Keeping Unit (código único de produto)
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Variant representa as variações de um Produto (e.g., cor, tamanho).
// O controle de estoque (InventoryRecord) é feito a nível de Variant.
type Variant struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Attribute string `json:"attribute"` // Ex: "Cor"
	Value     string `json:"value"`     // Ex: "Vermelho"
}

// Context é uma interface que encapsula o Go context.Context.
// É usado para propagar o timeout e sinais de cancelamento pelas camadas.
// Isso evita a dependência direta do pacote "context" no domínio.
type Context interface{}
