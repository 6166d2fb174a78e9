package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the single store-wide configuration document. Exactly one
// record exists; reads go through a get-or-initialize operation so callers
// never observe an absent document.
type Settings struct {
	ID                      int64           `json:"id"`
	StoreName               string          `json:"store_name"`
	Address                 string          `json:"address"`
	LogoURL                 string          `json:"logo_url,omitempty"`
	ReceiptFooter           string          `json:"receipt_footer,omitempty"`
	Locale                  string          `json:"locale"`
	TaxRate                 decimal.Decimal `json:"tax_rate"`
	GlobalDiscount          decimal.Decimal `json:"global_discount"`
	ServiceCharge           decimal.Decimal `json:"service_charge"`
	CalculatedServiceCharge decimal.Decimal `json:"calculated_service_charge"`
	LowStockAlert           int             `json:"low_stock_alert"`
	PaymentMethods          []PaymentMethod `json:"payment_methods"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// PaymentMethod is a top-level payment option. Methods without channels
// (e.g. QRIS) carry their logo on the method itself.
type PaymentMethod struct {
	Method   string    `json:"method"`
	IsActive bool      `json:"is_active"`
	Logo     string    `json:"logo,omitempty"`
	Channels []Channel `json:"channels"`
}

// Channel is a concrete option under a payment method, e.g. a bank under
// "Virtual Account". Names are unique within their parent method.
type Channel struct {
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
	Logo     string `json:"logo,omitempty"`
}

// FindMethod returns the payment method with the given name, if present.
func (s *Settings) FindMethod(name string) (*PaymentMethod, bool) {
	for i := range s.PaymentMethods {
		if s.PaymentMethods[i].Method == name {
			return &s.PaymentMethods[i], true
		}
	}
	return nil, false
}

// FindChannel returns the channel with the given name, if present.
func (m *PaymentMethod) FindChannel(name string) (*Channel, bool) {
	for i := range m.Channels {
		if m.Channels[i].Name == name {
			return &m.Channels[i], true
		}
	}
	return nil, false
}

// InventoryItem is a sellable product. FinalPrice is derived by the
// recalculation engine and is never written by catalog endpoints.
type InventoryItem struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	MinimumStock  int             `json:"minimum_stock"`
	Stock         int             `json:"stock"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CostEntry is one named recurring expense. The operational-cost total read
// by the service-charge calculator is the sum over all entries.
type CostEntry struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// DomainEvent is a persisted record of a settings or pricing mutation.
type DomainEvent struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Payload    []byte    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DefaultSettings returns the document created on first access.
func DefaultSettings() Settings {
	return Settings{
		ID:             1,
		StoreName:      "Toko Baru",
		Locale:         "id-ID",
		LowStockAlert:  5,
		PaymentMethods: []PaymentMethod{},
	}
}
