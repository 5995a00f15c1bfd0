package domain

type ProductType string

const (
	ProductTypeStorable   ProductType = "storable"
	ProductTypeConsumable ProductType = "consumable"
	ProductTypeService    ProductType = "service"
)

// ProductDraft holds the fields collected during a create-product
// conversation. Prices are kept as the raw normalized strings the
// user spoke; the ERP backend owns parsing and validation.
type ProductDraft struct {
	Name        string
	Type        ProductType
	CostPrice   string
	SalePrice   string
	Description string
}

// NewProductDraft returns a blank draft with the type defaulted to storable.
func NewProductDraft() ProductDraft {
	return ProductDraft{Type: ProductTypeStorable}
}

// Product is the record sent to (and returned by) the ERP backend.
type Product struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Type        ProductType `json:"type"`
	CostPrice   string      `json:"cost_price"`
	SalePrice   string      `json:"sale_price"`
	Description string      `json:"description"`
	Tracking    string      `json:"tracking"`
	ReorderMin  int         `json:"reorder_min"`
	ReorderMax  int         `json:"reorder_max"`
}

// NewProduct builds the creation payload from a completed draft and a
// generated reference code, filling the fields not collected
// conversationally with fixed defaults.
func NewProduct(draft ProductDraft, code string) Product {
	return Product{
		Code:        code,
		Name:        draft.Name,
		Type:        draft.Type,
		CostPrice:   draft.CostPrice,
		SalePrice:   draft.SalePrice,
		Description: draft.Description,
		Tracking:    "none",
		ReorderMin:  0,
		ReorderMax:  0,
	}
}
