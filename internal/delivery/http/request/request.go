package request

// ProductRow is one product of a submitted run.
type ProductRow struct {
	Reference string `json:"reference"`
	URL       string `json:"url"`
}

type SubmitRunRequest struct {
	Rows []ProductRow `json:"rows"`

	// MaxPerProduct falls back to the server default when zero.
	MaxPerProduct int `json:"max_per_product"`
}
