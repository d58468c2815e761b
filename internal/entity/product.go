package entity

// ProductRow is one input record: a product reference and the page that shows it.
type ProductRow struct {
	Reference string `json:"reference" yaml:"reference"`
	SourceURL string `json:"url" yaml:"url"`
}

// Page is the result of fetching a product page.
type Page struct {
	URL        string
	StatusCode int
	HTML       string
}
