package scraper

// Listing represents one accepted listing card. Values are immutable once
// constructed; the sequence id is written only by the SequenceAllocator.
// JSON tags mirror the columns of the persisted imoveisdireto table.
type Listing struct {
	ID          int64   `json:"id"`
	Title       string  `json:"titulo"`
	Address     string  `json:"endereco"`
	AreaM2      float64 `json:"area_m2"`
	Price       float64 `json:"preco_real"`
	PricePerM2  float64 `json:"preco_m2"`
	Link        string  `json:"link"`
	Page        int     `json:"pagina"`
	CollectedAt string  `json:"data_coleta"`
	Region      string  `json:"estado"`
	Locality    string  `json:"localidade"`
}

// RejectReason classifies why a card yielded no record. Parse failures are
// reported separately from genuine zero values so an unparseable price is
// not mistaken for a zero-price listing.
type RejectReason string

const (
	// RejectNone means the card was accepted
	RejectNone RejectReason = ""
	// RejectMissingField means the price or area element was absent
	RejectMissingField RejectReason = "missing_field"
	// RejectParseFailure means the price or area text could not be parsed
	RejectParseFailure RejectReason = "parse_failure"
	// RejectZeroValue means price or area parsed to zero
	RejectZeroValue RejectReason = "zero_value"
)
