package models

// ProductSnapshot is the denormalised copy of a catalogue product stored in
// a cart line. Price is in base currency units.
type ProductSnapshot struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     int64    `json:"price"`
	Images    []string `json:"images,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Condition string   `json:"condition,omitempty"`
	Category  string   `json:"category,omitempty"`
}
