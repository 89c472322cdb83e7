package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// ProductVariant is one row of the feed after projection: a single
// color/size/reference of a product. It is the unit of storage.
type ProductVariant struct {
	ID          int64   `json:"id,omitempty"`
	ProductID   string  `json:"id_produit"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"imageUrl"`
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	Color       string  `json:"color"`
	Size        string  `json:"size"`
	Reference   string  `json:"reference"`
}

// Fingerprint identifies a variant by every stored field except the
// store-assigned ID. Two variants with the same fingerprint are duplicates.
func (p ProductVariant) Fingerprint() string {
	h := sha256.New()
	for _, f := range []string{
		p.ProductID,
		p.Name,
		p.Category,
		strconv.FormatFloat(p.Price, 'f', -1, 64),
		strconv.Itoa(p.Stock),
		p.ImageURL,
		p.Description,
		p.Brand,
		p.Color,
		p.Size,
		p.Reference,
	} {
		h.Write([]byte(strconv.Itoa(len(f))))
		h.Write([]byte{':'})
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type VariantRef struct {
	Color     string `json:"color"`
	Size      string `json:"size"`
	Reference string `json:"reference"`
}

// ProductGroup is the read-time view of every variant sharing a name. The
// display fields come from the first variant seen.
type ProductGroup struct {
	ID          int64        `json:"id"`
	ProductID   string       `json:"id_produit"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Price       float64      `json:"price"`
	Stock       int          `json:"stock"`
	ImageURL    string       `json:"imageUrl"`
	Brand       string       `json:"brand"`
	Description string       `json:"description"`
	Items       []VariantRef `json:"items"`
}
