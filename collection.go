package takkencrawler

import (
	"strings"
	"time"
)

// Record is one registry entry as it is persisted to the results table.
type Record struct {
	Kana        string `json:"kana" bson:"kana"`
	CompanyName string `json:"company_name" bson:"company_name"`
	Address     string `json:"address" bson:"address"`
	PhoneNumber string `json:"phone_number" bson:"phone_number"`
	Capital     string `json:"capital" bson:"capital"`
	// Class is only populated by the listing variant.
	Class string `json:"class,omitempty" bson:"class,omitempty"`
}

// IdentityKey decides whether two records describe the same company.
// Kana, address and capital are deliberately not part of it.
type IdentityKey struct {
	CompanyName string
	PhoneNumber string
}

func NewIdentityKey(companyName, phoneNumber string) IdentityKey {
	return IdentityKey{
		CompanyName: strings.TrimSpace(companyName),
		PhoneNumber: strings.TrimSpace(phoneNumber),
	}
}

func (k IdentityKey) String() string {
	return k.CompanyName + "|" + k.PhoneNumber
}

func (r Record) Key() IdentityKey {
	return NewIdentityKey(r.CompanyName, r.PhoneNumber)
}

// Row lays the record out in the column order of the results table.
func (r Record) Row(variant Variant) []string {
	row := []string{r.Kana, r.CompanyName, r.Address, r.PhoneNumber, r.Capital}
	if variant == VariantListing {
		row = append(row, r.Class)
	}
	return row
}

// MirroredRecord is the shape written to secondary sinks.
type MirroredRecord struct {
	Record    `bson:",inline"`
	Source    string    `json:"source" bson:"source"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
