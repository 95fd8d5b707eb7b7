// internal/models/address.go
package models

// Address rows are deduplicated on all five columns. Optional columns hold
// empty strings rather than NULL so the unique index treats absent values as
// equal.
type Address struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	AddressLine1 string `json:"addressLine1" gorm:"size:255;not null;uniqueIndex:idx_addresses_identity"`
	AddressLine2 string `json:"addressLine2" gorm:"size:255;not null;default:'';uniqueIndex:idx_addresses_identity"`
	City         string `json:"city" gorm:"size:100;not null;uniqueIndex:idx_addresses_identity"`
	County       string `json:"county" gorm:"size:100;not null;default:'';uniqueIndex:idx_addresses_identity"`
	Postcode     string `json:"postcode" gorm:"size:20;not null;uniqueIndex:idx_addresses_identity"`
}

// AddressInput is the accepted subset of a submitted address object.
type AddressInput struct {
	AddressLine1 string
	AddressLine2 string
	City         string
	County       string
	Postcode     string
}

func (in AddressInput) Model() Address {
	return Address{
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		County:       in.County,
		Postcode:     in.Postcode,
	}
}

// Identity returns the column map used for exact field-for-field lookups.
func (in AddressInput) Identity() map[string]interface{} {
	return map[string]interface{}{
		"address_line1": in.AddressLine1,
		"address_line2": in.AddressLine2,
		"city":          in.City,
		"county":        in.County,
		"postcode":      in.Postcode,
	}
}
