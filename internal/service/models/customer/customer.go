package customer

import "time"

// Customer is the order-intake copy of an identity-service customer.
type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	TaxID      string    `json:"taxId"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	Complement *string   `json:"complement,omitempty"`
	PostalCode string    `json:"postalCode"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}
