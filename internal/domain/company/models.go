package company

import "time"

// Client is the bill-to party of an invoice.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	GSTIN     string    `json:"gstin,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EndUser is the ship-to party, always scoped to a client company.
type EndUser struct {
	ID              string    `json:"id"`
	ClientCompanyID string    `json:"clientCompanyId"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Settings describe the issuing company. BankDetails is stored encrypted.
type Settings struct {
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	GSTIN       string    `json:"gstin,omitempty"`
	PAN         string    `json:"pan,omitempty"`
	BankDetails string    `json:"bankDetails,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
