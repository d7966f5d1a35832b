package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type Student struct {
	ID       string          `json:"id" toml:"id"`
	Name     string          `json:"name" toml:"name"`
	Course   string          `json:"course" toml:"course"`
	Batch    string          `json:"batch" toml:"batch"`
	College  string          `json:"college" toml:"college"`
	Balance  decimal.Decimal `json:"balance" toml:"balance" swaggertype:"string"`
	RollNo   string          `json:"roll_no" toml:"roll_no"`
	ImageURL string          `json:"image_url" toml:"image_url"`
}

// MarshalJSON writes the balance with two decimal places.
func (s Student) MarshalJSON() ([]byte, error) {
	type plain Student
	return json.Marshal(struct {
		plain
		Balance string `json:"balance"`
	}{plain(s), s.Balance.StringFixed(2)})
}

// FirstName returns the first word of the display name.
func (s Student) FirstName() string {
	if f := strings.Fields(s.Name); len(f) > 0 {
		return f[0]
	}
	return s.Name
}

type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

type Category string

const (
	CategoryCanteen Category = "Canteen"
	CategoryLibrary Category = "Library"
	CategoryFees    Category = "Fees"
	CategoryOther   Category = "Other"
)

// Categories is the closed set of transaction categories.
var Categories = []Category{CategoryCanteen, CategoryLibrary, CategoryFees, CategoryOther}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Transaction struct {
	ID           string          `json:"id" toml:"id"`
	Title        string          `json:"title" toml:"title"`
	Amount       decimal.Decimal `json:"amount" toml:"amount" swaggertype:"string"`
	Date         Date            `json:"date" toml:"date" swaggertype:"string"`
	Direction    Direction       `json:"type" toml:"type"`
	Category     Category        `json:"category" toml:"category"`
	BalanceAfter decimal.Decimal `json:"balance_after" toml:"-" swaggertype:"string"`
}

// MarshalJSON writes money fields with two decimal places, matching the
// statement exports.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		Amount       string `json:"amount"`
		BalanceAfter string `json:"balance_after"`
	}{plain(t), t.Amount.StringFixed(2), t.BalanceAfter.StringFixed(2)})
}

// Effect is the signed change the transaction applies to the balance.
func (t Transaction) Effect() decimal.Decimal {
	if t.Direction == Debit {
		return t.Amount.Neg()
	}
	return t.Amount
}

type DocumentStatus string

const (
	StatusVerified DocumentStatus = "Verified"
	StatusPending  DocumentStatus = "Pending"
	StatusRejected DocumentStatus = "Rejected"
)

type Document struct {
	ID        string         `json:"id" toml:"id"`
	Name      string         `json:"name" toml:"name"`
	Type      string         `json:"type" toml:"type"`
	MimeType  string         `json:"mime_type,omitempty" toml:"mime_type"`
	SizeBytes int64          `json:"size_bytes,omitempty" toml:"size_bytes"`
	Date      Date           `json:"date" toml:"date" swaggertype:"string"`
	Status    DocumentStatus `json:"status" toml:"status"`
	Summary   string         `json:"ai_summary,omitempty" toml:"ai_summary"`
}
