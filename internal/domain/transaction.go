package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Transaction is a single categorized financial record. It is treated as
// immutable: edits replace the record by ID.
type Transaction struct {
	ID          string          `yaml:"id" json:"id"`
	Date        time.Time       `yaml:"date" json:"date"`
	Type        TransactionType `yaml:"type" json:"type"`
	Category    string          `yaml:"category" json:"category"`
	Subcategory string          `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	Description string          `yaml:"description" json:"description"`
	TaxRelated  bool            `yaml:"tax_related" json:"tax_related"`
	Notes       string          `yaml:"notes,omitempty" json:"notes,omitempty"`

	// Receipt bookkeeping, carried for the persistence layer only
	ReceiptAttached bool   `yaml:"receipt_attached,omitempty" json:"receipt_attached,omitempty"`
	ReceiptPath     string `yaml:"receipt_path,omitempty" json:"receipt_path,omitempty"`
}

// NewTransaction creates a tax-related transaction with a fresh ID.
func NewTransaction(date time.Time, typ TransactionType, category string, amount decimal.Decimal, description string) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		Type:        typ,
		Category:    category,
		Amount:      amount,
		Description: description,
		TaxRelated:  true,
	}
}

// IncomeCategory resolves the category of an income transaction.
func (t Transaction) IncomeCategory() (IncomeCategory, error) {
	return ParseIncomeCategory(t.Category)
}

// ExpenseCategory resolves the category of an expense transaction.
func (t Transaction) ExpenseCategory() (ExpenseCategory, error) {
	return ParseExpenseCategory(t.Category)
}

func (t Transaction) IsIncome() bool  { return t.Type == TransactionTypeIncome }
func (t Transaction) IsExpense() bool { return t.Type == TransactionTypeExpense }

// transactionFields has Transaction's fields without its decoding methods.
type transactionFields Transaction

// dateLayouts are tried in order when decoding a date. Values without a zone
// are taken as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseDate reads an RFC 3339 timestamp, a naive ISO timestamp or a plain
// YYYY-MM-DD date. An empty string gives the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or ISO 8601", s)
}

// transactionWire carries the fields whose decoding differs from the struct's.
type transactionWire struct {
	Date       string `yaml:"date" json:"date"`
	TaxRelated *bool  `yaml:"tax_related" json:"tax_related"`
}

func (w transactionWire) apply(t *Transaction) error {
	date, err := ParseDate(w.Date)
	if err != nil {
		return err
	}
	t.Date = date
	t.TaxRelated = w.TaxRelated == nil || *w.TaxRelated
	return nil
}

// UnmarshalYAML decodes a transaction, treating an omitted tax_related as true.
func (t *Transaction) UnmarshalYAML(value *yaml.Node) error {
	var wire transactionWire
	if err := value.Decode(&wire); err != nil {
		return err
	}
	var fields transactionFields
	if err := withoutKey(value, "date").Decode(&fields); err != nil {
		return err
	}
	*t = Transaction(fields)
	return wire.apply(t)
}

// UnmarshalJSON is the JSON counterpart of UnmarshalYAML.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var fields transactionFields
	doc := struct {
		*transactionFields
		Date       string `json:"date"`
		TaxRelated *bool  `json:"tax_related"`
	}{transactionFields: &fields}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*t = Transaction(fields)
	return transactionWire{Date: doc.Date, TaxRelated: doc.TaxRelated}.apply(t)
}

// withoutKey returns a copy of a mapping node with key dropped.
func withoutKey(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return node
	}
	out := *node
	out.Content = make([]*yaml.Node, 0, len(node.Content))
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			continue
		}
		out.Content = append(out.Content, node.Content[i], node.Content[i+1])
	}
	return &out
}
