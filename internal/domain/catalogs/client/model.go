// Package client provides the Client catalog: the people and companies a garage bills.
package client

import (
	"context"
	"regexp"
	"strings"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/entity"
)

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRE = regexp.MustCompile(`^\+?[0-9 .()-]{6,20}$`)
	// SIRET: 14 digits identifying a French business establishment.
	siretRE = regexp.MustCompile(`^\d{14}$`)
)

// Kind defines whether the client is a private person or a business.
type Kind string

const (
	KindIndividual Kind = "individual"
	KindCompany    Kind = "company"
)

// Client is a billable party.
type Client struct {
	entity.Catalog

	Kind Kind `db:"kind" json:"kind"`

	// Name is the person's full name or the trading name.
	Name string `db:"name" json:"name"`

	// CompanyName is the registered name, companies only.
	CompanyName *string `db:"company_name" json:"companyName,omitempty"`
	Siret       *string `db:"siret" json:"siret,omitempty"`
	VATNumber   *string `db:"vat_number" json:"vatNumber,omitempty"`

	Email      *string `db:"email" json:"email,omitempty"`
	Phone      *string `db:"phone" json:"phone,omitempty"`
	Address    *string `db:"address" json:"address,omitempty"`
	PostalCode *string `db:"postal_code" json:"postalCode,omitempty"`
	City       *string `db:"city" json:"city,omitempty"`

	Notes *string `db:"notes" json:"notes,omitempty"`
}

// NewClient creates a new Client with required fields.
func NewClient(name string, kind Kind) *Client {
	return &Client{
		Catalog: entity.NewCatalog(),
		Kind:    kind,
		Name:    strings.TrimSpace(name),
	}
}

// Validate implements entity.Validatable interface.
func (c *Client) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if err := entity.RequireText("name", c.Name); err != nil {
		return err
	}

	switch c.Kind {
	case KindIndividual:
	case KindCompany:
		if c.Siret != nil && *c.Siret != "" && !siretRE.MatchString(strings.ReplaceAll(*c.Siret, " ", "")) {
			return apperror.NewValidation("SIRET must be 14 digits").
				WithDetail("field", "siret")
		}
	default:
		return apperror.NewValidation("invalid client kind").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}
	if c.Phone != nil && *c.Phone != "" && !phoneRE.MatchString(*c.Phone) {
		return apperror.NewValidation("invalid phone number").
			WithDetail("field", "phone")
	}
	return nil
}

// Normalize trims text fields and lower-cases the email.
func (c *Client) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	if c.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*c.Email))
		c.Email = &e
	}
	if c.Siret != nil {
		s := strings.ReplaceAll(*c.Siret, " ", "")
		c.Siret = &s
	}
}

// DisplayName is what documents print for the client.
func (c *Client) DisplayName() string {
	if c.Kind == KindCompany && c.CompanyName != nil && *c.CompanyName != "" {
		return *c.CompanyName
	}
	return c.Name
}

// Patch carries the fields of a partial update. Nil means unchanged.
type Patch struct {
	Name        *string `db:"name"`
	CompanyName *string `db:"company_name"`
	Siret       *string `db:"siret"`
	VATNumber   *string `db:"vat_number"`
	Email       *string `db:"email"`
	Phone       *string `db:"phone"`
	Address     *string `db:"address"`
	PostalCode  *string `db:"postal_code"`
	City        *string `db:"city"`
	Notes       *string `db:"notes"`
}
