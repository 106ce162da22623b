package dto

import (
	"garageflow/internal/domain/catalogs/client"
)

// CreateClientRequest is the body of POST /clients.
type CreateClientRequest struct {
	Kind        client.Kind `json:"kind" binding:"required,oneof=individual company"`
	Name        string      `json:"name" binding:"required"`
	CompanyName *string     `json:"companyName"`
	Siret       *string     `json:"siret"`
	VATNumber   *string     `json:"vatNumber"`
	Email       *string     `json:"email"`
	Phone       *string     `json:"phone"`
	Address     *string     `json:"address"`
	PostalCode  *string     `json:"postalCode"`
	City        *string     `json:"city"`
	Notes       *string     `json:"notes"`
}

// ToEntity builds a new client.
func (r CreateClientRequest) ToEntity() *client.Client {
	c := client.NewClient(r.Name, r.Kind)
	c.CompanyName = r.CompanyName
	c.Siret = r.Siret
	c.VATNumber = r.VATNumber
	c.Email = r.Email
	c.Phone = r.Phone
	c.Address = r.Address
	c.PostalCode = r.PostalCode
	c.City = r.City
	c.Notes = r.Notes
	return c
}

// UpdateClientRequest is the body of PATCH /clients/:id.
type UpdateClientRequest struct {
	Name        *string `json:"name"`
	CompanyName *string `json:"companyName"`
	Siret       *string `json:"siret"`
	VATNumber   *string `json:"vatNumber"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	PostalCode  *string `json:"postalCode"`
	City        *string `json:"city"`
	Notes       *string `json:"notes"`
}

// ToPatch converts the request into a domain patch.
func (r UpdateClientRequest) ToPatch() client.Patch {
	return client.Patch{
		Name:        r.Name,
		CompanyName: r.CompanyName,
		Siret:       r.Siret,
		VATNumber:   r.VATNumber,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		PostalCode:  r.PostalCode,
		City:        r.City,
		Notes:       r.Notes,
	}
}

// ClientResponse is a client as returned by the API.
type ClientResponse struct {
	BaseResponse
	Kind         client.Kind `json:"kind"`
	Name         string      `json:"name"`
	DisplayName  string      `json:"displayName"`
	CompanyName  *string     `json:"companyName,omitempty"`
	Siret        *string     `json:"siret,omitempty"`
	VATNumber    *string     `json:"vatNumber,omitempty"`
	Email        *string     `json:"email,omitempty"`
	Phone        *string     `json:"phone,omitempty"`
	Address      *string     `json:"address,omitempty"`
	PostalCode   *string     `json:"postalCode,omitempty"`
	City         *string     `json:"city,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	DeletionMark bool        `json:"deletionMark"`
}

// FromClient maps a client to its response.
func FromClient(c *client.Client) ClientResponse {
	return ClientResponse{
		BaseResponse: FromBaseDocument(c.BaseDocument),
		Kind:         c.Kind,
		Name:         c.Name,
		DisplayName:  c.DisplayName(),
		CompanyName:  c.CompanyName,
		Siret:        c.Siret,
		VATNumber:    c.VATNumber,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		PostalCode:   c.PostalCode,
		City:         c.City,
		Notes:        c.Notes,
		DeletionMark: c.DeletionMark,
	}
}
