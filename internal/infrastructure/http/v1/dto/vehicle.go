package dto

import (
	"time"

	"garageflow/internal/core/id"
	"garageflow/internal/domain/catalogs/vehicle"
)

// CreateVehicleRequest is the body of POST /vehicles.
type CreateVehicleRequest struct {
	ClientID          id.ID         `json:"clientId" binding:"required"`
	Registration      string        `json:"registration" binding:"required"`
	Make              string        `json:"make"`
	Model             string        `json:"model"`
	VIN               *string       `json:"vin"`
	Fuel              *vehicle.Fuel `json:"fuel"`
	Mileage           *int          `json:"mileage"`
	FirstRegistration *time.Time    `json:"firstRegistration"`
}

// ToEntity builds a new vehicle.
func (r CreateVehicleRequest) ToEntity() *vehicle.Vehicle {
	v := vehicle.NewVehicle(r.ClientID, r.Registration, r.Make, r.Model)
	v.VIN = r.VIN
	v.Fuel = r.Fuel
	v.Mileage = r.Mileage
	v.FirstRegistration = r.FirstRegistration
	v.Normalize()
	return v
}

// UpdateVehicleRequest is the body of PATCH /vehicles/:id. The plate is
// immutable; a re-registered car is a new record.
type UpdateVehicleRequest struct {
	ClientID *id.ID        `json:"clientId"`
	VIN      *string       `json:"vin"`
	Make     *string       `json:"make"`
	Model    *string       `json:"model"`
	Fuel     *vehicle.Fuel `json:"fuel"`
	Mileage  *int          `json:"mileage"`
}

// ToPatch converts the request into a domain patch.
func (r UpdateVehicleRequest) ToPatch() vehicle.Patch {
	return vehicle.Patch{
		ClientID: r.ClientID,
		VIN:      r.VIN,
		Make:     r.Make,
		Model:    r.Model,
		Fuel:     r.Fuel,
		Mileage:  r.Mileage,
	}
}

// VehicleResponse is a vehicle as returned by the API.
type VehicleResponse struct {
	BaseResponse
	ClientID          string        `json:"clientId"`
	Registration      string        `json:"registration"`
	Label             string        `json:"label"`
	Make              string        `json:"make"`
	Model             string        `json:"model"`
	VIN               *string       `json:"vin,omitempty"`
	Fuel              *vehicle.Fuel `json:"fuel,omitempty"`
	Mileage           *int          `json:"mileage,omitempty"`
	FirstRegistration *time.Time    `json:"firstRegistration,omitempty"`
	DeletionMark      bool          `json:"deletionMark"`
}

// FromVehicle maps a vehicle to its response.
func FromVehicle(v *vehicle.Vehicle) VehicleResponse {
	return VehicleResponse{
		BaseResponse:      FromBaseDocument(v.BaseDocument),
		ClientID:          v.ClientID.String(),
		Registration:      v.Registration,
		Label:             v.Label(),
		Make:              v.Make,
		Model:             v.Model,
		VIN:               v.VIN,
		Fuel:              v.Fuel,
		Mileage:           v.Mileage,
		FirstRegistration: v.FirstRegistration,
		DeletionMark:      v.DeletionMark,
	}
}
