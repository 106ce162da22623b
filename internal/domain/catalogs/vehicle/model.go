// Package vehicle provides the Vehicle catalog. Every vehicle belongs to a client.
package vehicle

import (
	"context"
	"regexp"
	"strings"
	"time"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/entity"
	"garageflow/internal/core/id"
)

var (
	// SIV format (AB-123-CD) and the older FNI format (123 ABC 75).
	sivRE = regexp.MustCompile(`^[A-Z]{2}-\d{3}-[A-Z]{2}$`)
	fniRE = regexp.MustCompile(`^\d{1,4} ?[A-Z]{1,3} ?(\d{2}|2A|2B|97\d)$`)
	vinRE = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
)

// Fuel is the energy of the vehicle.
type Fuel string

const (
	FuelPetrol   Fuel = "petrol"
	FuelDiesel   Fuel = "diesel"
	FuelHybrid   Fuel = "hybrid"
	FuelElectric Fuel = "electric"
	FuelLPG      Fuel = "lpg"
)

// Vehicle is a car or van serviced by the garage.
type Vehicle struct {
	entity.Catalog

	ClientID id.ID `db:"client_id" json:"clientId"`

	// Registration is the licence plate, upper case.
	Registration string `db:"registration" json:"registration"`

	VIN     *string `db:"vin" json:"vin,omitempty"`
	Make    string  `db:"make" json:"make"`
	Model   string  `db:"model" json:"model"`
	Fuel    *Fuel   `db:"fuel" json:"fuel,omitempty"`
	Mileage *int    `db:"mileage" json:"mileage,omitempty"`

	FirstRegistration *time.Time `db:"first_registration" json:"firstRegistration,omitempty"`
}

// NewVehicle creates a new Vehicle owned by clientID.
func NewVehicle(clientID id.ID, registration, brand, model string) *Vehicle {
	v := &Vehicle{
		Catalog:      entity.NewCatalog(),
		ClientID:     clientID,
		Registration: registration,
		Make:         brand,
		Model:        model,
	}
	v.Normalize()
	return v
}

// NormalizeRegistration upper-cases a plate and drops surrounding blanks.
func NormalizeRegistration(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// Normalize canonicalizes plate and VIN.
func (v *Vehicle) Normalize() {
	v.Registration = NormalizeRegistration(v.Registration)
	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	if v.VIN != nil {
		vin := strings.ToUpper(strings.TrimSpace(*v.VIN))
		v.VIN = &vin
	}
}

// Validate implements entity.Validatable interface.
func (v *Vehicle) Validate(ctx context.Context) error {
	if err := v.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(v.ClientID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "clientId")
	}
	if err := entity.RequireText("registration", v.Registration); err != nil {
		return err
	}
	if !sivRE.MatchString(v.Registration) && !fniRE.MatchString(v.Registration) {
		return apperror.NewValidation("unrecognized registration format").
			WithDetail("field", "registration").
			WithDetail("value", v.Registration)
	}
	if v.VIN != nil && *v.VIN != "" && !vinRE.MatchString(*v.VIN) {
		return apperror.NewValidation("VIN must be 17 characters without I, O or Q").
			WithDetail("field", "vin")
	}
	if v.Fuel != nil && !validFuel(*v.Fuel) {
		return apperror.NewValidation("invalid fuel").
			WithDetail("field", "fuel")
	}
	if v.Mileage != nil && *v.Mileage < 0 {
		return apperror.NewValidation("mileage must not be negative").
			WithDetail("field", "mileage")
	}
	return nil
}

// Label is the short description used on documents: "Renault Clio AB-123-CD".
func (v *Vehicle) Label() string {
	return strings.TrimSpace(strings.Join([]string{v.Make, v.Model, v.Registration}, " "))
}

func validFuel(f Fuel) bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelHybrid, FuelElectric, FuelLPG:
		return true
	}
	return false
}

// Patch carries the fields of a partial update. Nil means unchanged.
type Patch struct {
	ClientID *id.ID  `db:"client_id"`
	VIN      *string `db:"vin"`
	Make     *string `db:"make"`
	Model    *string `db:"model"`
	Fuel     *Fuel   `db:"fuel"`
	Mileage  *int    `db:"mileage"`
}
