package dto

import (
	"time"

	"garageflow/internal/core/id"
	"garageflow/internal/domain/repairorder"
)

// CreateRepairOrderRequest is the body of POST /repair-orders.
type CreateRepairOrderRequest struct {
	ClientID  id.ID  `json:"clientId" binding:"required"`
	VehicleID id.ID  `json:"vehicleId" binding:"required"`
	Complaint string `json:"complaint" binding:"required"`
	Mileage   *int   `json:"mileage"`
}

// ToInput converts the request.
func (r CreateRepairOrderRequest) ToInput() repairorder.CreateInput {
	return repairorder.CreateInput{
		ClientID:  r.ClientID,
		VehicleID: r.VehicleID,
		Complaint: r.Complaint,
		Mileage:   r.Mileage,
	}
}

// RepairOrderResponse is a repair order as returned by the API.
type RepairOrderResponse struct {
	BaseResponse
	ClientID    string             `json:"clientId"`
	VehicleID   string             `json:"vehicleId"`
	Status      repairorder.Status `json:"status"`
	Complaint   string             `json:"complaint"`
	Mileage     *int               `json:"mileage,omitempty"`
	PhotoURLs   []string           `json:"photoUrls"`
	StartedAt   *time.Time         `json:"startedAt,omitempty"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
	DeliveredAt *time.Time         `json:"deliveredAt,omitempty"`
}

// FromRepairOrder maps a repair order.
func FromRepairOrder(o *repairorder.RepairOrder) RepairOrderResponse {
	photos := o.PhotoURLs
	if photos == nil {
		photos = []string{}
	}
	return RepairOrderResponse{
		BaseResponse: FromBaseDocument(o.BaseDocument),
		ClientID:     o.ClientID.String(),
		VehicleID:    o.VehicleID.String(),
		Status:       o.Status,
		Complaint:    o.Complaint,
		Mileage:      o.Mileage,
		PhotoURLs:    photos,
		StartedAt:    o.StartedAt,
		CompletedAt:  o.CompletedAt,
		DeliveredAt:  o.DeliveredAt,
	}
}
