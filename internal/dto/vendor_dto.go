package dto

import "time"

type CreateVendorRequest struct {
	Name          string  `json:"name"           validate:"required,min=1,max=200"`
	ContactPerson *string `json:"contact_person"`
	Email         *string `json:"email"          validate:"omitempty,email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
}

type UpdateVendorRequest struct {
	Name          *string `json:"name"           validate:"omitempty,min=1,max=200"`
	ContactPerson *string `json:"contact_person"`
	Email         *string `json:"email"          validate:"omitempty,email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	IsActive      *bool   `json:"is_active"`
}

type VendorResponse struct {
	ID            uint                  `json:"id"`
	Name          string                `json:"name"`
	ContactPerson *string               `json:"contact_person"`
	Email         *string               `json:"email"`
	Phone         *string               `json:"phone"`
	Address       *string               `json:"address"`
	IsActive      bool                  `json:"is_active"`
	Prices        []VendorPriceResponse `json:"prices,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// VendorDeleteResponse tells the caller whether the vendor row was removed or
// only deactivated because purchase orders still reference it.
type VendorDeleteResponse struct {
	ID          uint `json:"id"`
	Deactivated bool `json:"deactivated"`
}
