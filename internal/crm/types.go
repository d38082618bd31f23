// Package crm provides a client for the field-service CRM the booking agent
// books jobs into: customer search/create, technician availability, and job
// creation.
package crm

import (
	"context"
	"fmt"
	"time"
)

// Customer is a CRM customer record with its primary service location.
type Customer struct {
	ID         string `json:"id"`
	LocationID string `json:"locationId,omitempty"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
}

// NewCustomer describes a customer to create, with a free-form service address.
type NewCustomer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
}

// Slot is an appointment arrival window offered to the customer. Slots are
// numbered 1..N when presented; the customer's reply is matched against that
// 1-based ordinal, not the underlying slot identity.
type Slot struct {
	Date      string    `json:"date"` // YYYY-MM-DD
	DayOfWeek string    `json:"dayOfWeek"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Display   string    `json:"display"`
}

// FormatDisplay renders the customer-facing slot text, e.g.
// "Tue Mar 3, 8:00 AM - 10:00 AM".
func (s Slot) FormatDisplay() string {
	if s.Display != "" {
		return s.Display
	}
	return fmt.Sprintf("%s %s, %s - %s",
		s.Start.Format("Mon"), s.Start.Format("Jan 2"),
		s.Start.Format("3:04 PM"), s.End.Format("3:04 PM"))
}

// AvailabilityRequest asks the CRM for open arrival windows.
type AvailabilityRequest struct {
	BusinessUnitID string
	MaxSlots       int
	DaysAhead      int
}

// NewJob describes a job to book against a resolved customer and location.
type NewJob struct {
	CustomerID     string `json:"customerId"`
	LocationID     string `json:"locationId"`
	JobTypeID      string `json:"jobTypeId"`
	BusinessUnitID string `json:"businessUnitId"`
	Summary        string `json:"summary"`
	Slot           Slot   `json:"slot"`
}

// Job is the booked job with its appointment reference.
type Job struct {
	ID            string `json:"id"`
	AppointmentID string `json:"appointmentId"`
}

// Client is the narrow contract the booking core consumes. Implementations
// own their own timeout/retry policy and must return a definite
// success/failure; the orchestrator never retries inline.
type Client interface {
	SearchCustomersByPhone(ctx context.Context, tenantID, phone string) ([]Customer, error)
	SearchCustomersByAddress(ctx context.Context, tenantID, address string) ([]Customer, error)
	SearchCustomersByName(ctx context.Context, tenantID, name string) ([]Customer, error)
	CreateCustomer(ctx context.Context, tenantID string, req NewCustomer) (*Customer, error)
	GetAvailability(ctx context.Context, tenantID string, req AvailabilityRequest) ([]Slot, error)
	CreateJob(ctx context.Context, tenantID string, req NewJob) (*Job, error)
}
