package api

import "caredesk.io/patientms/internal/patient"

// Request Types
type CreatePatientRequest struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	City   string  `json:"city"`
	Age    int     `json:"age"`
	Gender string  `json:"gender"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// Record returns the stored form of the payload, without the id.
func (req CreatePatientRequest) Record() patient.Record {
	return patient.Record{
		Name:   req.Name,
		City:   req.City,
		Age:    req.Age,
		Gender: req.Gender,
		Height: req.Height,
		Weight: req.Weight,
	}
}

// Response Types
type PatientResponse struct {
	Message string       `json:"message"`
	Patient patient.View `json:"patient"`
}

// ErrorResponse is the JSON error body. The demo client keys off the
// detail field on every 4xx.
type ErrorResponse struct {
	Detail string               `json:"detail"`
	Fields []patient.FieldError `json:"fields,omitempty"`
}

// Fixed messages
const (
	HealthMessage = "Patient Management System"
	AboutMessage  = "A simple, file-backed Patient Management System"
)
