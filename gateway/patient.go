package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PatientAPI is the patient resource surface: pass-throughs to /patient/*
// and the history-export task endpoints.
type PatientAPI struct {
	c *Client
}

// Patient returns the patient resource surface.
func (c *Client) Patient() *PatientAPI {
	return &PatientAPI{c: c}
}

// DoctorFilter narrows doctor listings for booking.
type DoctorFilter struct {
	Department string // specialization name, optional
	Search     string // free-text name search, optional
}

func (f DoctorFilter) query() url.Values {
	q := url.Values{}
	if f.Department != "" {
		q.Set("department", f.Department)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// Doctors lists bookable doctors, optionally filtered.
func (p *PatientAPI) Doctors(ctx context.Context, filter DoctorFilter) ([]Doctor, error) {
	req := newRequest(http.MethodGet, "/patient/doctors")
	req.Query = filter.query()

	var out []Doctor
	err := p.c.call(ctx, req, &out)
	return out, err
}

// Departments lists hospital departments.
func (p *PatientAPI) Departments(ctx context.Context) ([]Department, error) {
	var out []Department
	err := p.c.call(ctx, newRequest(http.MethodGet, "/patient/departments"), &out)
	return out, err
}

// NewAppointment is the booking payload.
type NewAppointment struct {
	DoctorID        int    `json:"doctor_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Reason          string `json:"reason,omitempty"`
}

// Appointments lists the patient's appointments, optionally filtered.
func (p *PatientAPI) Appointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error) {
	req := newRequest(http.MethodGet, "/patient/appointments")
	req.Query = filter.query()

	var out []Appointment
	err := p.c.call(ctx, req, &out)
	return out, err
}

// BookAppointment books a new appointment.
func (p *PatientAPI) BookAppointment(ctx context.Context, booking NewAppointment) (*Appointment, error) {
	req := newRequest(http.MethodPost, "/patient/appointments")
	req.Body = booking

	var out struct {
		Appointment Appointment `json:"appointment"`
	}
	if err := p.c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.Appointment, nil
}

// RescheduleAppointment moves an appointment to a new date/time.
func (p *PatientAPI) RescheduleAppointment(ctx context.Context, id int, booking NewAppointment) error {
	req := newRequest(http.MethodPut, fmt.Sprintf("/patient/appointments/%d", id))
	req.Body = booking
	return p.c.call(ctx, req, nil)
}

// CancelAppointment cancels an appointment.
func (p *PatientAPI) CancelAppointment(ctx context.Context, id int) error {
	return p.c.call(ctx, newRequest(http.MethodDelete, fmt.Sprintf("/patient/appointments/%d", id)), nil)
}

// MedicalHistory returns the patient's own treatment history.
func (p *PatientAPI) MedicalHistory(ctx context.Context) ([]Treatment, error) {
	var out []Treatment
	err := p.c.call(ctx, newRequest(http.MethodGet, "/patient/history"), &out)
	return out, err
}

// Profile fetches the patient's own profile.
func (p *PatientAPI) Profile(ctx context.Context) (*Patient, error) {
	var out Patient
	if err := p.c.call(ctx, newRequest(http.MethodGet, "/patient/profile"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile updates the patient's own profile.
func (p *PatientAPI) UpdateProfile(ctx context.Context, profile Patient) error {
	req := newRequest(http.MethodPut, "/patient/profile")
	req.Body = profile
	return p.c.call(ctx, req, nil)
}

// StartHistoryExport kicks off a background export of the patient's
// medical history and returns the task handle.
func (p *PatientAPI) StartHistoryExport(ctx context.Context) (*ExportTask, error) {
	var out ExportTask
	if err := p.c.call(ctx, newRequest(http.MethodPost, "/tasks/export-history"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HistoryExportStatus polls a previously started export task.
func (p *PatientAPI) HistoryExportStatus(ctx context.Context, taskID string) (*ExportTask, error) {
	var out ExportTask
	if err := p.c.call(ctx, newRequest(http.MethodGet, "/tasks/export-history/"+taskID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
