package gateway

import (
	"context"
	"fmt"
	"net/http"
)

// AdminAPI is the admin resource surface: thin pass-throughs to the
// /admin/* endpoints.
type AdminAPI struct {
	c *Client
}

// Admin returns the admin resource surface.
func (c *Client) Admin() *AdminAPI {
	return &AdminAPI{c: c}
}

// NewDoctor is the payload for creating a doctor account.
type NewDoctor struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
	Qualification  string `json:"qualification"`
	Experience     int    `json:"experience"`
}

// Doctors lists all doctors.
func (a *AdminAPI) Doctors(ctx context.Context) ([]Doctor, error) {
	var out []Doctor
	err := a.c.call(ctx, newRequest(http.MethodGet, "/admin/doctors"), &out)
	return out, err
}

// CreateDoctor provisions a new doctor account.
func (a *AdminAPI) CreateDoctor(ctx context.Context, doctor NewDoctor) (*Doctor, error) {
	req := newRequest(http.MethodPost, "/admin/doctors")
	req.Body = doctor

	var out struct {
		Doctor Doctor `json:"doctor"`
	}
	if err := a.c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.Doctor, nil
}

// UpdateDoctor updates a doctor record.
func (a *AdminAPI) UpdateDoctor(ctx context.Context, id int, doctor Doctor) error {
	req := newRequest(http.MethodPut, fmt.Sprintf("/admin/doctors/%d", id))
	req.Body = doctor
	return a.c.call(ctx, req, nil)
}

// DeleteDoctor removes a doctor account.
func (a *AdminAPI) DeleteDoctor(ctx context.Context, id int) error {
	return a.c.call(ctx, newRequest(http.MethodDelete, fmt.Sprintf("/admin/doctors/%d", id)), nil)
}

// Patients lists all patients.
func (a *AdminAPI) Patients(ctx context.Context) ([]Patient, error) {
	var out []Patient
	err := a.c.call(ctx, newRequest(http.MethodGet, "/admin/patients"), &out)
	return out, err
}

// UpdatePatient updates a patient record.
func (a *AdminAPI) UpdatePatient(ctx context.Context, id int, patient Patient) error {
	req := newRequest(http.MethodPut, fmt.Sprintf("/admin/patients/%d", id))
	req.Body = patient
	return a.c.call(ctx, req, nil)
}

// DeletePatient removes a patient account.
func (a *AdminAPI) DeletePatient(ctx context.Context, id int) error {
	return a.c.call(ctx, newRequest(http.MethodDelete, fmt.Sprintf("/admin/patients/%d", id)), nil)
}

// Appointments lists every appointment in the system.
func (a *AdminAPI) Appointments(ctx context.Context) ([]Appointment, error) {
	var out []Appointment
	err := a.c.call(ctx, newRequest(http.MethodGet, "/admin/appointments"), &out)
	return out, err
}
