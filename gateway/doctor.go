package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// DoctorAPI is the doctor resource surface: pass-throughs to /doctor/*.
type DoctorAPI struct {
	c *Client
}

// Doctor returns the doctor resource surface.
func (c *Client) Doctor() *DoctorAPI {
	return &DoctorAPI{c: c}
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	Date   string // ISO date, optional
	Status string // optional
}

func (f AppointmentFilter) query() url.Values {
	q := url.Values{}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	return q
}

// Appointments lists the doctor's appointments, optionally filtered.
func (d *DoctorAPI) Appointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error) {
	req := newRequest(http.MethodGet, "/doctor/appointments")
	req.Query = filter.query()

	var out []Appointment
	err := d.c.call(ctx, req, &out)
	return out, err
}

// UpdateAppointmentStatus moves an appointment to a new status
// (confirmed, completed, cancelled).
func (d *DoctorAPI) UpdateAppointmentStatus(ctx context.Context, id int, status string) error {
	req := newRequest(http.MethodPut, fmt.Sprintf("/doctor/appointments/%d/status", id))
	req.Body = map[string]string{"status": status}
	return d.c.call(ctx, req, nil)
}

// AssignedPatients lists patients who have appointments with this doctor.
func (d *DoctorAPI) AssignedPatients(ctx context.Context) ([]Patient, error) {
	var out []Patient
	err := d.c.call(ctx, newRequest(http.MethodGet, "/doctor/patients"), &out)
	return out, err
}

// PatientHistory returns a patient's treatment history.
func (d *DoctorAPI) PatientHistory(ctx context.Context, patientID int) ([]Treatment, error) {
	var out []Treatment
	err := d.c.call(ctx, newRequest(http.MethodGet, fmt.Sprintf("/doctor/patients/%d/history", patientID)), &out)
	return out, err
}

// CreateTreatment records a new treatment entry.
func (d *DoctorAPI) CreateTreatment(ctx context.Context, treatment Treatment) (*Treatment, error) {
	req := newRequest(http.MethodPost, "/doctor/treatments")
	req.Body = treatment

	var out struct {
		Treatment Treatment `json:"treatment"`
	}
	if err := d.c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.Treatment, nil
}

// UpdateTreatment amends an existing treatment entry.
func (d *DoctorAPI) UpdateTreatment(ctx context.Context, id int, treatment Treatment) error {
	req := newRequest(http.MethodPut, fmt.Sprintf("/doctor/treatments/%d", id))
	req.Body = treatment
	return d.c.call(ctx, req, nil)
}

// Profile fetches the doctor's own profile.
func (d *DoctorAPI) Profile(ctx context.Context) (*Doctor, error) {
	var out Doctor
	if err := d.c.call(ctx, newRequest(http.MethodGet, "/doctor/profile"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile updates the doctor's own profile.
func (d *DoctorAPI) UpdateProfile(ctx context.Context, profile Doctor) error {
	req := newRequest(http.MethodPut, "/doctor/profile")
	req.Body = profile
	return d.c.call(ctx, req, nil)
}
