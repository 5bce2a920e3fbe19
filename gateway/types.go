package gateway

// Wire types for the role-scoped resource endpoints. Field names mirror the
// backend's JSON exactly; date fields stay as ISO-8601 strings because the
// backend mixes dates, times, and timestamps freely.

// Doctor is a doctor record as served by the admin and patient surfaces.
type Doctor struct {
	ID             int    `json:"id"`
	UserID         int    `json:"user_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
	Qualification  string `json:"qualification"`
	Experience     int    `json:"experience"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// Patient is a patient record.
type Patient struct {
	ID               int    `json:"id"`
	UserID           int    `json:"user_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Age              int    `json:"age"`
	Gender           string `json:"gender"`
	Phone            string `json:"phone"`
	RegistrationDate string `json:"registration_date,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
}

// Appointment is a booking between a patient and a doctor.
type Appointment struct {
	ID              int    `json:"id"`
	PatientID       int    `json:"patient_id"`
	PatientName     string `json:"patient_name,omitempty"`
	DoctorID        int    `json:"doctor_id"`
	DoctorName      string `json:"doctor_name,omitempty"`
	Department      string `json:"department,omitempty"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Reason          string `json:"reason,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// Treatment is a recorded visit with diagnosis and prescription.
type Treatment struct {
	ID           int    `json:"id"`
	PatientID    int    `json:"patient_id"`
	PatientName  string `json:"patient_name,omitempty"`
	DoctorID     int    `json:"doctor_id"`
	DoctorName   string `json:"doctor_name,omitempty"`
	Department   string `json:"department,omitempty"`
	VisitDate    string `json:"visit_date"`
	Symptoms     string `json:"symptoms,omitempty"`
	Diagnosis    string `json:"diagnosis,omitempty"`
	Prescription string `json:"prescription,omitempty"`
	FollowUpDate string `json:"follow_up_date,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Department is a hospital department entry.
type Department struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// ExportTask reports the state of a background history-export job. State
// is the machine-readable task state (PENDING, SUCCESS, FAILURE); Status is
// human-readable progress text.
type ExportTask struct {
	TaskID string `json:"task_id,omitempty"`
	State  string `json:"state,omitempty"`
	Status string `json:"status,omitempty"`
	Result any    `json:"result,omitempty"`
}
