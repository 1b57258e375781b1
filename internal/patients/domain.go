package patients

import "time"

// Patient represents a clinic patient record.
type Patient struct {
	ID              int64     `json:"id"`
	MedicalRecordNo string    `json:"medical_record_no"`
	Name            string    `json:"name"`
	BirthDate       time.Time `json:"birth_date"`
	Phone           string    `json:"phone"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
