package model

import "time"

// Case is a clinical scenario with role-specific briefing sections.
// DoctorNotes is shown during reading, PatientNotes scripts the patient,
// MarkingNotes guides feedback scoring.
type Case struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CategoryID   uint       `gorm:"not null;index" json:"category_id"`
	Title        string     `gorm:"size:256;not null" json:"title"`
	DoctorNotes  string     `gorm:"type:text;not null" json:"doctor_notes"`
	PatientNotes string     `gorm:"type:text;not null" json:"patient_notes"`
	MarkingNotes string     `gorm:"type:text" json:"marking_notes"`
	RecallDate   *time.Time `gorm:"index" json:"recall_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
