package application

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Payload is the applicant bundle collected by the multi-step form.
type Payload struct {
	// Data diri
	FullName      string `bson:"full_name" json:"full_name"`
	PlaceOfBirth  string `bson:"place_of_birth" json:"place_of_birth"`
	DateOfBirth   string `bson:"date_of_birth" json:"date_of_birth"`
	Gender        string `bson:"gender" json:"gender"`
	NIK           string `bson:"nik" json:"nik"`
	Religion      string `bson:"religion" json:"religion"`
	MaritalStatus string `bson:"marital_status" json:"marital_status"`
	Citizenship   string `bson:"citizenship" json:"citizenship"`
	BloodType     string `bson:"blood_type" json:"blood_type"`

	// Alamat & kontak
	Address    string `bson:"address" json:"address"`
	RT         string `bson:"rt" json:"rt"`
	RW         string `bson:"rw" json:"rw"`
	Village    string `bson:"village" json:"village"`
	District   string `bson:"district" json:"district"`
	City       string `bson:"city" json:"city"`
	Province   string `bson:"province" json:"province"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
	Phone      string `bson:"phone" json:"phone"`
	Email      string `bson:"email,omitempty" json:"email,omitempty"`

	// Pendidikan
	LastEducation  string `bson:"last_education" json:"last_education"`
	SchoolName     string `bson:"school_name" json:"school_name"`
	Major          string `bson:"major,omitempty" json:"major,omitempty"`
	GraduationYear string `bson:"graduation_year" json:"graduation_year"`

	// Pekerjaan
	Occupation      string `bson:"occupation" json:"occupation"`
	InstitutionName string `bson:"institution_name" json:"institution_name"`
	OfficeAddress   string `bson:"office_address" json:"office_address"`
	OfficePhone     string `bson:"office_phone,omitempty" json:"office_phone,omitempty"`

	// Keluarga
	FatherName       string `bson:"father_name" json:"father_name"`
	MotherName       string `bson:"mother_name" json:"mother_name"`
	SpouseName       string `bson:"spouse_name,omitempty" json:"spouse_name,omitempty"`
	NumberOfChildren int    `bson:"number_of_children" json:"number_of_children"`

	// Informasi tambahan
	Purpose             string `bson:"purpose" json:"purpose"`
	HasCriminalRecord   bool   `bson:"has_criminal_record" json:"has_criminal_record"`
	HeightCM            int    `bson:"height_cm" json:"height_cm"`
	WeightKG            int    `bson:"weight_kg" json:"weight_kg"`
	DistinguishingMarks string `bson:"distinguishing_marks,omitempty" json:"distinguishing_marks,omitempty"`
}

// Outbox is the review notification written together with the status
// transition. NotificationID is fixed at write time so delivery is
// idempotent.
type Outbox struct {
	NotificationID primitive.ObjectID `bson:"notification_id" json:"notification_id"`
	Title          string             `bson:"title" json:"title"`
	Message        string             `bson:"message" json:"message"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	Dispatched     bool               `bson:"dispatched" json:"dispatched"`
	DispatchedAt   *time.Time         `bson:"dispatched_at,omitempty" json:"dispatched_at,omitempty"`
}

type Application struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"user_id" json:"user_id"`
	Payload         Payload            `bson:"payload" json:"payload"`
	Status          Status             `bson:"status" json:"status"`
	RejectionReason string             `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
	ReviewedAt      *time.Time         `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewedBy      string             `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	Outbox          *Outbox            `bson:"outbox,omitempty" json:"-"`
}

// Transition is the terminal update applied by Store.Review.
type Transition struct {
	Status          Status
	RejectionReason string
	ReviewedBy      string
	ReviewedAt      time.Time
	Outbox          Outbox
}

type SubmitRequest struct {
	Payload  Payload `json:"payload"`
	Autofill bool    `json:"autofill"`
}
