package identity

// Record is the civil-registry data that can pre-fill an application. Only
// these fields are ever copied into a submission.
type Record struct {
	NIK           string `bson:"_id" json:"nik"`
	FullName      string `bson:"full_name" json:"full_name"`
	PlaceOfBirth  string `bson:"place_of_birth" json:"place_of_birth"`
	DateOfBirth   string `bson:"date_of_birth" json:"date_of_birth"`
	Gender        string `bson:"gender" json:"gender"`
	Religion      string `bson:"religion" json:"religion"`
	MaritalStatus string `bson:"marital_status" json:"marital_status"`
	Citizenship   string `bson:"citizenship" json:"citizenship"`
	BloodType     string `bson:"blood_type" json:"blood_type"`
}
