package applicationtest

import "SKCKPortal/internal/application"

// ValidPayload returns a payload that passes schema validation.
func ValidPayload() application.Payload {
	return application.Payload{
		FullName:         "Budi Santoso",
		PlaceOfBirth:     "Pontianak",
		DateOfBirth:      "1995-04-12",
		Gender:           "Laki-Laki",
		NIK:              "6171012345678901",
		Religion:         "Islam",
		MaritalStatus:    "Belum Kawin",
		Citizenship:      "WNI",
		BloodType:        "O",
		Address:          "Jl. Ahmad Yani No. 12",
		RT:               "003",
		RW:               "007",
		Village:          "Bansir Laut",
		District:         "Pontianak Tenggara",
		City:             "Kota Pontianak",
		Province:         "Kalimantan Barat",
		PostalCode:       "78124",
		Phone:            "081234567890",
		LastEducation:    "S1",
		SchoolName:       "Universitas Tanjungpura",
		GraduationYear:   "2018",
		Occupation:       "Karyawan Swasta",
		InstitutionName:  "PT Maju Jaya",
		OfficeAddress:    "Jl. Gajah Mada No. 45",
		FatherName:       "Slamet",
		MotherName:       "Siti Aminah",
		NumberOfChildren: 0,
		Purpose:          "Melamar pekerjaan",
		HeightCM:         170,
		WeightKG:         65,
	}
}
