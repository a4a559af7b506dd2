package application

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"SKCKPortal/pkg/apperror"
)

//go:embed schema/application.json
var payloadSchema []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// fieldMessages are the messages shown next to each form field.
var fieldMessages = map[string]string{
	"full_name":           "Nama harus minimal 3 karakter",
	"place_of_birth":      "Tempat lahir harus diisi",
	"date_of_birth":       "Tanggal lahir harus diisi (YYYY-MM-DD)",
	"gender":              "Jenis kelamin harus dipilih",
	"nik":                 "NIK harus 16 digit",
	"religion":            "Agama harus dipilih",
	"marital_status":      "Status perkawinan harus dipilih",
	"citizenship":         "Kewarganegaraan harus WNI atau WNA",
	"blood_type":          "Golongan darah tidak valid",
	"address":             "Alamat harus lengkap",
	"rt":                  "RT harus diisi",
	"rw":                  "RW harus diisi",
	"village":             "Kelurahan harus diisi",
	"district":            "Kecamatan harus diisi",
	"city":                "Kota/Kabupaten harus diisi",
	"province":            "Provinsi harus dipilih",
	"postal_code":         "Kode pos harus 5 digit",
	"phone":               "Nomor telepon tidak valid",
	"email":               "Email tidak valid",
	"last_education":      "Pendidikan terakhir harus dipilih",
	"school_name":         "Nama sekolah/universitas harus diisi",
	"graduation_year":     "Tahun lulus harus diisi",
	"occupation":          "Pekerjaan harus diisi",
	"institution_name":    "Nama instansi harus diisi",
	"office_address":      "Alamat kantor harus diisi",
	"father_name":         "Nama ayah harus diisi",
	"mother_name":         "Nama ibu harus diisi",
	"number_of_children":  "Jumlah anak tidak valid",
	"purpose":             "Keperluan SKCK harus diisi",
	"has_criminal_record": "Riwayat kasus harus diisi",
	"height_cm":           "Tinggi badan harus diisi",
	"weight_kg":           "Berat badan harus diisi",
}

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(payloadSchema))
	})
	return schema, schemaErr
}

// Validate checks the payload against the form schema. Violations come back
// as a validation error with one message per offending field.
func Validate(p Payload) error {
	s, err := loadSchema()
	if err != nil {
		return apperror.Internal(fmt.Errorf("load payload schema: %w", err))
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(p))
	if err != nil {
		return apperror.Internal(fmt.Errorf("validate payload: %w", err))
	}
	if result.Valid() {
		return nil
	}

	details := make(map[string]string, len(result.Errors()))
	for _, re := range result.Errors() {
		field := re.Field()
		if re.Type() == "required" {
			if prop, ok := re.Details()["property"].(string); ok {
				field = prop
			}
		}
		if _, seen := details[field]; seen {
			continue
		}
		if msg, ok := fieldMessages[field]; ok {
			details[field] = msg
		} else {
			details[field] = re.Description()
		}
	}
	return apperror.Validation("Data pengajuan tidak valid", details)
}
