package certificate

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"SKCKPortal/internal/application"
	"SKCKPortal/internal/config"
)

// Renderer draws the police record certificate for an approved application.
type Renderer struct {
	cfg config.CertificateConfig
}

func NewRenderer(cfg config.CertificateConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

type row struct {
	label, labelEN, value string
}

func nationality(citizenship string) string {
	if citizenship == "WNA" {
		return "Warga Negara Asing"
	}
	return "Indonesia"
}

func residence(p application.Payload) string {
	return fmt.Sprintf("%s, RT %s/RW %s, %s, %s, %s, %s %s",
		p.Address, p.RT, p.RW, p.Village, p.District, p.City, p.Province, p.PostalCode)
}

// Render returns the PDF bytes. issued is the date printed as the issue date.
func (r *Renderer) Render(app application.Application, issued time.Time) ([]byte, error) {
	p := app.Payload
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 15, 20)
	pdf.SetAutoPageBreak(false, 15)
	pdf.SetTitle("Surat Keterangan Catatan Kepolisian", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Times", "B", 11)
	for _, line := range r.cfg.OfficeLines {
		pdf.CellFormat(0, 5, tr(strings.ToUpper(line)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	pdf.SetFont("Times", "BU", 14)
	pdf.CellFormat(0, 7, "SURAT KETERANGAN CATATAN KEPOLISIAN", "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "U", 12)
	pdf.CellFormat(0, 6, "POLICE RECORD", "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "", 11)
	pdf.CellFormat(0, 6, "Nomor : "+DocumentNumber(app.ID, issued), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.CellFormat(0, 6, "Di terangkan bersama ini bahwa :", "", 1, "L", false, 0, "")
	pdf.SetFont("Times", "I", 10)
	pdf.CellFormat(0, 5, "This is to certify that :", "", 1, "L", false, 0, "")
	pdf.Ln(3)

	rows := []row{
		{"Nama", "Name", p.FullName},
		{"Jenis Kelamin", "Gender", p.Gender},
		{"Kebangsaan", "Nationality", nationality(p.Citizenship)},
		{"Agama", "Religion", p.Religion},
		{"Tempat/Tanggal Lahir", "Place/Date of Birth", p.PlaceOfBirth + ", " + FormatISODate(p.DateOfBirth)},
		{"Tempat Tinggal", "Address", residence(p)},
		{"Pekerjaan", "Occupation", p.Occupation},
		{"Nomor KTP", "National ID Number", p.NIK},
	}
	for _, rw := range rows {
		y := pdf.GetY()
		pdf.SetFont("Times", "", 11)
		pdf.CellFormat(55, 5, rw.label, "", 2, "L", false, 0, "")
		pdf.SetFont("Times", "I", 9)
		pdf.CellFormat(55, 4, rw.labelEN, "", 0, "L", false, 0, "")
		pdf.SetXY(75, y)
		pdf.SetFont("Times", "", 11)
		pdf.CellFormat(5, 5, ":", "", 0, "L", false, 0, "")
		pdf.MultiCell(110, 5, tr(rw.value), "", "L", false)
		if next := y + 11; pdf.GetY() < next {
			pdf.SetY(next)
		}
	}
	pdf.Ln(4)

	pdf.SetFont("Times", "", 11)
	pdf.MultiCell(0, 5, "Bahwa nama tersebut diatas tidak memiliki catatan atau keterlibatan dalam kegiatan kriminal apapun", "", "L", false)
	pdf.SetFont("Times", "I", 10)
	pdf.MultiCell(0, 5, "(the bearer hereof proves not to be involved in any criminal cases)", "", "L", false)
	pdf.Ln(8)

	top := pdf.GetY()
	pdf.Rect(25, top, 30, 40, "D")
	pdf.SetXY(25, top+17)
	pdf.SetFont("Times", "", 10)
	pdf.CellFormat(30, 6, "4X6", "", 0, "C", false, 0, "")

	pdf.SetXY(110, top)
	pdf.SetFont("Times", "", 11)
	pdf.CellFormat(80, 5, tr("Dikeluarkan di : "+r.cfg.IssuedAt), "", 2, "L", false, 0, "")
	pdf.CellFormat(80, 5, tr("Pada tanggal : "+FormatDate(issued)), "", 2, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetX(110)
	for _, line := range r.cfg.SignatoryRole {
		pdf.CellFormat(80, 5, tr(line), "", 2, "L", false, 0, "")
	}
	pdf.Ln(18)
	pdf.SetX(110)
	pdf.SetFont("Times", "BU", 11)
	pdf.CellFormat(80, 5, tr(r.cfg.SignatoryName), "", 2, "L", false, 0, "")
	pdf.SetFont("Times", "", 11)
	pdf.CellFormat(80, 5, tr(r.cfg.SignatoryRank), "", 2, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
