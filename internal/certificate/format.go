package certificate

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var romanMonths = [...]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII"}

// FormatDate renders t as an Indonesian long date, e.g. "5 Mei 2025".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// FormatISODate converts a YYYY-MM-DD date; unparseable input is returned
// unchanged.
func FormatISODate(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return FormatDate(t)
}

// DocumentNumber builds the register number printed on the certificate,
// SKCK/YANMAS/<seq>/<roman month>/<year>/INTELKAM. The sequence comes from
// the application id counter so the number is stable across renders.
func DocumentNumber(id primitive.ObjectID, issued time.Time) string {
	seq := (int(id[9])<<16 | int(id[10])<<8 | int(id[11])) % 100000
	return fmt.Sprintf("SKCK/YANMAS/%05d/%s/%d/INTELKAM", seq, romanMonths[issued.Month()-1], issued.Year())
}
