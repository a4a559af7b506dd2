package review

// Decision values accepted by SubmitReview.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// History filters accepted by ListHistory.
const (
	FilterAll      = "all"
	FilterApproved = "approved"
	FilterRejected = "rejected"
)

const (
	titleApproved   = "Pengajuan SKCK Disetujui"
	titleRejected   = "Pengajuan SKCK Ditolak"
	messageApproved = "Pengajuan SKCK Anda telah disetujui"
	messageRejected = "Pengajuan SKCK Anda ditolak dengan alasan: "
)

type Request struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// Stats backs the admin dashboard counters.
type Stats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalApplications int64 `json:"total_applications"`
	Pending           int64 `json:"pending"`
	Approved          int64 `json:"approved"`
	Rejected          int64 `json:"rejected"`
}
