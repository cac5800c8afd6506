package records

import (
	"errors"
	"time"

	"github.com/challan-admin/challan-admin/internal/listview"
)

// EntityName labels the records list in storage, metrics and audit logs.
const EntityName = "records"

// Sort keys accepted by the records list.
const (
	SortByCreatedAt  = "createdAt"
	SortByRecordName = "recordName"
	SortByAmount     = "amount"
)

// ErrAlreadyPaid is returned when marking a paid record as paid.
var ErrAlreadyPaid = errors.New("records: record is already paid")

// Record is a challan issued against a user. IsDelete is a soft-delete
// marker; deleted records stay addressable and are only filtered.
type Record struct {
	ID          string    `json:"recordID"`
	UserID      string    `json:"userID"`
	RecordName  string    `json:"recordName"`
	Amount      float64   `json:"amount"`
	Remarks     string    `json:"remarks,omitempty"`
	ImageURL    string    `json:"imageUrl"`
	BusNumber   string    `json:"busNumber"`
	IsPaid      bool      `json:"isPaid"`
	IsDelete    bool      `json:"isDelete"`
	ChallanType string    `json:"challanType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Entity describes records to the list controller. A failed fetch keeps the
// previous page, and a current page echoed by the server is adopted.
func Entity() listview.Entity[Record] {
	return listview.Entity[Record]{
		Name:        EntityName,
		SortKeys:    []string{SortByCreatedAt, SortByRecordName, SortByAmount},
		DefaultSort: SortByCreatedAt,
		HasPayment:  true,
		ID:          func(r Record) string { return r.ID },
		Match: func(r Record, in listview.Inputs) bool {
			if !listview.MatchStatus(in.Status, !r.IsDelete) {
				return false
			}
			if !listview.MatchPayment(in.Payment, r.IsPaid) {
				return false
			}
			return listview.ContainsFold(r.RecordName, in.Search) || listview.ContainsFold(r.BusNumber, in.Search)
		},
		Less: func(a, b Record, key string) bool {
			switch key {
			case SortByRecordName:
				return listview.LessFold(a.RecordName, b.RecordName)
			case SortByAmount:
				return a.Amount < b.Amount
			default:
				return a.CreatedAt.Before(b.CreatedAt)
			}
		},
		Toggle:           markPaid,
		AcceptServerPage: true,
	}
}

func markPaid(r *Record) error {
	if r.IsPaid {
		return ErrAlreadyPaid
	}
	r.IsPaid = true
	return nil
}

type listRequest struct {
	Search    string             `json:"search"`
	IsPaid    *bool              `json:"isPaid,omitempty"`
	IsDelete  *bool              `json:"isDelete,omitempty"`
	SortBy    string             `json:"sortBy"`
	SortOrder listview.SortOrder `json:"sortOrder"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}

// RequestBody is the wire body of a records list query. The status filter
// maps onto the soft-delete flag: "active" asks for isDelete=false.
func RequestBody(q listview.Query) any {
	var isDelete *bool
	if active := listview.StatusFlag(q.Status); active != nil {
		deleted := !*active
		isDelete = &deleted
	}
	return listRequest{
		Search:    q.Search,
		IsPaid:    listview.PaymentFlag(q.Payment),
		IsDelete:  isDelete,
		SortBy:    q.SortKey,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		Limit:     q.Limit,
	}
}
