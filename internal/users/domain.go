package users

import (
	"github.com/challan-admin/challan-admin/internal/listview"
)

// EntityName labels the users list in storage, metrics and audit logs.
const EntityName = "users"

// Sort keys accepted by the users list.
const (
	SortByUserName = "userName"
	SortByID       = "id"
)

// User is an account of the remote API.
type User struct {
	ID          string `json:"_id"`
	UserName    string `json:"userName"`
	PhoneNumber string `json:"phoneNumber"`
	AccountType string `json:"accountType"`
	Active      bool   `json:"active"`
	ImageURL    string `json:"imageUrl"`
}

// Entity describes users to the list controller. A failed fetch clears the
// list and shows the no-data notice.
func Entity() listview.Entity[User] {
	return listview.Entity[User]{
		Name:        EntityName,
		SortKeys:    []string{SortByUserName, SortByID},
		DefaultSort: SortByUserName,
		ID:          func(u User) string { return u.ID },
		Match: func(u User, in listview.Inputs) bool {
			if !listview.MatchStatus(in.Status, u.Active) {
				return false
			}
			return listview.ContainsFold(u.UserName, in.Search) || listview.ContainsFold(u.PhoneNumber, in.Search)
		},
		Less: func(a, b User, key string) bool {
			if key == SortByID {
				return a.ID < b.ID
			}
			return listview.LessFold(a.UserName, b.UserName)
		},
		Toggle: func(u *User) error {
			u.Active = !u.Active
			return nil
		},
		ClearOnFailure: true,
	}
}

type listRequest struct {
	Search    string             `json:"search"`
	Active    *bool              `json:"active,omitempty"`
	SortBy    string             `json:"sortBy"`
	SortOrder listview.SortOrder `json:"sortOrder"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}

// RequestBody is the wire body of a users list query. The "all" status
// sends no active field.
func RequestBody(q listview.Query) any {
	return listRequest{
		Search:    q.Search,
		Active:    listview.StatusFlag(q.Status),
		SortBy:    q.SortKey,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		Limit:     q.Limit,
	}
}
