package model

type AdminStats struct {
	TotalUsers          int `json:"total_users"`
	StaffUsers          int `json:"staff_users"`
	TotalWatchlistItems int `json:"total_watchlist_items"`
}

type RoleUpdate struct {
	IsStaff  *bool `json:"is_staff,omitempty"`
	IsActive *bool `json:"is_active,omitempty"`
}

type UserList struct {
	Users []User `json:"users"`
}
