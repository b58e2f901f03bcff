package model

// DashboardStats holds the counters shown on the admin dashboard.
type DashboardStats struct {
	TotalUsers    int `json:"total_users"`
	ActiveUsers   int `json:"active_users"`
	TotalContent  int `json:"total_content"`
	UserGrowth    int `json:"user_growth"`
	ContentGrowth int `json:"content_growth"`
}

// RecentUser is one row of GET /admin/users.
type RecentUser struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Joined string `json:"joined"`
	Status string `json:"status"`
}

// RecentContent is one row of GET /admin/content.
type RecentContent struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Created string `json:"created"`
	Status  string `json:"status"`
}
