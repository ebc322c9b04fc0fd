package backofficesdk

import "encoding/json"

// ============================================================================
// Response envelope
// ============================================================================

// envelope is the standard response wrapper used by every backend endpoint.
type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// ============================================================================
// Auth types
// ============================================================================

// User is the authenticated user attached to a session.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
}

// tokenData is the payload of the login and refresh endpoints.
type tokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	User         *User  `json:"user,omitempty"`
}

// Profile is the extended user profile.
type Profile struct {
	User
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	JoinedAt   string `json:"joined_at,omitempty"`
}

// ChangePasswordRequest updates the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ============================================================================
// Vendor types
// ============================================================================

// Vendor is a procurement vendor record.
type Vendor struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Status       string `json:"status"` // e.g. "active", "pending", "blocked"
	CreatedAt    string `json:"created_at,omitempty"`
}

// VendorListParams filter the vendor list.
type VendorListParams struct {
	Status  string
	Search  string
	Page    int
	PerPage int
}

// VendorInput creates or updates a vendor.
type VendorInput struct {
	Name         string `json:"name"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Status       string `json:"status,omitempty"`
}

// ============================================================================
// Fleet types
// ============================================================================

// Vehicle is a fleet vehicle available for reservation.
type Vehicle struct {
	ID          int    `json:"id"`
	PlateNumber string `json:"plate_number"`
	Model       string `json:"model"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status"` // e.g. "available", "reserved", "maintenance"
}

// Reservation books a vehicle for a time window.
type Reservation struct {
	ID        int    `json:"id"`
	VehicleID int    `json:"vehicle_id"`
	UserID    string `json:"user_id"`
	StartAt   string `json:"start_at"`
	EndAt     string `json:"end_at"`
	Purpose   string `json:"purpose,omitempty"`
	Status    string `json:"status"` // e.g. "pending", "approved", "cancelled"
}

// ReservationListParams filter the reservation list.
type ReservationListParams struct {
	VehicleID int
	From      string // inclusive date, YYYY-MM-DD
	To        string // inclusive date, YYYY-MM-DD
	Status    string
	Page      int
}

// ReservationInput creates a reservation.
type ReservationInput struct {
	VehicleID int    `json:"vehicle_id"`
	StartAt   string `json:"start_at"`
	EndAt     string `json:"end_at"`
	Purpose   string `json:"purpose,omitempty"`
}

// ============================================================================
// Attendance types
// ============================================================================

// AttendanceRecord is one employee-day attendance row.
type AttendanceRecord struct {
	ID           int    `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Date         string `json:"date"` // YYYY-MM-DD
	CheckIn      string `json:"check_in,omitempty"`
	CheckOut     string `json:"check_out,omitempty"`
	Status       string `json:"status"` // e.g. "present", "late", "absent", "leave"
}

// AttendanceListParams filter attendance rows.
type AttendanceListParams struct {
	EmployeeID string
	From       string // YYYY-MM-DD
	To         string // YYYY-MM-DD
	Page       int
}

// AttendanceSummary aggregates one day across all employees.
type AttendanceSummary struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Late    int    `json:"late"`
	Absent  int    `json:"absent"`
	OnLeave int    `json:"on_leave"`
}

// ============================================================================
// Permission types
// ============================================================================

// PermissionRequest is a leave/permission request awaiting review.
type PermissionRequest struct {
	ID           int    `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Type         string `json:"type"` // e.g. "leave", "sick", "remote"
	Reason       string `json:"reason,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Status       string `json:"status"` // "pending", "approved", "rejected"
}

// PermissionListParams filter permission requests.
type PermissionListParams struct {
	Status string
	Page   int
}

// ============================================================================
// Telegram types
// ============================================================================

// TelegramStatus reports the notification bot's health.
type TelegramStatus struct {
	BotUsername    string `json:"bot_username"`
	Connected      bool   `json:"connected"`
	LastSeen       string `json:"last_seen,omitempty"`
	PendingUpdates int    `json:"pending_updates"`
}

// ============================================================================
// Agent types
// ============================================================================

// Agent is a monitored field agent/daemon.
type Agent struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Host          string `json:"host,omitempty"`
	Version       string `json:"version,omitempty"`
	Status        string `json:"status"` // e.g. "online", "offline", "degraded"
	LastHeartbeat string `json:"last_heartbeat,omitempty"`
}

// AgentEvent is one pushed status change on the agent stream.
type AgentEvent struct {
	Type    string `json:"type"` // e.g. "status_changed", "heartbeat"
	AgentID string `json:"agent_id,omitempty"`
	Status  string `json:"status,omitempty"`
}

// ============================================================================
// Document expiry types
// ============================================================================

// ExpiringDocument is a tracked document approaching its expiry date.
type ExpiringDocument struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"` // e.g. "stnk", "contract", "certification"
	OwnerName     string `json:"owner_name,omitempty"`
	ExpiresAt     string `json:"expires_at"` // YYYY-MM-DD
	DaysRemaining int    `json:"days_remaining"`
	Acknowledged  bool   `json:"acknowledged"`
}
