package domain

import "time"

// Well-known values for the bootstrap administrator account.
const (
	AdminEmail      = "admin@trackerpro.com"
	AdminEmployeeID = "ADMIN001"
	AdminPassword   = "admin123"
	AdminFullName   = "Admin User"
	AdminDepartment = "Administration"
	AdminMobileNo   = "+91-9999999999"
)

// User models a registered principal.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	EmployeeID   string    `json:"empId"`
	Department   string    `json:"department"`
	MobileNo     string    `json:"mobileNo"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal projects the user into the identity carried by a session.
func (u *User) Principal() Principal {
	return Principal{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Name:   u.FullName,
	}
}
