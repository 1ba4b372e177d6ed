package models

// RoleUser is assigned to every self-registered account.
const RoleUser = "User"

// RoleAdmin is only granted to the account seeded from configuration.
const RoleAdmin = "Admin"

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// UserResponse is the public profile returned by the auth endpoints.
type UserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Profile strips the credential fields from u.
func (u User) Profile() UserResponse {
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	return UserResponse{ID: u.ID, Username: u.Username, Role: role}
}
