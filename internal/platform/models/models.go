package models

type Organization struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Role struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
	CreatedAt      int64  `json:"created_at"`

	Permissions []Permission `json:"permissions"`
}

// User carries the credential-lifecycle fields as paired pointers: a
// verification or reset code and its expiry are both set or both nil.
type User struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	PasswordHash   string `json:"-"`
	RoleID         string `json:"role_id"`
	EmailVerified  bool   `json:"is_email_verified"`

	EmailVerificationCode    *string `json:"-"`
	EmailVerificationExpires *int64  `json:"-"`
	PasswordResetCode        *string `json:"-"`
	PasswordResetExpires     *int64  `json:"-"`

	CreatedAt int64 `json:"created_at"`

	Organization *Organization `json:"organization,omitempty"`
	Role         *Role         `json:"role,omitempty"`
}
