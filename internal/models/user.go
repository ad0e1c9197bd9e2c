package models

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RolePublic  Role = "public"
)

type User struct {
	Username string `json:"-"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"oneof=admin student"`
}

func (u *User) Validate() error {
	return validate.Struct(u)
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
