// pkg/models/requests.go
package models

type RegisterTalentRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FullName        string `json:"fullName" validate:"required,max=120"`
	Profession      string `json:"profession" validate:"required,max=80"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type RegisterEmployerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	CompanyName     string `json:"companyName" validate:"required,max=160"`
	Industry        string `json:"industry" validate:"required,max=80"`
	EmployeeCount   string `json:"employeeCount,omitempty" validate:"omitempty,max=32"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Redirect string `json:"redirect,omitempty"`
}

type DeviceTokenRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

// AuthResponse is returned from register and login.
type AuthResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expiresIn"`
	Redirect  string   `json:"redirect"`
	Profile   *Profile `json:"profile"`
}
