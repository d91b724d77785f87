package handler

type registerRequest struct {
	Email    string `json:"email"    validate:"required,campusemail"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Username string `json:"username" validate:"required"`
	FullName string `json:"fullName" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}
