package passwordreset

// RequestMessage is returned whether or not the email is registered.
const RequestMessage = "If the email is registered, password reset instructions have been sent"

type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}
