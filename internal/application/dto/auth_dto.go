package dto

// RegisterRequest entrada para registro (auth).
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,min=6,max=320"`
	Password string `json:"password" validate:"required,password"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordRequest solicita un token de reseteo para email.
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SetPasswordRequest fija una nueva contraseña con el token recibido.
type SetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,password"`
}

// TokenResponse access token devuelto en login/refresh (el refresh viaja en cookie).
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ResetPasswordResponse token de reseteo (su entrega por otro canal queda fuera de la API).
type ResetPasswordResponse struct {
	Token string `json:"token"`
}

// TokenPair par emitido por el servicio de credenciales.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
