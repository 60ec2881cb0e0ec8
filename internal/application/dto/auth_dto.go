package dto

// LoginRequest credenciales de acceso.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse token emitido tras el login.
type LoginResponse struct {
	Token  string `json:"token"`
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
}
