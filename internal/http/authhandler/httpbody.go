package authhandler

import "videomeet/internal/services/directory"

type LoginBody struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string            `json:"token"`
	User  directory.UserDTO `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
