// Package auth serves the sign-in pages: login, registration and logout.
// Credentials go to the identity provider through the workspace's session
// manager; this package only validates forms and renders outcomes.
package auth

import (
	"github.com/keyxmakerx/costpilot/internal/validate"
)

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// RegisterRequest holds the data submitted by the registration form.
type RegisterRequest struct {
	FullName string `form:"full_name"`
	Email    string `form:"email"`
	Password string `form:"password"`
	Confirm  string `form:"confirm_password"`
	Terms    string `form:"terms"`
}

// minPasswordLength matches the identity provider's policy.
const minPasswordLength = 8

func validateLogin(req *LoginRequest) validate.Errors {
	errs := validate.Errors{}
	if errs.Required("email", req.Email, "Email is required") {
		errs.Email("email", req.Email, "Email format is invalid")
	}
	errs.Required("password", req.Password, "Password is required")
	return errs
}

func validateRegister(req *RegisterRequest) validate.Errors {
	errs := validate.Errors{}
	errs.Required("full_name", req.FullName, "Full name is required")
	if errs.Required("email", req.Email, "Email is required") {
		errs.Email("email", req.Email, "Email format is invalid")
	}
	if errs.Required("password", req.Password, "Password is required") {
		errs.MinLength("password", req.Password, minPasswordLength, "Password must be at least 8 characters")
	}
	if errs.Required("confirm_password", req.Confirm, "Please confirm your password") && req.Confirm != req.Password {
		errs.Add("confirm_password", "Passwords do not match")
	}
	if req.Terms == "" {
		errs.Add("terms", "You must agree to the terms and conditions")
	}
	return errs
}
