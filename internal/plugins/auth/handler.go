package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/middleware"
	"github.com/keyxmakerx/costpilot/internal/session"
	"github.com/keyxmakerx/costpilot/internal/validate"
)

const (
	dashboardPath = "/dashboard"
	planPath      = "/plan-selection"
	loginPath     = "/login"
)

// Handler handles HTTP requests for authentication (login, register, logout).
// Handlers are thin: they bind the form, call the workspace's session
// manager and render the outcome.
type Handler struct{}

// NewHandler creates a new auth handler.
func NewHandler() *Handler {
	return &Handler{}
}

// LoginForm renders the login page (GET /login).
func (h *Handler) LoginForm(c echo.Context) error {
	if w := middleware.GetWorkspace(c); w != nil && w.Session.IsAuthenticated() {
		return c.Redirect(http.StatusSeeOther, dashboardPath)
	}
	return middleware.Render(c, http.StatusOK, LoginPage(LoginRequest{}, nil, ""))
}

// Login processes the login form submission (POST /login). A successful
// sign-in moves the session to a new workspace id.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	req.Email = strings.TrimSpace(req.Email)

	if errs := validateLogin(&req); !errs.OK() {
		return renderLogin(c, req, errs, "")
	}

	w := middleware.GetWorkspace(c)
	if err := w.Session.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		return renderLogin(c, req, nil, apperror.SafeMessage(err))
	}
	w, err := middleware.RotateWorkspace(c)
	if err != nil {
		return err
	}

	w.Notify.Success("Welcome back!", "Successfully logged in")
	return middleware.Redirect(c, dashboardPath)
}

// RegisterForm renders the registration page (GET /register).
func (h *Handler) RegisterForm(c echo.Context) error {
	if w := middleware.GetWorkspace(c); w != nil && w.Session.IsAuthenticated() {
		return c.Redirect(http.StatusSeeOther, dashboardPath)
	}
	return middleware.Render(c, http.StatusOK, RegisterPage(RegisterRequest{}, nil, ""))
}

// Register processes the registration form submission (POST /register).
// A new account lands on plan selection. When the provider still wants the
// email confirmed, the browser is sent to the login page with a notice.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	if errs := validateRegister(&req); !errs.OK() {
		return renderRegister(c, req, errs, "")
	}

	w := middleware.GetWorkspace(c)
	err := w.Session.Register(c.Request().Context(), req.Email, req.Password, req.FullName)
	switch {
	case errors.Is(err, session.ErrConfirmationPending):
		w.Notify.Info("Check your email", session.CheckEmailMessage)
		return middleware.Redirect(c, loginPath)
	case err != nil:
		return renderRegister(c, req, nil, apperror.SafeMessage(err))
	}
	if w, err = middleware.RotateWorkspace(c); err != nil {
		return err
	}

	w.Notify.Success("Welcome!", "Account created successfully. Choose your plan to get started.")
	return middleware.Redirect(c, planPath)
}

// Logout ends the session (POST /logout). Local state is cleared even when
// the provider cannot be reached.
func (h *Handler) Logout(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	if err := w.Session.Logout(c.Request().Context()); err != nil {
		return err
	}
	return middleware.Redirect(c, loginPath)
}

// renderLogin re-renders the form: only the form for HTMX swaps, the full
// page otherwise.
func renderLogin(c echo.Context, req LoginRequest, errs validate.Errors, message string) error {
	req.Password = ""
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, loginForm(req, errs, message))
	}
	return middleware.Render(c, http.StatusOK, LoginPage(req, errs, message))
}

func renderRegister(c echo.Context, req RegisterRequest, errs validate.Errors, message string) error {
	req.Password, req.Confirm = "", ""
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, registerForm(req, errs, message))
	}
	return middleware.Render(c, http.StatusOK, RegisterPage(req, errs, message))
}
