package auth

import (
	"context"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
	"github.com/keyxmakerx/costpilot/internal/validate"
)

// LoginPage is the full login page.
func LoginPage(req LoginRequest, errs validate.Errors, message string) templ.Component {
	return layouts.Base("Sign in", authCard("Welcome back", "Sign in to your account", loginForm(req, errs, message)))
}

// RegisterPage is the full registration page.
func RegisterPage(req RegisterRequest, errs validate.Errors, message string) templ.Component {
	return layouts.Base("Create account", authCard("Create your account", "Start optimizing your AI costs today", registerForm(req, errs, message)))
}

func authCard(title, subtitle string, form templ.Component) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="auth-card">`)
		h.Render(ctx, layouts.PageHeader(title, subtitle))
		h.Render(ctx, form)
		h.Raw("</section>")
	})
}

func loginForm(req LoginRequest, errs validate.Errors, message string) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<form method="post" action="/login" hx-post="/login" hx-target="this" hx-swap="outerHTML" novalidate>`)
		h.Render(ctx, layouts.CSRFField())
		h.Render(ctx, layouts.Alert("error", message))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Email", Name: "email", Type: "email", Value: req.Email,
			Error: errs.Get("email"), Autocomplete: "email",
		}))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Password", Name: "password", Type: "password",
			Error: errs.Get("password"), Autocomplete: "current-password",
		}))
		h.Raw(`<button type="submit" class="btn btn-primary btn-block">Sign In</button>`)
		h.Raw(`<p class="muted">Don't have an account? <a href="/register">Sign up</a></p>`)
		h.Raw("</form>")
	})
}

func registerForm(req RegisterRequest, errs validate.Errors, message string) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<form method="post" action="/register" hx-post="/register" hx-target="this" hx-swap="outerHTML" novalidate>`)
		h.Render(ctx, layouts.CSRFField())
		h.Render(ctx, layouts.Alert("error", message))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Full name", Name: "full_name", Value: req.FullName,
			Error: errs.Get("full_name"), Autocomplete: "name",
		}))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Email", Name: "email", Type: "email", Value: req.Email,
			Error: errs.Get("email"), Autocomplete: "email",
		}))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Password", Name: "password", Type: "password",
			Error: errs.Get("password"), Autocomplete: "new-password",
		}))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Confirm password", Name: "confirm_password", Type: "password",
			Error: errs.Get("confirm_password"), Autocomplete: "new-password",
		}))

		checked := ""
		if req.Terms != "" {
			checked = " checked"
		}
		h.Printf(`<div class="field checkbox"><label><input type="checkbox" name="terms" value="on"%s> I agree to the Terms of Service and Privacy Policy</label>`, layouts.Safe(checked))
		if msg := errs.Get("terms"); msg != "" {
			h.Printf(`<p class="field-error">%s</p>`, msg)
		}
		h.Raw("</div>")

		h.Raw(`<button type="submit" class="btn btn-primary btn-block">Create Account</button>`)
		h.Raw(`<p class="muted">Already have an account? <a href="/login">Sign in</a></p>`)
		h.Raw("</form>")
	})
}
