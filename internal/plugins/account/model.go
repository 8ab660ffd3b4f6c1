// Package account is the profile page: display name and email, account
// usage totals and a JSON export of everything the API stores.
package account

import (
	"strings"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/session"
	"github.com/keyxmakerx/costpilot/internal/validate"
)

// ProfileForm is the profile edit form.
type ProfileForm struct {
	FullName string `form:"full_name"`
	Email    string `form:"email"`
}

func formFor(id *session.Identity) ProfileForm {
	if id == nil {
		return ProfileForm{}
	}
	return ProfileForm{FullName: id.DisplayName, Email: id.Email}
}

// update validates the form and returns the fields that differ from
// current. ok is false when nothing changed.
func (f *ProfileForm) update(current ProfileForm) (upd apiclient.ProfileUpdate, ok bool, errs validate.Errors) {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)

	errs = validate.Errors{}
	errs.Required("full_name", f.FullName, "Full name is required")
	if errs.Required("email", f.Email, "Email is required") {
		errs.Email("email", f.Email, "Email format is invalid")
	}
	if !errs.OK() {
		return upd, false, errs
	}

	if f.FullName != current.FullName {
		name := f.FullName
		upd.FullName = &name
		ok = true
	}
	if !strings.EqualFold(f.Email, current.Email) {
		email := f.Email
		upd.Email = &email
		ok = true
	}
	return upd, ok, errs
}
