package layouts

import (
	"context"

	"github.com/a-h/templ"
)

// Input describes one labelled form control.
type Input struct {
	Label        string
	Name         string
	Type         string // defaults to "text"
	Value        string
	Error        string
	Placeholder  string
	Autocomplete string
}

// Field renders a labelled input with its validation message.
func Field(in Input) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		typ := in.Type
		if typ == "" {
			typ = "text"
		}
		class := "field"
		if in.Error != "" {
			class += " has-error"
		}
		h.Printf(`<div class="%s"><label for="%s">%s</label>`, class, in.Name, in.Label)
		h.Printf(`<input id="%s" name="%s" type="%s"`, in.Name, in.Name, typ)
		if typ != "password" {
			h.Printf(` value="%s"`, in.Value)
		}
		if in.Placeholder != "" {
			h.Printf(` placeholder="%s"`, in.Placeholder)
		}
		if in.Autocomplete != "" {
			h.Printf(` autocomplete="%s"`, in.Autocomplete)
		}
		h.Raw(">")
		fieldError(h, in.Error)
		h.Raw("</div>")
	})
}

// Select renders a labelled drop-down; options are both value and label.
func Select(label, name string, options []string, selected, errMsg string) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		h.Printf(`<div class="field"><label for="%s">%s</label><select id="%s" name="%s">`, name, label, name, name)
		for _, o := range options {
			sel := ""
			if o == selected {
				sel = " selected"
			}
			h.Printf(`<option value="%s"%s>%s</option>`, o, Safe(sel), o)
		}
		h.Raw("</select>")
		fieldError(h, errMsg)
		h.Raw("</div>")
	})
}

// Checkbox renders a labelled checkbox submitting "on" when ticked.
func Checkbox(label, name string, checked bool) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		attr := ""
		if checked {
			attr = " checked"
		}
		h.Printf(`<div class="field checkbox"><label><input type="checkbox" name="%s" value="on"%s> %s</label></div>`,
			name, Safe(attr), label)
	})
}

// Alert renders a boxed message; kind is one of success, error, warning, info.
func Alert(kind, message string) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		if message == "" {
			return
		}
		h.Printf(`<div class="alert alert-%s" role="alert">%s</div>`, kind, message)
	})
}

func fieldError(h *HTML, msg string) {
	if msg != "" {
		h.Printf(`<p class="field-error">%s</p>`, msg)
	}
}
