// Package validation declares the input forms of the application as explicit
// field configurations, shared by the API client (before submission) and the
// server (on receipt).
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// FieldType describes how a field is entered.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextArea FieldType = "textarea"
	TypeEmail    FieldType = "email"
	TypePassword FieldType = "password"
	TypeSelect   FieldType = "select"
	TypeTags     FieldType = "tags"
	TypeList     FieldType = "list"
	TypeBool     FieldType = "bool"
)

// Messages are the user-facing texts of a field's rules.
type Messages struct {
	Required string
	Min      string
	Max      string
	Option   string
	Pattern  string
}

// Field is one input with its rules. Min and Max count runes; zero disables them.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Min      int
	Max      int
	Options  []string
	Pattern  *regexp.Regexp
	Default  string
	Messages Messages
}

// Form is an ordered set of fields.
type Form struct {
	Name   string
	Fields []Field
}

// Values holds raw submitted field values by name.
type Values map[string]string

// FieldError is a rule violation on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors lists violations in field order. The zero value means valid.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	return e[0].Message
}

// Map indexes the first message of each field.
func (e Errors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// Field returns the first message for name, or "".
func (e Errors) Field(name string) string {
	for _, fe := range e {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

// Lookup returns the field configuration by name.
func (f Form) Lookup(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Validate checks every field and returns all violations, one per field at most.
func (f Form) Validate(values Values) Errors {
	var errs Errors
	for _, field := range f.Fields {
		if msg := field.check(values[field.Name]); msg != "" {
			errs = append(errs, FieldError{Field: field.Name, Message: msg})
		}
	}
	return errs
}

func (field Field) check(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		if field.Required || field.Min > 0 {
			return firstNonEmpty(field.Messages.Required, field.Messages.Min)
		}
		return ""
	}

	n := utf8.RuneCountInString(value)
	if field.Min > 0 && n < field.Min {
		return field.Messages.Min
	}
	if field.Max > 0 && n > field.Max {
		return field.Messages.Max
	}
	if field.Pattern != nil && !field.Pattern.MatchString(value) {
		return field.Messages.Pattern
	}
	if len(field.Options) > 0 && !contains(field.Options, value) {
		return firstNonEmpty(field.Messages.Option, field.Messages.Required)
	}
	return ""
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
