package validation

import "regexp"

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SignupForm is the account creation form.
var SignupForm = Form{
	Name: "signup",
	Fields: []Field{
		{
			Name: "email", Label: "Email", Type: TypeEmail, Required: true, Pattern: emailRegex,
			Messages: Messages{Required: "Email invalide", Pattern: "Email invalide"},
		},
		{
			Name: "password", Label: "Mot de passe", Type: TypePassword, Required: true, Min: 6, Max: 72,
			Messages: Messages{
				Min: "Le mot de passe doit contenir au moins 6 caractères",
				Max: "Le mot de passe ne peut pas dépasser 72 caractères",
			},
		},
		{
			Name: "fullName", Label: "Nom complet", Type: TypeText, Required: true, Min: 2, Max: 120,
			Messages: Messages{
				Min: "Le nom complet doit contenir au moins 2 caractères",
				Max: "Maximum 120 caractères",
			},
		},
	},
}

// SignInForm is the credentials sign-in form.
var SignInForm = Form{
	Name: "signin",
	Fields: []Field{
		{Name: "email", Type: TypeEmail, Required: true, Messages: Messages{Required: "Email et mot de passe requis"}},
		{Name: "password", Type: TypePassword, Required: true, Messages: Messages{Required: "Email et mot de passe requis"}},
	},
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}
