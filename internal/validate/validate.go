// Package validate normalizes and checks the raw string fields accepted by
// the public surface. Every function returns the normalized value or an
// *Error carrying a user-facing message.
package validate

import (
	"regexp"
	"strings"
)

// Error marks malformed caller input. Services recognize it and turn it
// into a structured failure instead of a generic internal error.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(message string) *Error { return &Error{Message: message} }

// IsError reports whether err is a validation error.
func IsError(err error) bool {
	_, ok := err.(*Error)
	return ok
}

var (
	emailRegexp     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	emailForbidden  = regexp.MustCompile(`['";\\]`)
	nameForbidden   = regexp.MustCompile(`[<>'"\\]`)
	phoneNonAllowed = regexp.MustCompile(`[^\d+]`)
)

// Email lowercases and trims the address before checking it.
func Email(email string) (string, error) {
	if email == "" {
		return "", newError("Email é obrigatório")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegexp.MatchString(email) {
		return "", newError("Email inválido")
	}
	if len(email) > 255 {
		return "", newError("Email muito longo")
	}
	if emailForbidden.MatchString(email) {
		return "", newError("Email contém caracteres inválidos")
	}
	return email, nil
}

func Password(password string) (string, error) {
	if password == "" {
		return "", newError("Senha é obrigatória")
	}
	password = strings.TrimSpace(password)
	if len(password) < 6 {
		return "", newError("Senha deve ter no mínimo 6 caracteres")
	}
	if len(password) > 128 {
		return "", newError("Senha muito longa")
	}
	return password, nil
}

// Name trims and strips markup-prone characters.
func Name(name string) (string, error) {
	if name == "" {
		return "", newError("Nome é obrigatório")
	}
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return "", newError("Nome deve ter no mínimo 2 caracteres")
	}
	if len(name) > 255 {
		return "", newError("Nome muito longo")
	}
	return nameForbidden.ReplaceAllString(name, ""), nil
}

// Phone is optional: an empty input returns nil without error. Everything
// except digits and a leading plus is stripped before the length check.
func Phone(phone string) (*string, error) {
	if phone == "" {
		return nil, nil
	}
	phone = phoneNonAllowed.ReplaceAllString(strings.TrimSpace(phone), "")
	if len(phone) > 20 {
		return nil, newError("Telefone muito longo")
	}
	if len(phone) < 8 {
		return nil, newError("Telefone inválido")
	}
	return &phone, nil
}

// Token checks the gross JWT shape only; cryptographic verification happens
// in the auth service.
func Token(token string) (string, error) {
	if token == "" {
		return "", newError("Token é obrigatório")
	}
	if len(token) > 2000 {
		return "", newError("Token muito longo")
	}
	if strings.Count(token, ".") != 2 {
		return "", newError("Token inválido")
	}
	return token, nil
}
