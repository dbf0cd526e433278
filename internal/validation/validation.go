// Package validation проверяет пользовательский ввод до обращения к сети.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// MsgInvalidURL - сообщение, которое видит пользователь при неверном вводе.
const MsgInvalidURL = "Please enter a valid URL"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Error - ошибка локальной проверки, до сети такой ввод не доходит.
type Error struct {
	Input string
}

func (e *Error) Error() string {
	return MsgInvalidURL
}

// URL проверяет, что строка непустая и является абсолютным URL со схемой.
// Пробелы по краям отбрасываются, возвращается очищенное значение.
func URL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if err := validate.Var(s, "required,url"); err != nil {
		return "", &Error{Input: raw}
	}
	return s, nil
}
