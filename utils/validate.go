package utils

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// ValidateStruct runs struct-tag validation for DTOs bound outside gin's
// JSON binding path (query strings, CLI input).
func ValidateStruct(s any) error {
	return validate.Struct(s)
}
