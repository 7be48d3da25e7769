// Package validator checks request and configuration structs and reports
// every violated rule as an ordered list of field issues.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// ErrTranslatorNotFound indicates the english translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// Issue describes a single violated rule.
type Issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// Issues is an ordered list of validation issues. It preserves the order in
// which the rules were evaluated, which is struct field declaration order.
type Issues []Issue

// Error implements the error interface.
func (is Issues) Error() string {
	if len(is) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(is))
	for _, i := range is {
		parts = append(parts, strings.Join(i.Path, ".")+": "+i.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with english messages. Field names
// in paths and messages come from the json struct tag.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New constructs a Validator.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonName)

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	return &Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validate checks data and returns Issues when any rule fails. Errors that
// are not rule violations (e.g. a non-struct argument) are returned as is.
func (v *Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	issues := make(Issues, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{
			Path:    fieldPath(fe.Namespace()),
			Message: fe.Translate(v.translator),
		})
	}
	return issues
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(ns string) []string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		return parts[1:]
	}
	return parts
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// AsIssues reports whether err carries validation issues and returns them.
func AsIssues(err error) (Issues, bool) {
	var issues Issues
	if errors.As(err, &issues) {
		return issues, true
	}
	return nil, false
}
