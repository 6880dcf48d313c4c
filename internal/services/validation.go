package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

// RegisterValidations ajoute les règles propres à la boutique et nomme
// les champs d'après leur tag json
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

// CleanPhone ne garde que les chiffres et un éventuel + initial
func CleanPhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validateStruct traduit les erreurs du validator en messages par champ
func validateStruct(s any) *ValidationError {
	verr := &ValidationError{}
	err := validate.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("__all__", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), validationMessage(fe))
	}
	return verr
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Ce champ est obligatoire."
	case "email":
		return "Saisissez une adresse e-mail valide."
	case "phone":
		return "Entrez un numéro de téléphone valide (9 à 15 chiffres, + optionnel au début)"
	case "max":
		return "Assurez-vous que cette valeur comporte au plus " + fe.Param() + " caractères."
	case "min":
		if fe.Kind() == reflect.String {
			return "Assurez-vous que cette valeur comporte au moins " + fe.Param() + " caractères."
		}
		return "Assurez-vous que cette valeur est supérieure ou égale à " + fe.Param() + "."
	case "oneof":
		return "Sélectionnez un choix valide parmi : " + fe.Param() + "."
	default:
		return "Valeur invalide."
	}
}
