package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"ciment_back_end/internal/services"
)

// SetupValidator enregistre les règles de la boutique (téléphone, noms json)
// dans le validateur utilisé par le binding gin
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		services.RegisterValidations(v)
	}
}
