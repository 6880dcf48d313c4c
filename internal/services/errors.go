package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("ressource introuvable")
	ErrEmptyCart          = errors.New("votre panier est vide")
	ErrInsufficientStock  = errors.New("stock insuffisant")
	ErrForbidden          = errors.New("accès refusé")
	ErrInvalidCredentials = errors.New("identifiants invalides")
	ErrInactiveUser       = errors.New("compte désactivé")
	ErrStorageDisabled    = errors.New("stockage d'images non configuré")
)

// ValidationError regroupe les messages d'erreur par champ
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "données invalides (" + strings.Join(parts, ", ") + ")"
}

// Add enregistre le premier message d'erreur d'un champ
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// OrNil retourne nil quand aucun champ n'est en erreur
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
