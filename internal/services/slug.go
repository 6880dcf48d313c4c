package services

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"ciment_back_end/internal/models"
)

// Slugify convertit un texte en slug ASCII : accents retirés, minuscules,
// espaces et tirets consécutifs remplacés par un seul tiret
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return strings.Trim(b.String(), "-_")
}

// UniqueProductSlug retourne base, ou base-1, base-2… si le slug est déjà pris.
// excludeID permet d'ignorer le produit en cours de modification.
func UniqueProductSlug(tx *gorm.DB, base string, excludeID uint) (string, error) {
	if base == "" {
		base = "produit"
	}

	var taken []string
	q := tx.Model(&models.Product{}).Where("slug = ? OR slug LIKE ?", base, base+"-%")
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Pluck("slug", &taken).Error; err != nil {
		return "", fmt.Errorf("recherche des slugs: %w", err)
	}

	used := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		used[s] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base, nil
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
}
