package services

import "gorm.io/gorm"

// Tailles de page des écrans d'administration
const (
	AdminPageSize   = 10
	OrdersPageSize  = 20
	HistoryPageSize = 20
)

// Page est une page de résultats numérotée à partir de 1
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Pages    int   `json:"pages"`
}

func (p Page[T]) HasNext() bool {
	return p.Page < p.Pages
}

// paginate compte puis charge la page demandée de q. Les preloads ne
// s'appliquent qu'au chargement, pas au comptage.
func paginate[T any](q *gorm.DB, page, size int, preloads ...string) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	result := Page[T]{Page: page, PageSize: size, Items: []T{}}

	if err := q.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		return result, err
	}
	result.Pages = int((result.Total + int64(size) - 1) / int64(size))

	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.Offset((page - 1) * size).Limit(size).Find(&result.Items).Error; err != nil {
		return result, err
	}
	return result, nil
}
