package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"ciment_back_end/internal/models"
)

// Types d'opération du formulaire de stock
const (
	StockAdd    = "add"
	StockRemove = "remove"
)

// StockFilter filtre l'écran de gestion des stocks
type StockFilter struct {
	CategoryID   uint
	Availability string
}

// StockForm est la saisie d'un opérateur sur le stock d'un produit
type StockForm struct {
	Operation string     `json:"operation_type"`
	Quantity  int        `json:"quantity"`
	EntryDate *time.Time `json:"entry_date"`
	Notes     string     `json:"notes"`
}

// StockResult est le résultat d'une opération de stock
type StockResult struct {
	Entry   models.StockEntry `json:"entry"`
	Product models.Product    `json:"product"`
	Stock   int               `json:"current_stock"`
}

// CurrentStock retourne la somme des mouvements du produit, jamais négative
func CurrentStock(ctx context.Context, db *gorm.DB, productID uint) (int, error) {
	var total int64
	err := db.WithContext(ctx).Model(&models.StockEntry{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total < 0 {
		return 0, nil
	}
	return int(total), nil
}

// StockLevels liste les produits avec leur stock courant, triés par nom
func StockLevels(ctx context.Context, db *gorm.DB, f StockFilter) ([]models.ProductWithStock, error) {
	const sum = "COALESCE(SUM(stock_entries.quantity), 0)"

	q := db.WithContext(ctx).Table("products").
		Select("products.*, " + sum + " AS stock").
		Joins("LEFT JOIN stock_entries ON stock_entries.product_id = products.id").
		Group("products.id").
		Order("products.name")
	if f.CategoryID != 0 {
		q = q.Where("products.category_id = ?", f.CategoryID)
	}
	switch f.Availability {
	case models.StockFilterInStock:
		q = q.Having(sum + " > 0")
	case models.StockFilterOutOfStock:
		q = q.Having(sum + " <= 0")
	}

	var rows []models.ProductWithStock
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	catIDs := make([]uint, 0, len(rows))
	for i := range rows {
		if rows[i].Stock < 0 {
			rows[i].Stock = 0
		}
		catIDs = append(catIDs, rows[i].CategoryID)
	}
	if len(catIDs) == 0 {
		return rows, nil
	}

	var cats []models.Category
	if err := db.WithContext(ctx).Where("id IN ?", catIDs).Find(&cats).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Category, len(cats))
	for i := range cats {
		byID[cats[i].ID] = &cats[i]
	}
	for i := range rows {
		rows[i].Category = byID[rows[i].CategoryID]
	}
	return rows, nil
}

// RecordStockEntry enregistre un mouvement de stock. Un mouvement du même jour
// avec les mêmes notes est cumulé dans l'entrée existante. La disponibilité
// du produit suit ensuite le stock.
func RecordStockEntry(ctx context.Context, db *gorm.DB, entry models.StockEntry) (*models.StockEntry, error) {
	var saved models.StockEntry
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		saved, err = recordEntry(tx, entry)
		if err != nil {
			return err
		}
		_, err = syncAvailability(tx, entry.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func recordEntry(tx *gorm.DB, entry models.StockEntry) (models.StockEntry, error) {
	if entry.EntryDate.IsZero() {
		entry.EntryDate = time.Now()
	}
	entry.EntryDate = entry.EntryDate.UTC()

	day := time.Date(entry.EntryDate.Year(), entry.EntryDate.Month(), entry.EntryDate.Day(), 0, 0, 0, 0, time.UTC)
	q := tx.Where("product_id = ? AND entry_date >= ? AND entry_date < ?", entry.ProductID, day, day.AddDate(0, 0, 1))
	if entry.Notes == nil {
		q = q.Where("notes IS NULL")
	} else {
		q = q.Where("notes = ?", *entry.Notes)
	}

	var existing models.StockEntry
	res := q.Limit(1).Find(&existing)
	if res.Error != nil {
		return entry, res.Error
	}
	if res.RowsAffected > 0 {
		existing.Quantity += entry.Quantity
		if err := tx.Save(&existing).Error; err != nil {
			return entry, err
		}
		return existing, nil
	}

	entry.ID = 0
	if err := tx.Create(&entry).Error; err != nil {
		return entry, err
	}
	return entry, nil
}

// syncAvailability rend le produit indisponible à stock nul et disponible dès qu'il remonte
func syncAvailability(tx *gorm.DB, productID uint) (models.Product, error) {
	var p models.Product
	if err := tx.First(&p, productID).Error; err != nil {
		return p, notFound(err)
	}
	stock, err := CurrentStock(tx.Statement.Context, tx, productID)
	if err != nil {
		return p, err
	}

	switch {
	case stock <= 0 && p.Available:
		p.Available = false
	case stock > 0 && !p.Available:
		p.Available = true
	default:
		return p, nil
	}
	return p, tx.Model(&models.Product{}).Where("id = ?", p.ID).Update("available", p.Available).Error
}

// ApplyStockOperation valide le formulaire puis enregistre l'ajout ou le retrait
func ApplyStockOperation(ctx context.Context, db *gorm.DB, productID uint, form StockForm) (*StockResult, error) {
	verr := &ValidationError{}
	if form.Operation == "" {
		form.Operation = StockAdd
	}
	if form.Operation != StockAdd && form.Operation != StockRemove {
		verr.Add("operation_type", "Sélectionnez un choix valide parmi : add remove.")
	}
	if form.Quantity <= 0 {
		verr.Add("quantity", "La quantité doit être supérieure à zéro.")
	}
	entryDate := time.Now()
	if form.EntryDate != nil {
		if form.EntryDate.After(entryDate) {
			verr.Add("entry_date", "La date de l'opération ne peut pas être dans le futur.")
		}
		entryDate = *form.EntryDate
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var result StockResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.First(&p, productID).Error; err != nil {
			return notFound(err)
		}

		qty := form.Quantity
		if form.Operation == StockRemove {
			current, err := CurrentStock(ctx, tx, productID)
			if err != nil {
				return err
			}
			if qty > current {
				return fieldError("quantity", fmt.Sprintf("Stock insuffisant. Quantité disponible : %d", current))
			}
			qty = -qty
		}

		entry := models.StockEntry{ProductID: productID, Quantity: qty, EntryDate: entryDate}
		if notes := strings.TrimSpace(form.Notes); notes != "" {
			entry.Notes = &notes
		}
		saved, err := recordEntry(tx, entry)
		if err != nil {
			return err
		}
		product, err := syncAvailability(tx, productID)
		if err != nil {
			return err
		}
		stock, err := CurrentStock(ctx, tx, productID)
		if err != nil {
			return err
		}
		result = StockResult{Entry: saved, Product: product, Stock: stock}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// StockHistory pagine les mouvements, du plus récent au plus ancien.
// productID à 0 retourne l'historique de tous les produits.
func StockHistory(ctx context.Context, db *gorm.DB, productID uint, page int) (Page[models.StockEntry], error) {
	q := db.WithContext(ctx).Model(&models.StockEntry{}).Order("entry_date DESC, id DESC")
	if productID != 0 {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return Page[models.StockEntry]{}, err
		}
		if count == 0 {
			return Page[models.StockEntry]{}, ErrNotFound
		}
		q = q.Where("product_id = ?", productID)
	}
	return paginate[models.StockEntry](q, page, HistoryPageSize, "Product")
}
