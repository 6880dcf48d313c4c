package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ciment_back_end/internal/models"
)

// Catalog gère les catégories et les produits
type Catalog struct {
	db      *gorm.DB
	indexer ProductIndexer
	images  ImageStore
	log     *zap.Logger
}

// NewCatalog crée le service catalogue. indexer et images peuvent être nil.
func NewCatalog(db *gorm.DB, indexer ProductIndexer, images ImageStore, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{db: db, indexer: indexer, images: images, log: log}
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Code        string `json:"code" validate:"max=50"`
	Description string `json:"description"`
}

type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	CategoryID  uint            `json:"category_id" validate:"required"`
	Description string          `json:"description"`
	CementType  string          `json:"cement_type"`
	Price       decimal.Decimal `json:"price"`
	Weight      decimal.Decimal `json:"weight"`
	Available   *bool           `json:"available"`
}

// ProductFilter filtre la liste publique des produits
type ProductFilter struct {
	CategorySlug string
	CementType   string
}

// ----- Catégories -----

func (s *Catalog) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).Order("name").Find(&cats).Error
	return cats, err
}

func (s *Catalog) CategoriesPage(ctx context.Context, page int) (Page[models.Category], error) {
	return paginate[models.Category](s.db.WithContext(ctx).Model(&models.Category{}).Order("name"), page, AdminPageSize)
}

func (s *Catalog) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&cat).Error; err != nil {
		return nil, notFound(err)
	}
	return &cat, nil
}

func (s *Catalog) validateCategory(tx *gorm.DB, in *CategoryInput, excludeID uint) error {
	verr := validateStruct(in)
	in.Code = strings.ToLower(strings.TrimSpace(in.Code))
	if in.Code == "" {
		verr.Add("code", "Le code est obligatoire")
	} else if Slugify(in.Code) != in.Code {
		verr.Add("code", "Le code ne peut contenir que des lettres, chiffres, tirets et soulignés.")
	}
	if verr.OrNil() != nil {
		return verr
	}

	var count int64
	q := tx.Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", in.Name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		verr.Add("name", "Une catégorie avec ce libellé existe déjà.")
	}

	q = tx.Model(&models.Category{}).Where("slug = ?", in.Code)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		verr.Add("code", "Une catégorie avec ce code existe déjà.")
	}
	return verr.OrNil()
}

func (s *Catalog) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	var cat models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validateCategory(tx, &in, 0); err != nil {
			return err
		}
		cat = models.Category{Name: strings.TrimSpace(in.Name), Slug: in.Code, Description: in.Description}
		return tx.Create(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("✅ Catégorie créée", zap.Uint("category_id", cat.ID), zap.String("slug", cat.Slug))
	return &cat, nil
}

func (s *Catalog) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	var cat models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cat, id).Error; err != nil {
			return notFound(err)
		}
		if err := s.validateCategory(tx, &in, id); err != nil {
			return err
		}
		cat.Name = strings.TrimSpace(in.Name)
		cat.Slug = in.Code
		cat.Description = in.Description
		return tx.Save(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory supprime la catégorie et, en cascade, ses produits
func (s *Catalog) DeleteCategory(ctx context.Context, id uint) error {
	var productIDs []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, pid := range productIDs {
		s.unindex(ctx, pid)
	}
	s.log.Info("🗑️ Catégorie supprimée", zap.Uint("category_id", id), zap.Int("products", len(productIDs)))
	return nil
}

// ----- Produits -----

func (s *Catalog) validateProduct(tx *gorm.DB, in *ProductInput, excludeID uint) error {
	in.Name = strings.TrimSpace(in.Name)
	verr := validateStruct(in)

	switch {
	case in.Price.IsNegative():
		verr.Add("price", "Le prix ne peut pas être négatif")
	case in.Price.IsZero():
		verr.Add("price", "Le prix doit être supérieur à zéro")
	}
	if !in.Weight.IsPositive() {
		verr.Add("weight", "Le poids doit être supérieur à zéro")
	}
	if in.CementType == "" {
		in.CementType = models.CementCPJ45
	}
	if !models.IsCementType(in.CementType) {
		verr.Add("cement_type", "Sélectionnez un type de ciment valide.")
	}

	if in.CategoryID == 0 {
		return verr.OrNil()
	}
	var cat models.Category
	if err := tx.First(&cat, in.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr.Add("category_id", "Sélectionnez une catégorie valide.")
			return verr
		}
		return err
	}

	if in.Name != "" {
		var count int64
		q := tx.Model(&models.Product{}).
			Where("LOWER(name) = LOWER(?) AND category_id = ?", in.Name, in.CategoryID)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			if excludeID != 0 {
				verr.Add("name", fmt.Sprintf("Un autre produit avec ce nom existe déjà dans la catégorie %s.", cat.Name))
			} else {
				verr.Add("name", fmt.Sprintf("Un produit avec ce nom existe déjà dans la catégorie %s.", cat.Name))
			}
		}
	}
	return verr.OrNil()
}

// CreateProduct crée un produit avec un slug unique dérivé du nom
func (s *Catalog) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validateProduct(tx, &in, 0); err != nil {
			return err
		}
		slug, err := UniqueProductSlug(tx, Slugify(in.Name), 0)
		if err != nil {
			return err
		}
		p = models.Product{
			Name:        in.Name,
			Slug:        slug,
			Description: in.Description,
			CategoryID:  in.CategoryID,
			CementType:  in.CementType,
			Price:       in.Price,
			Weight:      in.Weight,
			Available:   in.Available == nil || *in.Available,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return tx.Preload("Category").First(&p, p.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("✅ Produit créé", zap.Uint("product_id", p.ID), zap.String("slug", p.Slug))
	s.index(ctx, p)
	return &p, nil
}

// UpdateProduct met à jour un produit. Le slug reste stable.
func (s *Catalog) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return notFound(err)
		}
		if err := s.validateProduct(tx, &in, id); err != nil {
			return err
		}
		p.Name = in.Name
		p.Description = in.Description
		p.CategoryID = in.CategoryID
		p.Category = nil
		p.CementType = in.CementType
		p.Price = in.Price
		p.Weight = in.Weight
		if in.Available != nil {
			p.Available = *in.Available
		}
		if p.Slug == "" {
			slug, err := UniqueProductSlug(tx, Slugify(p.Name), p.ID)
			if err != nil {
				return err
			}
			p.Slug = slug
		}
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		return tx.Preload("Category").First(&p, p.ID).Error
	})
	if err != nil {
		return nil, err
	}
	s.index(ctx, p)
	return &p, nil
}

func (s *Catalog) DeleteProduct(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.unindex(ctx, id)
	s.log.Info("🗑️ Produit supprimé", zap.Uint("product_id", id))
	return nil
}

// AttachImage envoie l'image sur le stockage objet et enregistre son URL
func (s *Catalog) AttachImage(ctx context.Context, id uint, filename, contentType string, r io.Reader, size int64) (*models.Product, error) {
	if s.images == nil {
		return nil, ErrStorageDisabled
	}
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}

	url, err := s.images.Upload(ctx, filename, contentType, r, size)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&p).Update("image", url).Error; err != nil {
		return nil, err
	}
	p.Image = url
	return &p, nil
}

// ProductsByIDs retourne les produits existants indexés par identifiant
func (s *Catalog) ProductsByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := s.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (s *Catalog) Product(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Preload("Category").First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListProducts retourne les produits disponibles, éventuellement filtrés
func (s *Catalog) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Preload("Category").Where("products.available = ?", true)
	if f.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", f.CategorySlug)
	}
	if f.CementType != "" {
		q = q.Where("products.cement_type = ?", f.CementType)
	}
	var products []models.Product
	err := q.Order("products.name").Find(&products).Error
	return products, err
}

// AdminProducts liste tous les produits, disponibles ou non
func (s *Catalog) AdminProducts(ctx context.Context, page int) (Page[models.Product], error) {
	q := s.db.WithContext(ctx).Model(&models.Product{}).Order("created_at DESC, id DESC")
	return paginate[models.Product](q, page, AdminPageSize, "Category")
}

// FeaturedProducts retourne les n premiers produits disponibles
func (s *Catalog) FeaturedProducts(ctx context.Context, n int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).Preload("Category").
		Where("available = ?", true).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&products).Error
	return products, err
}

// ProductByIDSlug retourne un produit disponible identifié par son id et son slug
func (s *Catalog) ProductByIDSlug(ctx context.Context, id uint, slug string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND slug = ? AND available = ?", id, slug, true).
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Search interroge l'index Elasticsearch, ou la base si l'index est indisponible
func (s *Catalog) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Product{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	if s.indexer != nil {
		ids, err := s.indexer.Search(ctx, query, limit)
		if err == nil {
			return s.productsInOrder(ctx, ids)
		}
		s.log.Warn("⚠️ Recherche Elastic indisponible, repli sur la base", zap.Error(err))
	}

	like := "%" + strings.ToLower(query) + "%"
	var products []models.Product
	err := s.db.WithContext(ctx).Preload("Category").
		Where("available = ?", true).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like).
		Order("name").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (s *Catalog) productsInOrder(ctx context.Context, ids []uint) ([]models.Product, error) {
	byID, err := s.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.Available {
			out = append(out, p)
		}
	}
	return out, nil
}

// ReindexAll pousse tous les produits dans l'index de recherche
func (s *Catalog) ReindexAll(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, nil
	}
	var products []models.Product
	if err := s.db.WithContext(ctx).Preload("Category").Find(&products).Error; err != nil {
		return 0, err
	}
	for _, p := range products {
		if err := s.indexer.Index(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(products), nil
}

// FixMissingSlugs attribue un slug unique aux produits qui n'en ont pas
func (s *Catalog) FixMissingSlugs(ctx context.Context) (int, error) {
	fixed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products []models.Product
		if err := tx.Where("slug = '' OR slug IS NULL").Order("id").Find(&products).Error; err != nil {
			return err
		}
		for _, p := range products {
			slug, err := UniqueProductSlug(tx, Slugify(p.Name), p.ID)
			if err != nil {
				return err
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).Update("slug", slug).Error; err != nil {
				return err
			}
			fixed++
		}
		return nil
	})
	return fixed, err
}

func (s *Catalog) index(ctx context.Context, p models.Product) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(ctx, p); err != nil {
		s.log.Warn("⚠️ Indexation du produit impossible", zap.Uint("product_id", p.ID), zap.Error(err))
	}
}

func (s *Catalog) unindex(ctx context.Context, id uint) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Delete(ctx, id); err != nil {
		s.log.Warn("⚠️ Désindexation du produit impossible", zap.Uint("product_id", id), zap.Error(err))
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
