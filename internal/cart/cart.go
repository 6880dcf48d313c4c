package cart

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"ciment_back_end/internal/models"
)

// Quantité maximale d'un même produit dans le panier
const MaxQuantity = 100

var ErrInvalidQuantity = errors.New("la quantité doit être comprise entre 1 et 100")

// Catalog retrouve les produits encore présents en base
type Catalog interface {
	ProductsByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error)
}

// Item est une ligne de panier enrichie du produit courant
type Item struct {
	Product    models.Product  `json:"product"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Cart est le panier d'une session. Chaque modification est réécrite
// entièrement dans le store, la dernière écriture l'emporte.
type Cart struct {
	store Store
	key   string
	lines Lines
}

// Load charge le panier de la session (vide s'il n'existe pas)
func Load(ctx context.Context, store Store, key string) (*Cart, error) {
	lines, err := store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Cart{store: store, key: key, lines: lines}, nil
}

// Add ajoute quantity au produit, ou remplace sa quantité si override est vrai.
// Le prix unitaire est figé au premier ajout.
func (c *Cart) Add(ctx context.Context, p models.Product, quantity int, override bool) error {
	id := strconv.FormatUint(uint64(p.ID), 10)

	line, ok := c.lines[id]
	if !ok {
		line = Line{Price: p.Price}
	}

	next := line.Quantity + quantity
	if override {
		next = quantity
	}
	if quantity < 1 || next > MaxQuantity {
		return ErrInvalidQuantity
	}

	line.Quantity = next
	c.lines[id] = line
	return c.store.Save(ctx, c.key, c.lines)
}

// Remove retire le produit du panier (sans effet s'il n'y est pas)
func (c *Cart) Remove(ctx context.Context, productID uint) error {
	id := strconv.FormatUint(uint64(productID), 10)
	if _, ok := c.lines[id]; !ok {
		return nil
	}
	delete(c.lines, id)
	return c.store.Save(ctx, c.key, c.lines)
}

// Items retourne les lignes dont le produit existe encore, triées par identifiant
func (c *Cart) Items(ctx context.Context, catalog Catalog) ([]Item, error) {
	ids := c.productIDs()
	if len(ids) == 0 {
		return []Item{}, nil
	}

	products, err := catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			continue
		}
		line := c.lines[strconv.FormatUint(uint64(id), 10)]
		items = append(items, Item{
			Product:    p,
			Quantity:   line.Quantity,
			Price:      line.Price,
			TotalPrice: line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}
	return items, nil
}

// Len retourne le nombre total d'articles (somme des quantités)
func (c *Cart) Len() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice additionne prix figé × quantité sur toutes les lignes stockées
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Clear vide le panier et supprime la clé du store
func (c *Cart) Clear(ctx context.Context) error {
	c.lines = Lines{}
	return c.store.Delete(ctx, c.key)
}

func (c *Cart) productIDs() []uint {
	ids := make([]uint, 0, len(c.lines))
	for key := range c.lines {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count additionne les quantités des lignes retournées par Items
func Count(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Total additionne les totaux de lignes déjà calculés
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return total
}
