package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"ciment_back_end/internal/models"
)

// ProductIndexer maintient l'index de recherche des produits
type ProductIndexer interface {
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, limit int) ([]uint, error)
}

// ElasticIndexer indexe les produits dans Elasticsearch
type ElasticIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndexer(client *elasticsearch.Client, index string) *ElasticIndexer {
	return &ElasticIndexer{client: client, index: index}
}

type productDocument struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CementType  string `json:"cement_type"`
	CementLabel string `json:"cement_label"`
	Category    string `json:"category,omitempty"`
	Price       string `json:"price"`
	Available   bool   `json:"available"`
}

func (e *ElasticIndexer) Index(ctx context.Context, p models.Product) error {
	doc := productDocument{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CementType:  p.CementType,
		CementLabel: p.CementTypeLabel(),
		Price:       p.Price.StringFixed(2),
		Available:   p.Available,
	}
	if p.Category != nil {
		doc.Category = p.Category.Name
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: strconv.FormatUint(uint64(p.ID), 10),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexation de %q refusée: %s", p.Name, res.String())
	}
	return nil
}

func (e *ElasticIndexer) Delete(ctx context.Context, id uint) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: strconv.FormatUint(uint64(id), 10),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("suppression Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("suppression refusée: %s", res.String())
	}
	return nil
}

// Search retourne les identifiants des produits disponibles correspondant à query
func (e *ElasticIndexer) Search(ctx context.Context, query string, limit int) ([]uint, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^3", "cement_label^2", "description", "category"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{"term": map[string]any{"available": true}},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encodage requête: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{e.index}, Body: &buf}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.New("index de recherche indisponible")
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source productDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("décodage réponse Elastic: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}
