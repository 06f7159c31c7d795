// Package search mirrors the catalog into Elasticsearch for fuzzy lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
)

type Index interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type ESIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewESIndex(ctx context.Context, cfg Config) (*ESIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	index := cfg.Index
	if index == "" {
		index = "products"
	}
	return &ESIndex{ES: client, Index: index}, nil
}

func (s *ESIndex) IndexProduct(ctx context.Context, p *models.Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := s.ES.Index(
		s.Index,
		bytes.NewReader(body),
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(p.SKU),
	)
	if err != nil {
		return fmt.Errorf("index %s: %w", p.SKU, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index %s: %s", p.SKU, res.Status())
	}
	return nil
}

func queryBody(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "sku^3", "barcode^3", "category"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{"term": map[string]any{"active": true}},
			},
		},
		"from": from,
		"size": size,
	}
}

func (s *ESIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(queryBody(strings.TrimSpace(query), from, size)); err != nil {
		return 0, nil, err
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	return decodeHits(res.Body)
}

func decodeHits(r io.Reader) (int64, []models.Product, error) {
	var body struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return 0, nil, err
	}

	prods := make([]models.Product, len(body.Hits.Hits))
	for i, hit := range body.Hits.Hits {
		prods[i] = hit.Source
	}
	return body.Hits.Total.Value, prods, nil
}
