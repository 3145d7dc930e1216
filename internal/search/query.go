// Package search keeps a per-client prospect index in Elasticsearch.
package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrMissingIndex  = errors.New("index name is required")
	ErrMissingClient = errors.New("client id is required")
)

const (
	defaultSize = 50
	maxSize     = 500
)

// ProspectQuery mirrors the prospects page: a search term, facet filters and a sort.
type ProspectQuery struct {
	ClientID int
	Term     string
	Facets   map[string]string
	SortBy   string
	SortDesc bool
	From     int
	Size     int
}

// facetFields maps facet names onto indexed keyword fields.
var facetFields = map[string]string{
	"segment": "segment",
	"status":  "sequenceStatus.status",
}

var sortFields = map[string]string{
	"score":        "score",
	"email":        "email.keyword",
	"company":      "company.keyword",
	"lastActivity": "lastActivity",
	"createdAt":    "createdAt",
}

// BuildQuery turns q into a search request against index.
func BuildQuery(index string, q ProspectQuery) (*esapi.SearchRequest, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}
	if q.ClientID <= 0 {
		return nil, ErrMissingClient
	}

	body, err := json.Marshal(buildProspectQuery(q))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	size := q.Size
	if size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	from := max(q.From, 0)

	return &esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}, nil
}

func buildProspectQuery(q ProspectQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"clientId": q.ClientID},
		},
	}

	if q.Term != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Term,
				"fields": []string{"email", "company"},
				"type":   "phrase_prefix",
			},
		})
	}

	for name, value := range q.Facets {
		field, ok := facetFields[name]
		if !ok || value == "" {
			continue
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{field: value},
		})
	}

	boolQuery := map[string]interface{}{"filter": filterClauses}
	if len(mustClauses) > 0 {
		boolQuery["must"] = mustClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}

	sorts := []interface{}{}
	if field, ok := sortFields[q.SortBy]; ok {
		order := "asc"
		if q.SortDesc {
			order = "desc"
		}
		sorts = append(sorts, map[string]interface{}{field: map[string]interface{}{"order": order}})
	}
	// insertion order breaks ties
	sorts = append(sorts, map[string]interface{}{"id": map[string]interface{}{"order": "asc"}})
	query["sort"] = sorts

	return query
}
