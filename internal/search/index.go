package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const prospectMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "integer"},
      "clientId":     {"type": "integer"},
      "email":        {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "company":      {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "score":        {"type": "float"},
      "segment":      {"type": "keyword"},
      "sequenceStatus": {
        "properties": {
          "status":      {"type": "keyword"},
          "currentStep": {"type": "integer"},
          "sequenceId":  {"type": "integer"}
        }
      },
      "createdAt":    {"type": "date"},
      "lastActivity": {"type": "date"}
    }
  }
}`

// Index reads and writes prospect documents.
type Index struct {
	es    *elasticsearch.Client
	index string
	log   logger.Logger
}

func NewIndex(es *elasticsearch.Client, index string, log logger.Logger) *Index {
	return &Index{es: es, index: index, log: log.WithFields(map[string]interface{}{"index": index})}
}

// Result is one page of matches.
type Result struct {
	Total     int                `json:"total"`
	Prospects []*models.Prospect `json:"prospects"`
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.es)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(i.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: i.index, Body: strings.NewReader(prospectMapping)}.Do(ctx, i.es)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchQueryFailedError(i.index, fmt.Errorf("create index: %s", res.String()))
	}
	i.log.Info("Created prospect index", nil)
	return nil
}

func (i *Index) IndexProspect(ctx context.Context, p *models.Prospect) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.Itoa(p.ID),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}.Do(ctx, i.es)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchQueryFailedError(i.index, fmt.Errorf("index prospect %d: %s", p.ID, res.String()))
	}
	return nil
}

// DeleteProspect removes a document. A missing document is not an error.
func (i *Index) DeleteProspect(ctx context.Context, id int) error {
	res, err := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: strconv.Itoa(id),
		Refresh:    "true",
	}.Do(ctx, i.es)
	if err != nil {
		return apperrors.NewSearchQueryFailedError(i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return apperrors.NewSearchQueryFailedError(i.index, fmt.Errorf("delete prospect %d: %s", id, res.String()))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Prospect `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (i *Index) SearchProspects(ctx context.Context, q ProspectQuery) (*Result, error) {
	req, err := BuildQuery(i.index, q)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(i.index, err)
	}

	res, err := req.Do(ctx, i.es)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(i.index, fmt.Errorf("search: %s", res.String()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(i.index, fmt.Errorf("decode response: %w", err))
	}

	out := &Result{Total: r.Hits.Total.Value, Prospects: make([]*models.Prospect, 0, len(r.Hits.Hits))}
	for _, h := range r.Hits.Hits {
		p := h.Source
		out.Prospects = append(out.Prospects, &p)
	}
	return out, nil
}
