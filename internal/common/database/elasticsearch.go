package database

import (
	"context"
	"fmt"
	"net/http"

	"agency-dashboard/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchClient is the connection to the cluster holding the prospect index.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
	Index  string
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    3,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es, Index: cfg.Index}, nil
}

// Ping waits until the cluster reports at least yellow health, which is
// enough for a single-node index to accept writes.
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Cluster.Health(
		c.Client.Cluster.Health.WithContext(ctx),
		c.Client.Cluster.Health.WithWaitForStatus("yellow"),
		c.Client.Cluster.Health.WithTimeout(config.GetDuration(5000)),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch cluster unhealthy: %s", res.Status())
	}
	return nil
}

// DropIndex deletes the configured index. A missing index is not an error.
func (c *ElasticsearchClient) DropIndex(ctx context.Context) error {
	res, err := c.Client.Indices.Delete([]string{c.Index}, c.Client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("drop index %s: %w", c.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("drop index %s: %s", c.Index, res.Status())
	}
	return nil
}
