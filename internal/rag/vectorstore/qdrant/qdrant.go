package qdrant

import (
	"context"
	"errors"
	"fmt"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/kb/chunker"
	"github.com/pharma-intellect/pharmarag/internal/rag/vectorstore"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
	"github.com/qdrant/go-client/qdrant"
)

var dimension = uint64(config.EmbeddingDimension)

type Client struct {
	qObj   *qdrant.Client
	logger *logging.Logger
}

// New connects to qdrant over grpc. An unreachable store is a fatal
// initialization failure: neither ingestion nor query can proceed
// without it, so the error surfaces to the caller instead of degrading.
func New(host string, port int) (*Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s:%d: %w", host, port, err)
	}

	return &Client{
		qObj:   client,
		logger: logging.NewLogger("qdrant"),
	}, nil
}

func (c *Client) Close() error {
	c.logger.Info("Closing qdrant client")
	return c.qObj.Close()
}

// EnsureCollection creates the collection lazily with cosine distance.
// Existing collections are left untouched.
func (c *Client) EnsureCollection(ctx context.Context, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := c.qObj.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	c.logger.Info("Creating collection", "collection", collectionName)
	err = c.qObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}

// Upsert writes one chunk. The chunk id is kept verbatim in the payload;
// the qdrant point id is its UUIDv5 so reruns overwrite the same point.
func (c *Client) Upsert(ctx context.Context, collectionName, id string, vector []float32, document string, payload map[string]any) error {
	valueMap := map[string]any{
		"content":  document,
		"chunk_id": id,
	}
	for k, v := range payload {
		valueMap[k] = v
	}

	_, err := c.qObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(chunker.PointID(id)),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(valueMap),
			},
		},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (c *Client) Query(ctx context.Context, collectionName string, vector []float32, k int) ([]vectorstore.Hit, error) {
	result, err := c.qObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collectionName, err)
	}

	hits := make([]vectorstore.Hit, 0, len(result))
	for _, point := range result {
		payload := make(map[string]string, len(point.Payload))
		for key, value := range point.Payload {
			if s := value.GetStringValue(); s != "" {
				payload[key] = s
			}
		}
		hits = append(hits, vectorstore.Hit{
			Document: point.Payload["content"].GetStringValue(),
			Payload:  payload,
			Score:    point.Score,
		})
	}
	return hits, nil
}
