package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/artstore-orderflow/internal/aws"
)

// DynamoDB caps BatchGetItem at 100 keys per request.
const batchGetLimit = 100

const maxUnprocessedRounds = 5

// Store reads artworks from the artworks table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	backoff   time.Duration
}

// NewStore creates a catalog Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		backoff:   50 * time.Millisecond,
	}
}

// Get fetches a single artwork. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, artworkID string) (*Artwork, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"artwork_id": &types.AttributeValueMemberS{Value: artworkID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get artwork: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal artwork: %w", err)
	}
	a := rec.toArtwork()
	return &a, nil
}

// BatchGet resolves ids in one logical lookup. Missing artworks are simply absent from the
// result; the result follows the order of ids with duplicates removed.
func (s *Store) BatchGet(ctx context.Context, ids []string) ([]Artwork, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, nil
	}

	chunks := make([][]string, 0, len(unique)/batchGetLimit+1)
	for start := 0; start < len(unique); start += batchGetLimit {
		end := min(start+batchGetLimit, len(unique))
		chunks = append(chunks, unique[start:end])
	}

	found := make([]map[string]Artwork, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, chunk := range chunks {
		g.Go(func() error {
			m, err := s.batchGetChunk(gctx, chunk)
			if err != nil {
				return err
			}
			found[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Artwork, 0, len(unique))
	for i, chunk := range chunks {
		for _, id := range chunk {
			if a, ok := found[i][id]; ok {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (s *Store) batchGetChunk(ctx context.Context, ids []string) (map[string]Artwork, error) {
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, map[string]types.AttributeValue{
			"artwork_id": &types.AttributeValueMemberS{Value: id},
		})
	}
	request := map[string]types.KeysAndAttributes{
		s.tableName: {Keys: keys},
	}

	result := make(map[string]Artwork, len(ids))
	for round := 0; len(request) > 0; round++ {
		if round >= maxUnprocessedRounds {
			return nil, fmt.Errorf("batch get artworks: unprocessed keys after %d rounds", round)
		}
		if round > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.backoff * time.Duration(round)):
			}
		}

		out, err := s.client.BatchGetItem(ctx, &dyn.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return nil, fmt.Errorf("batch get artworks: %w", err)
		}
		for _, item := range out.Responses[s.tableName] {
			var rec record
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal artwork: %w", err)
			}
			result[rec.ArtworkID] = rec.toArtwork()
		}
		request = out.UnprocessedKeys
	}
	return result, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
