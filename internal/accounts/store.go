package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/artstore-orderflow/internal/aws"
)

// ErrVersionConflict means the cart changed since it was read.
var ErrVersionConflict = errors.New("cart version conflict")

// Store encapsulates operations on the accounts table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new accounts Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// TableName is the accounts table this store writes to.
func (s *Store) TableName() string { return s.tableName }

// Get fetches an account by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, accountID string) (*Account, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.key(accountID),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	a := rec.toAccount()
	return &a, nil
}

// ListByRole scans for accounts with the given role.
func (s *Store) ListByRole(ctx context.Context, role Role) ([]Account, error) {
	input := &dyn.ScanInput{
		TableName:                &s.tableName,
		FilterExpression:         awsString("#r = :role"),
		ExpressionAttributeNames: map[string]string{"#r": "role"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":role": &types.AttributeValueMemberS{Value: string(role)},
		},
	}
	var out []Account
	for {
		page, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan accounts: %w", err)
		}
		for _, item := range page.Items {
			var rec record
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal account: %w", err)
			}
			out = append(out, rec.toAccount())
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

// SaveCart replaces the cart if its version still equals expectedVersion.
// Returns ErrVersionConflict if another write got there first.
func (s *Store) SaveCart(ctx context.Context, accountID string, lines []CartLine, expectedVersion int64) error {
	input, err := s.cartUpdate(accountID, lines, expectedVersion)
	if err != nil {
		return err
	}
	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 input.TableName,
		Key:                       input.Key,
		UpdateExpression:          input.UpdateExpression,
		ConditionExpression:       input.ConditionExpression,
		ExpressionAttributeValues: input.ExpressionAttributeValues,
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrVersionConflict
		}
		return fmt.Errorf("update cart: %w", err)
	}
	return nil
}

// ClearCartTransactItem builds the transactional update that empties the cart when its
// version still equals expectedVersion.
func (s *Store) ClearCartTransactItem(accountID string, expectedVersion int64) (types.TransactWriteItem, error) {
	u, err := s.cartUpdate(accountID, nil, expectedVersion)
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	return types.TransactWriteItem{Update: u}, nil
}

func (s *Store) cartUpdate(accountID string, lines []CartLine, expectedVersion int64) (*types.Update, error) {
	cart, err := attributevalue.MarshalList(cartRecords(lines))
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	cond := "attribute_exists(account_id) AND cart_version = :expected"
	if expectedVersion == 0 {
		cond = "attribute_exists(account_id) AND (attribute_not_exists(cart_version) OR cart_version = :expected)"
	}
	return &types.Update{
		TableName:           &s.tableName,
		Key:                 s.key(accountID),
		UpdateExpression:    awsString("SET cart = :cart, cart_version = :next, updated_at = :ua"),
		ConditionExpression: awsString(cond),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cart":     &types.AttributeValueMemberL{Value: cart},
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
			":next":     &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion+1, 10)},
			":ua":       &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)},
		},
	}, nil
}

func (s *Store) key(accountID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"account_id": &types.AttributeValueMemberS{Value: accountID},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
