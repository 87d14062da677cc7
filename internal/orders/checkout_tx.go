package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/artstore-orderflow/internal/accounts"
	"github.com/imrishuroy/artstore-orderflow/internal/aws"
	"github.com/imrishuroy/artstore-orderflow/internal/idempotency"
)

var (
	// ErrDuplicateCheckout means an order already exists for the same cart snapshot.
	ErrDuplicateCheckout = errors.New("checkout already recorded for this cart")
	// ErrCartChanged means the cart moved past the snapshot the order was built from.
	ErrCartChanged = errors.New("cart changed during checkout")
)

// Positions of the writes inside the checkout transaction.
const (
	txOrderPut = iota
	txCheckoutKeyPut
	txCartClear
)

// CheckoutWriter persists a new pending order, its checkout key and the cleared cart in a
// single DynamoDB transaction.
type CheckoutWriter struct {
	client   aws.DynamoDBAPI
	orders   *Store
	accounts *accounts.Store
	keys     *idempotency.Store
}

func NewCheckoutWriter(client aws.DynamoDBAPI, orders *Store, accts *accounts.Store, keys *idempotency.Store) *CheckoutWriter {
	return &CheckoutWriter{client: client, orders: orders, accounts: accts, keys: keys}
}

// CreatePending writes order (which must carry CheckoutKey) and empties the account cart
// if it is still at cartVersion. Returns ErrDuplicateCheckout or ErrCartChanged when the
// corresponding guard cancels the transaction.
func (w *CheckoutWriter) CreatePending(ctx context.Context, order Order, cartVersion int64) error {
	if order.CheckoutKey == "" {
		return fmt.Errorf("create pending order: checkout key is empty")
	}
	order.UpdatedAt = w.orders.nowFunc().UTC()

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}
	keyPut, err := w.keys.PutDoneTransactItem(order.CheckoutKey, order.OrderID)
	if err != nil {
		return err
	}
	cartClear, err := w.accounts.ClearCartTransactItem(order.AccountID, cartVersion)
	if err != nil {
		return err
	}

	transactItems := []types.TransactWriteItem{
		txOrderPut: {
			Put: &types.Put{
				TableName:           &w.orders.tableName,
				Item:                orderMap,
				ConditionExpression: awsString("attribute_not_exists(order_id)"),
			},
		},
		txCheckoutKeyPut: keyPut,
		txCartClear:      cartClear,
	}

	_, err = w.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems:      transactItems,
		// SDK retries of this call reuse the token; a concurrent checkout of the same cart
		// carries a different order id and is stopped by the key guard instead.
		ClientRequestToken: awsString(order.OrderID),
	})
	if err == nil {
		return nil
	}

	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return fmt.Errorf("transact write: %w", err)
	}
	failed := func(i int) bool {
		return i < len(tce.CancellationReasons) &&
			tce.CancellationReasons[i].Code != nil &&
			*tce.CancellationReasons[i].Code == "ConditionalCheckFailed"
	}
	switch {
	case failed(txCheckoutKeyPut):
		return ErrDuplicateCheckout
	case failed(txCartClear):
		return ErrCartChanged
	default:
		return fmt.Errorf("transaction canceled: %w", err)
	}
}
