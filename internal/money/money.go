// Package money holds exact decimal amounts persisted as DynamoDB numbers and rendered as
// JSON numbers.
package money

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

type Amount struct {
	decimal.Decimal
}

var Zero = Amount{decimal.Zero}

func New(d decimal.Decimal) Amount { return Amount{d} }

func FromInt(v int64) Amount { return Amount{decimal.NewFromInt(v)} }

func MustParse(s string) Amount { return Amount{decimal.RequireFromString(s)} }

func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{d}, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{a.Decimal.Add(b.Decimal)} }

// DivRound divides by n and rounds to places; n <= 0 yields zero.
func (a Amount) DivRound(n int64, places int32) Amount {
	if n <= 0 {
		return Zero
	}
	return Amount{a.Decimal.Div(decimal.NewFromInt(n)).Round(places)}
}

func (a Amount) Equal(b Amount) bool { return a.Decimal.Equal(b.Decimal) }

// Sum adds amounts exactly.
func Sum(amounts ...Amount) Amount {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Decimal)
	}
	return Amount{total}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

func (a Amount) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: a.Decimal.String()}, nil
}

func (a *Amount) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		// legacy records stored prices as strings
		raw = v.Value
	case *types.AttributeValueMemberNULL:
		a.Decimal = decimal.Zero
		return nil
	default:
		return fmt.Errorf("unsupported attribute value %T for amount", av)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", raw, err)
	}
	a.Decimal = d
	return nil
}
