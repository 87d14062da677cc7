package money

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestSum_IsExact(t *testing.T) {
	got := Sum(MustParse("0.10"), MustParse("0.20"), MustParse("100"))
	if !got.Equal(MustParse("100.30")) {
		t.Fatalf("expected 100.30, got %s", got)
	}
}

func TestDivRound(t *testing.T) {
	if got := MustParse("100").DivRound(3, 2); !got.Equal(MustParse("33.33")) {
		t.Fatalf("expected 33.33, got %s", got)
	}
	if got := MustParse("100").DivRound(0, 2); !got.Equal(Zero) {
		t.Fatalf("expected zero for n=0, got %s", got)
	}
}

func TestJSON_RendersNumber(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Amount `json:"total"`
	}{Total: MustParse("150.5")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"total":150.5}` {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestDynamoDB_NumberAndLegacyString(t *testing.T) {
	type rec struct {
		Price Amount `dynamodbav:"price"`
	}
	item, err := attributevalue.MarshalMap(rec{Price: MustParse("99.99")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	n, ok := item["price"].(*types.AttributeValueMemberN)
	if !ok || n.Value != "99.99" {
		t.Fatalf("expected number attribute, got %#v", item["price"])
	}

	var out rec
	legacy := map[string]types.AttributeValue{"price": &types.AttributeValueMemberS{Value: "12.5"}}
	if err := attributevalue.UnmarshalMap(legacy, &out); err != nil {
		t.Fatalf("unmarshal legacy: %v", err)
	}
	if !out.Price.Equal(MustParse("12.5")) {
		t.Fatalf("expected 12.5, got %s", out.Price)
	}
}
