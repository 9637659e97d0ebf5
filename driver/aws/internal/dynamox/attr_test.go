package dynamox_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	. "github.com/dogmatiq/psikit/driver/aws/internal/dynamox"
)

func TestUint64Attr(t *testing.T) {
	t.Run("it parses a numeric attribute", func(t *testing.T) {
		item := map[string]types.AttributeValue{
			"R": Uint64(18446744073709551615),
		}

		n, err := Uint64Attr(item, "R")
		if err != nil {
			t.Fatal(err)
		}

		if n != 18446744073709551615 {
			t.Fatalf("unexpected value: got %d", n)
		}
	})

	cases := []struct {
		Desc string
		Item map[string]types.AttributeValue
	}{
		{"missing attribute", map[string]types.AttributeValue{}},
		{"wrong type", map[string]types.AttributeValue{"R": &types.AttributeValueMemberS{Value: "1"}}},
		{"negative number", map[string]types.AttributeValue{"R": &types.AttributeValueMemberN{Value: "-1"}}},
		{"fractional number", map[string]types.AttributeValue{"R": &types.AttributeValueMemberN{Value: "1.5"}}},
	}

	for _, c := range cases {
		t.Run("it returns an error for a "+c.Desc, func(t *testing.T) {
			if _, err := Uint64Attr(c.Item, "R"); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
