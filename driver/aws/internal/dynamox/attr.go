package dynamox

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// AttrAs fetches an attribute of type T from an item.
//
// It returns an error if the item is absent or a different type.
func AttrAs[T types.AttributeValue](
	item map[string]types.AttributeValue,
	name string,
) (v T, err error) {
	a, ok := item[name]
	if !ok {
		return v, fmt.Errorf("item is corrupt: missing %q attribute", name)
	}

	v, ok = a.(T)
	if !ok {
		return v, fmt.Errorf(
			"item is corrupt: %q attribute should be %s not %s",
			name,
			reflect.TypeOf(v).Elem().Name(),
			reflect.TypeOf(a).Elem().Name(),
		)
	}

	return v, nil
}

// Uint64Attr fetches a numeric attribute from an item as a uint64.
func Uint64Attr(
	item map[string]types.AttributeValue,
	name string,
) (uint64, error) {
	a, err := AttrAs[*types.AttributeValueMemberN](item, name)
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseUint(a.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("item is corrupt: %q attribute is not a uint64: %w", name, err)
	}

	return n, nil
}

// Uint64 returns a numeric attribute value containing n.
func Uint64(n uint64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{
		Value: strconv.FormatUint(n, 10),
	}
}
