package dynamox

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// RequestHook is called with a pointer to the input of each DynamoDB request
// before it is sent. It may modify the input in-place, and returns options to
// apply to the request.
type RequestHook func(in any) []func(*dynamodb.Options)

// Do sends a DynamoDB request by calling op, which is typically a method of
// [dynamodb.Client], after passing its input to hook.
func Do[In, Out any](
	ctx context.Context,
	op func(context.Context, *In, ...func(*dynamodb.Options)) (Out, error),
	hook RequestHook,
	in *In,
) (Out, error) {
	if hook == nil {
		return op(ctx, in)
	}
	return op(ctx, in, hook(in)...)
}
