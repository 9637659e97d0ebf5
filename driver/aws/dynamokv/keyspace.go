package dynamokv

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/psikit/driver/aws/internal/dynamox"
	"github.com/dogmatiq/psikit/internal/errorx"
	"github.com/dogmatiq/psikit/kv"
)

// keyspace is an implementation of [kv.Keyspace] that stores its pairs as items
// in a DynamoDB table.
type keyspace struct {
	name  string
	table string
	store *store
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) (v []byte, r kv.Revision, err error) {
	defer errorx.Wrap(&err, "unable to get key %q from keyspace %q", k, ks.name)

	if ks.store == nil {
		panic("keyspace is closed")
	}

	out, err := dynamox.Do(
		ctx,
		ks.store.Client.GetItem,
		ks.store.OnRequest,
		&dynamodb.GetItemInput{
			TableName:      aws.String(ks.table),
			Key:            ks.key(k),
			ConsistentRead: aws.Bool(true),
			ProjectionExpression: aws.String(
				"#V, #R",
			),
			ExpressionAttributeNames: map[string]string{
				"#V": valueAttr,
				"#R": revisionAttr,
			},
		},
	)
	if err != nil {
		return nil, 0, err
	}

	if out.Item == nil {
		return nil, 0, nil
	}

	value, err := dynamox.AttrAs[*types.AttributeValueMemberB](out.Item, valueAttr)
	if err != nil {
		return nil, 0, err
	}

	rev, err := dynamox.Uint64Attr(out.Item, revisionAttr)
	if err != nil {
		return nil, 0, err
	}

	return value.Value, kv.Revision(rev), nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte, r kv.Revision) (err error) {
	defer errorx.Wrap(&err, "unable to set key %q in keyspace %q", k, ks.name)

	if ks.store == nil {
		panic("keyspace is closed")
	}

	if len(v) == 0 {
		panic("value must not be empty")
	}

	item := ks.key(k)
	item[valueAttr] = &types.AttributeValueMemberB{Value: v}
	item[revisionAttr] = dynamox.Uint64(uint64(r + 1))

	in := &dynamodb.PutItemInput{
		TableName: aws.String(ks.table),
		Item:      item,
		ExpressionAttributeNames: map[string]string{
			"#R": revisionAttr,
		},
	}

	if r == 0 {
		in.ConditionExpression = aws.String(`attribute_not_exists(#R)`)
	} else {
		in.ConditionExpression = aws.String(`#R = :R`)
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":R": dynamox.Uint64(uint64(r)),
		}
	}

	if _, err := dynamox.Do(ctx, ks.store.Client.PutItem, ks.store.OnRequest, in); err != nil {
		if errors.As(err, new(*types.ConditionalCheckFailedException)) {
			return kv.ConflictError{
				Keyspace: ks.name,
				Key:      k,
				Revision: r,
			}
		}
		return err
	}

	return nil
}

func (ks *keyspace) Close() error {
	if ks.store == nil {
		return fmt.Errorf("keyspace %q is already closed", ks.name)
	}

	ks.store = nil

	return nil
}

// key returns the primary key attributes of the item that stores k.
func (ks *keyspace) key(k []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyspaceAttr: &types.AttributeValueMemberS{Value: ks.name},
		keyAttr:      &types.AttributeValueMemberB{Value: k},
	}
}
