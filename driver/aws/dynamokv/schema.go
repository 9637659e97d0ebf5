package dynamokv

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/psikit/driver/aws/internal/dynamox"
)

const (
	// keyspaceAttr is the name of the attribute that stores the keyspace name
	// on each item. Together with [keyAttr], it forms the primary key of the
	// table.
	keyspaceAttr = "S"

	// keyAttr is the name of the attribute that stores the key on each item.
	keyAttr = "K"

	// valueAttr is the name of the attribute that stores the value on each
	// item.
	valueAttr = "V"

	// revisionAttr is the name of the attribute that stores the revision of
	// each item's value.
	revisionAttr = "R"
)

// CreateTable creates a DynamoDB table for use with [NewStore], if it does not
// already exist.
func CreateTable(
	ctx context.Context,
	client *dynamodb.Client,
	table string,
	hook dynamox.RequestHook,
) error {
	return dynamox.CreateTableIfNotExists(
		ctx,
		client,
		table,
		hook,
		dynamox.KeyAttr{
			Name:    keyspaceAttr,
			Type:    types.ScalarAttributeTypeS,
			KeyType: types.KeyTypeHash,
		},
		dynamox.KeyAttr{
			Name:    keyAttr,
			Type:    types.ScalarAttributeTypeB,
			KeyType: types.KeyTypeRange,
		},
	)
}
