package dynamokv

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dogmatiq/psikit/driver/aws/internal/dynamox"
	"github.com/dogmatiq/psikit/internal/syncx"
	"github.com/dogmatiq/psikit/kv"
)

// store is an implementation of [kv.Store] that persists to a DynamoDB table.
type store struct {
	Client    *dynamodb.Client
	Table     string
	OnRequest dynamox.RequestHook

	createTableOnce syncx.SucceedOnce
}

// NewStore returns a new [kv.Store] that uses the given DynamoDB client to
// store key/value pairs in the given table.
//
// The table is created when the first keyspace is opened, if it does not
// already exist.
func NewStore(
	client *dynamodb.Client,
	table string,
	options ...Option,
) kv.Store {
	if table == "" {
		panic("table name must not be empty")
	}

	s := &store{
		Client: client,
		Table:  table,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Option is a functional option that changes the behavior of [NewStore].
type Option func(*store)

// WithRequestHook is an [Option] that configures fn as a pre-request hook.
//
// Before each DynamoDB API request, fn is passed a pointer to the input struct,
// e.g. [dynamodb.GetItemInput], which it may modify in-place. It may be called
// with any DynamoDB request type. The types of requests used may change in any
// version without notice.
//
// Any functions returned by fn will be applied to the request's options before
// the request is sent.
func WithRequestHook(fn func(any) []func(*dynamodb.Options)) Option {
	return func(s *store) {
		s.OnRequest = fn
	}
}

// Open returns the keyspace with the given name.
func (s *store) Open(ctx context.Context, name string) (kv.Keyspace, error) {
	if err := s.createTableOnce.Do(ctx, s.createTable); err != nil {
		return nil, err
	}

	return &keyspace{
		name:  name,
		table: s.Table,
		store: s,
	}, nil
}

func (s *store) createTable(ctx context.Context) error {
	return CreateTable(ctx, s.Client, s.Table, s.OnRequest)
}
