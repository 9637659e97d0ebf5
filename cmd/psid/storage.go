package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dogmatiq/psikit/adaptor/kvaggregate"
	"github.com/dogmatiq/psikit/aggregate"
	"github.com/dogmatiq/psikit/driver/aws/dynamokv"
	"github.com/dogmatiq/psikit/driver/memory/memoryaggregate"
	"github.com/dogmatiq/psikit/driver/redis/rediskv"
	"github.com/dogmatiq/psikit/driver/sql/postgres/pgkv"
	"github.com/dogmatiq/psikit/internal/config"
	"github.com/dogmatiq/psikit/kv"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"
)

// newStore returns the aggregate store for the configured storage driver, and
// a function that releases its resources.
func newStore(
	ctx context.Context,
	cfg config.Config,
	tel *providers,
) (aggregate.Store, func() error, error) {
	if cfg.Storage.Driver == config.MemoryDriver {
		var options []memoryaggregate.Option
		if ttl := cfg.Storage.Memory.RecordTTL; ttl != 0 {
			options = append(options, memoryaggregate.WithExpiry(ttl))
		}

		return memoryaggregate.NewStore(cfg.Threshold, options...), func() error { return nil }, nil
	}

	kvs, closeKV, err := newKVStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open %s storage: %w", cfg.Storage.Driver, err)
	}

	if p := cfg.Storage.KeyspacePrefix; p != "" {
		kvs = kv.WithNamePrefix(kvs, p)
	}

	kvs = kv.WithTelemetry(
		kvs,
		tel.TracerProvider,
		tel.MeterProvider,
		tel.LoggerProvider,
	)

	s, err := kvaggregate.NewStore(
		ctx,
		kvs,
		cfg.Threshold,
		kvaggregate.WithMaxAttempts(cfg.Storage.MaxAttempts),
	)
	if err != nil {
		return nil, nil, errors.Join(err, closeKV())
	}

	return s, func() error {
		return errors.Join(s.Close(), closeKV())
	}, nil
}

// newKVStore returns the key/value store for the configured storage driver.
func newKVStore(
	ctx context.Context,
	cfg config.StorageConfig,
) (kv.Store, func() error, error) {
	switch cfg.Driver {
	case config.PostgresDriver:
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}

		if err := pgkv.CreateSchema(ctx, db); err != nil {
			return nil, nil, errors.Join(err, db.Close())
		}

		return &pgkv.Store{DB: db}, db.Close, nil

	case config.DynamoDBDriver:
		var options []func(*awsconfig.LoadOptions) error
		if cfg.DynamoDB.Region != "" {
			options = append(options, awsconfig.WithRegion(cfg.DynamoDB.Region))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
		if err != nil {
			return nil, nil, err
		}

		client := dynamodb.NewFromConfig(
			awsCfg,
			func(opts *dynamodb.Options) {
				if cfg.DynamoDB.Endpoint != "" {
					opts.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
				}
			},
		)

		return dynamokv.NewStore(client, cfg.DynamoDB.Table), func() error { return nil }, nil

	case config.RedisDriver:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, errors.Join(err, client.Close())
		}

		return rediskv.NewStore(client), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("storage driver %q is not supported", cfg.Driver)
	}
}
