package repository

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wrongjunior/eventboard/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open создаёт репозиторий по настройкам хранилища. Возвращаемый io.Closer
// нужно закрыть при остановке.
func Open(cfg config.StoreConfig, awsCfg aws.Config) (EventRepository, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sql.Open("sqlite3", cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		repo := NewSQLiteRepository(db, cfg.TableName)
		if err := repo.Init(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, db, nil

	case config.DriverDynamoDB:
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
		return NewDynamoDBRepository(client, cfg.TableName), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// LoadAWSConfig загружает стандартную цепочку учётных данных AWS.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
