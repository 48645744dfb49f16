// Package bootstrap connects the storage backends shared by the server and
// the command line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"askaway/internal/cache"
	"askaway/internal/config"
	"askaway/internal/database"
	"askaway/internal/repository"
	"askaway/internal/seed"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs SQL migrations or creates Mongo indexes.
	ApplySchema bool
	// SeedSample loads the sample dataset when the database is empty.
	SeedSample bool
}

// Runtime holds the connected backends. Exactly one of SQL and Mongo is set.
type Runtime struct {
	Config  *config.Config
	Repos   *repository.Repositories
	SQL     *gorm.DB
	Mongo   *mongo.Database
	Redis   *redis.Client
	Cleaner seed.Cleaner

	mongoClient *mongo.Client
}

// InitRuntime connects to the database selected by DB_DRIVER and to Redis.
// Redis is optional: when unreachable the runtime carries a nil client.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	if cfg.SQLBacked() {
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if opts.ApplySchema {
			if err := database.ApplySchema(ctx, db, cfg); err != nil {
				_ = database.Close(db)
				return nil, fmt.Errorf("apply schema: %w", err)
			}
		}
		rt.SQL = db
		rt.Repos = repository.NewGormRepositories(db)
		rt.Cleaner = seed.GormCleaner(db)
	} else {
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if opts.ApplySchema {
			if err := database.EnsureMongoIndexes(ctx, db); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, fmt.Errorf("ensure indexes: %w", err)
			}
		}
		rt.mongoClient = client
		rt.Mongo = db
		rt.Repos = repository.NewMongoRepositories(db)
		rt.Cleaner = seed.MongoCleaner(db)
	}

	cache.InitRedis(cfg.RedisURL)
	rt.Redis = cache.GetClient()

	if opts.SeedSample {
		data, err := seed.LoadSample()
		if err != nil {
			return nil, err
		}
		if _, err := seed.New(rt.Repos, nil).Sample(ctx, data); err != nil {
			return nil, fmt.Errorf("failed to seed sample data: %w", err)
		}
	}

	return rt, nil
}

// PingDatabase checks the primary database.
func (r *Runtime) PingDatabase(ctx context.Context) error {
	if r.SQL != nil {
		return database.Ping(ctx, r.SQL)
	}
	if r.mongoClient != nil {
		return r.mongoClient.Ping(ctx, readpref.Primary())
	}
	return errors.New("no database configured")
}

// Close releases the database and Redis connections.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.SQL != nil {
		errs = append(errs, database.Close(r.SQL))
	}
	if r.mongoClient != nil {
		errs = append(errs, r.mongoClient.Disconnect(ctx))
	}
	errs = append(errs, cache.Close())
	return errors.Join(errs...)
}
