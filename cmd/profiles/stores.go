package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/profiles/internal/denormalize"
	"github.com/jmerrifield20/profiles/internal/features"
	"github.com/jmerrifield20/profiles/internal/follow"
	"github.com/jmerrifield20/profiles/internal/identity"
	"github.com/jmerrifield20/profiles/internal/mongodb"
	"github.com/jmerrifield20/profiles/internal/platformadmin"
	"github.com/jmerrifield20/profiles/internal/userconfig"
	"github.com/jmerrifield20/profiles/internal/users"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// stores holds the open connections and the components built on them.
type stores struct {
	db     *pgxpool.Pool
	mongo  *mongo.Client
	redis  *redis.Client // nil when redis.url is unset
	users  *users.UserRepository
	follow *follow.Repository
	admins *platformadmin.Repository
	feats  *features.MongoStore
	cached *features.CachedStore // nil when features.cache_ttl is 0
	config *userconfig.Config
}

func openStores(ctx context.Context) (*stores, error) {
	s := &stores{}

	db, err := pgxpool.New(ctx, viper.GetString("database.url"))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s.db = db
	logger.Info("connected to postgres")

	client, mdb, err := mongodb.Connect(ctx, viper.GetString("mongo.uri"), viper.GetString("mongo.database"))
	if err != nil {
		s.close()
		return nil, err
	}
	s.mongo = client
	logger.Info("connected to mongodb", zap.String("database", mdb.Name()))

	s.users = users.NewUserRepository(db)
	s.follow = follow.NewRepository(db)
	s.admins = platformadmin.NewRepository(db)
	s.feats = features.NewMongoStore(mdb)
	if ttl := viper.GetDuration("features.cache_ttl"); ttl > 0 {
		s.cached = features.NewCachedStore(s.feats, ttl)
	}

	configBackend := userconfig.NewMongoBackend(mdb)
	if err := s.feats.EnsureIndexes(ctx); err != nil {
		s.close()
		return nil, err
	}
	if err := configBackend.EnsureIndexes(ctx); err != nil {
		s.close()
		return nil, err
	}

	var backend userconfig.Backend = configBackend
	if url := viper.GetString("redis.url"); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		s.redis = redis.NewClient(opts)
		if err := s.redis.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, configuration cache will fall through", zap.Error(err))
		}
		backend = userconfig.NewCachedBackend(configBackend, s.redis, viper.GetDuration("userconfig.cache_ttl"), logger)
		logger.Info("configuration cache enabled", zap.Duration("ttl", viper.GetDuration("userconfig.cache_ttl")))
	}
	s.config = userconfig.New(backend)

	return s, nil
}

func (s *stores) denormalizer() *denormalize.Denormalizer {
	if s.cached != nil {
		return denormalize.New(s.follow, s.cached, s.config, logger)
	}
	return denormalize.New(s.follow, s.feats, s.config, logger)
}

func (s *stores) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.mongo != nil {
		_ = s.mongo.Disconnect(context.Background())
	}
	if s.db != nil {
		s.db.Close()
	}
}

func tokenIssuer() (*identity.UserTokenIssuer, error) {
	return identity.NewUserTokenIssuer(
		[]byte(viper.GetString("auth.jwt_secret")),
		viper.GetString("auth.issuer"),
		viper.GetDuration("auth.token_ttl"),
	)
}
