package main

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-templater/internal/config"
	"github.com/aescanero/dago-templater/internal/eval/loader"
	"github.com/aescanero/dago-templater/internal/eval/sandbox"
	"github.com/aescanero/dago-templater/internal/eval/template"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// newLoader builds the template loader selected by TEMPLATE_SOURCE. Redis
// templates fall back to the filesystem search path. The returned function
// releases the loader.
func newLoader(cfg *config.Config, logger *zap.Logger) (loader.Loader, func(), error) {
	fsLoader := loader.NewFSLoader(appFs, cfg.SearchPath...)
	if cfg.Source != config.SourceRedis {
		logger.Debug("loading templates from filesystem", zap.Strings("search_path", cfg.SearchPath))
		return fsLoader, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisTimeout)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", zap.Error(err))
		}
	}
	chain := loader.ChainLoader{
		loader.NewRedisLoader(redisClient, cfg.RedisPrefix, cfg.RedisTimeout),
		fsLoader,
	}
	return chain, closeFn, nil
}

// newEnvironment builds the render environment from configuration
func newEnvironment(cfg *config.Config, l loader.Loader) (*template.Environment, error) {
	d, err := template.ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	opts := template.Options{
		Mode:      template.ModeString,
		Dialect:   d,
		Loader:    l,
		CacheSize: cfg.CacheSize,
	}
	if cfg.Native {
		opts.Mode = template.ModeNative
	}

	policy, err := sandbox.Parse(cfg.AttributePolicyLanguage, cfg.AttributePolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTRIBUTE_POLICY: %w", err)
	}
	opts.Policy = policy

	env, err := template.NewEnvironment(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create template environment: %w", err)
	}
	return env, nil
}
