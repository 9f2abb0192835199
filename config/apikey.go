package config

/*
 * The quote API key normally comes from the API_KEY variable. When REDIS_URL
 * is set, the key stored in redis takes precedence so it can be rotated
 * without restarting the server.
 */

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type contextKey string

var contextKeyAPIKey = contextKey("quote-api-key")

// KeyStore is satisfied by RedisClient.
type KeyStore interface {
	GetVal(ctx context.Context, key string) (string, error)
	SetVal(ctx context.Context, key string, val string) error
}

func SetAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, contextKeyAPIKey, key)
}

func GetAPIKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(contextKeyAPIKey).(string)
	return key, ok
}

// ResolveAPIKey returns the key from store when one is configured, falling
// back to the key from the environment. An empty key is not an error: the
// request goes out and the quote API decides.
func ResolveAPIKey(ctx context.Context, s Settings, store KeyStore) string {
	if store == nil {
		return s.APIKey
	}

	val, err := store.GetVal(ctx, s.APIKeyRedisKey)
	if err != nil || val == "" {
		log.WithField("redis_key", s.APIKeyRedisKey).Warnf("ResolveAPIKey: falling back to API_KEY: %v", keyErr(err))
		return s.APIKey
	}

	return val
}

// StoreAPIKey writes key to the store under the configured redis key, where
// ResolveAPIKey picks it up on the next fetch.
func StoreAPIKey(ctx context.Context, s Settings, store KeyStore, key string) error {
	if store == nil {
		return fmt.Errorf("StoreAPIKey: REDIS_URL is not set")
	}
	if key == "" {
		return fmt.Errorf("StoreAPIKey: empty key")
	}
	if err := store.SetVal(ctx, s.APIKeyRedisKey, key); err != nil {
		return fmt.Errorf("StoreAPIKey: failed to write %s: %w", s.APIKeyRedisKey, err)
	}
	return nil
}

func keyErr(err error) error {
	if err == nil {
		return fmt.Errorf("empty value")
	}
	return err
}
