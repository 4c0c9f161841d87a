package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"homestock/internal/models"
)

type CacheService interface {
	// Item caching
	GetItem(ctx context.Context, householdID, itemID uuid.UUID) (*models.Item, error)
	SetItem(ctx context.Context, householdID uuid.UUID, item *models.Item, ttl time.Duration) error
	DeleteItem(ctx context.Context, householdID, itemID uuid.UUID) error

	// Cabinet caching
	GetCabinet(ctx context.Context, householdID, cabinetID uuid.UUID) (*models.Cabinet, error)
	SetCabinet(ctx context.Context, householdID uuid.UUID, cabinet *models.Cabinet, ttl time.Duration) error
	DeleteCabinet(ctx context.Context, householdID, cabinetID uuid.UUID) error

	// Category tree caching: whole tree per household, invalidated as one
	GetCategoryTree(ctx context.Context, householdID uuid.UUID) ([]*models.Category, error)
	SetCategoryTree(ctx context.Context, householdID uuid.UUID, tree []*models.Category, ttl time.Duration) error
	DeleteCategoryTree(ctx context.Context, householdID uuid.UUID) error

	// Cache invalidation
	InvalidateHouseholdCache(ctx context.Context, householdID uuid.UUID) error

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetItem(ctx context.Context, householdID, itemID uuid.UUID) (*models.Item, error) {
	key := fmt.Sprintf("homestock:item:%s:%s", householdID.String(), itemID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var item models.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *redisCacheService) SetItem(ctx context.Context, householdID uuid.UUID, item *models.Item, ttl time.Duration) error {
	key := fmt.Sprintf("homestock:item:%s:%s", householdID.String(), item.ID.String())
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteItem(ctx context.Context, householdID, itemID uuid.UUID) error {
	key := fmt.Sprintf("homestock:item:%s:%s", householdID.String(), itemID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetCabinet(ctx context.Context, householdID, cabinetID uuid.UUID) (*models.Cabinet, error) {
	key := fmt.Sprintf("homestock:cabinet:%s:%s", householdID.String(), cabinetID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var cabinet models.Cabinet
	if err := json.Unmarshal(data, &cabinet); err != nil {
		return nil, err
	}
	return &cabinet, nil
}

func (r *redisCacheService) SetCabinet(ctx context.Context, householdID uuid.UUID, cabinet *models.Cabinet, ttl time.Duration) error {
	key := fmt.Sprintf("homestock:cabinet:%s:%s", householdID.String(), cabinet.ID.String())
	data, err := json.Marshal(cabinet)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteCabinet(ctx context.Context, householdID, cabinetID uuid.UUID) error {
	key := fmt.Sprintf("homestock:cabinet:%s:%s", householdID.String(), cabinetID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetCategoryTree(ctx context.Context, householdID uuid.UUID) ([]*models.Category, error) {
	key := fmt.Sprintf("homestock:categorytree:%s", householdID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var tree []*models.Category
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func (r *redisCacheService) SetCategoryTree(ctx context.Context, householdID uuid.UUID, tree []*models.Category, ttl time.Duration) error {
	key := fmt.Sprintf("homestock:categorytree:%s", householdID.String())
	data, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteCategoryTree(ctx context.Context, householdID uuid.UUID) error {
	key := fmt.Sprintf("homestock:categorytree:%s", householdID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) InvalidateHouseholdCache(ctx context.Context, householdID uuid.UUID) error {
	pattern := fmt.Sprintf("homestock:*%s*", householdID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
