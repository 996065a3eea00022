package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

const notFoundSentinel = "notfound"

// CachedProductRepository is a cache-aside decorator over the real product
// repository. Redis failures degrade to the database, never to an error.
type CachedProductRepository struct {
	realRepo repository.ProductRepository
	redis    *redis.Client
	ttl      time.Duration
}

func NewCachedProductRepository(realRepo repository.ProductRepository, redis *redis.Client) *CachedProductRepository {
	return &CachedProductRepository{
		realRepo: realRepo,
		redis:    redis,
		ttl:      5 * time.Minute,
	}
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	key := fmt.Sprintf("product:%d", id)

	data, err := c.redis.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		if string(data) == notFoundSentinel {
			return nil, repository.ErrNotFound
		}

		var product models.Product
		if err := json.Unmarshal(data, &product); err != nil {
			log.Printf("failed to unmarshal cached product (continuing with DB): %v", err)
			break
		}
		return &product, nil

	case errors.Is(err, redis.Nil):

	default:
		log.Printf("redis error (continuing with DB): %v", err)
	}

	product, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundSentinel, 1*time.Minute).Err(); setErr != nil {
				log.Printf("failed to cache notfound: %v", setErr)
			}
		}
		return nil, err
	}

	jsonData, err := json.Marshal(product)
	if err != nil {
		log.Printf("failed to marshal product: %v", err)
		return product, nil
	}

	if err := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
		log.Printf("failed to cache product: %v", err)
	}

	return product, nil
}

func (c *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	key := "products:all"

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var products []models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("redis error (continuing with DB): %v", err)
	}

	products, err := c.realRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if jsonData, err := json.Marshal(products); err != nil {
		log.Printf("failed to marshal products: %v", err)
	} else {
		c.redis.Set(ctx, key, jsonData, c.ttl)
	}

	return products, nil
}

func (c *CachedProductRepository) GetByCategory(ctx context.Context, category string) ([]models.Product, error) {
	key := fmt.Sprintf("products:category:%s", category)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var products []models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("redis error (continuing with DB): %v", err)
	}

	products, err := c.realRepo.GetByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	if jsonData, err := json.Marshal(products); err != nil {
		log.Printf("failed to marshal products: %v", err)
	} else {
		c.redis.Set(ctx, key, jsonData, c.ttl)
	}

	return products, nil
}

func (c *CachedProductRepository) Create(ctx context.Context, product *models.Product) error {
	c.invalidateListCaches(ctx, product.Category)
	return c.realRepo.Create(ctx, product)
}

func (c *CachedProductRepository) Update(ctx context.Context, product *models.Product) error {
	oldProduct, err := c.realRepo.GetByID(ctx, product.ID)
	if err != nil {
		c.InvalidateProduct(ctx, product.ID, "")
		return err
	}
	c.InvalidateProduct(ctx, product.ID, oldProduct.Category)

	if oldProduct.Category != product.Category {
		c.invalidateListCaches(ctx, product.Category)
	}

	return c.realRepo.Update(ctx, product)
}

func (c *CachedProductRepository) Delete(ctx context.Context, id int) error {
	product, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		c.InvalidateProduct(ctx, id, "")
		return err
	}

	c.InvalidateProduct(ctx, id, product.Category)

	return c.realRepo.Delete(ctx, id)
}

func (c *CachedProductRepository) AdjustStock(ctx context.Context, id int, change int, movementType string) error {
	if err := c.realRepo.AdjustStock(ctx, id, change, movementType); err != nil {
		return err
	}
	// Stock changed on disk; drop any cached copy so reads see the new value.
	c.InvalidateProduct(ctx, id, "")
	return nil
}

// InvalidateProduct drops the cached entry for one product plus the list
// caches. Order creation calls this after decrementing stock.
func (c *CachedProductRepository) InvalidateProduct(ctx context.Context, productID int, category string) {
	productKey := fmt.Sprintf("product:%d", productID)

	if err := c.redis.Del(ctx, productKey).Err(); err != nil {
		log.Printf("failed to delete product cache %s: %v", productKey, err)
	}

	c.invalidateListCaches(ctx, category)
}

func (c *CachedProductRepository) invalidateListCaches(ctx context.Context, category string) {
	if err := c.redis.Del(ctx, "products:all").Err(); err != nil {
		log.Printf("failed to delete products:all cache: %v", err)
	}

	if category != "" {
		categoryKey := fmt.Sprintf("products:category:%s", category)
		if err := c.redis.Del(ctx, categoryKey).Err(); err != nil {
			log.Printf("failed to delete category cache %s: %v", categoryKey, err)
		}
	}
}
