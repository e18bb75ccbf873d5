package health

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/config"
	"github.com/hellofresh/health-go/v5"
	httpCheck "github.com/hellofresh/health-go/v5/checks/http"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
	"github.com/redis/go-redis/v9"
)

type Endpoints struct {
	// DB is nil when carts are kept in memory.
	DB          *sql.DB
	RedisClient *redis.Client
}

func NewHealthHandler(cfg *config.Config, endpoints *Endpoints) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		},
		{
			// the storefront can still serve carts from its own stores
			Name:      "storeapi",
			Timeout:   cfg.StoreAPI.Timeout,
			SkipOnErr: true,
			Check: httpCheck.New(httpCheck.Config{
				URL:            strings.TrimRight(cfg.StoreAPI.BaseURL, "/") + cfg.StoreAPI.HealthPath,
				RequestTimeout: cfg.StoreAPI.Timeout,
			}),
		},
	}

	if endpoints.DB != nil {
		checks = append(checks, health.Config{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: func(ctx context.Context) error {
				if err := endpoints.DB.PingContext(ctx); err != nil {
					return fmt.Errorf("postgres ping failed: %w", err)
				}
				return nil
			},
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "ebike-storefront",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}
