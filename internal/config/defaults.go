package config

import (
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/pagarme"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ServiceName:         "merchant-dashboard",
		Env:                 "dev",
		LogLevel:            "info",
		HTTPAddr:            ":8080",
		ShutdownTimeout:     10 * time.Second,
		Timezone:            "America/Sao_Paulo",
		PagarmeV1URL:        pagarme.DefaultV1URL,
		PagarmeV5URL:        pagarme.DefaultV5URL,
		ProviderTimeout:     10 * time.Second,
		PageSize:            1000,
		MaxPages:            1,
		CacheBackend:        CacheMemory,
		CacheTTL:            30 * time.Second,
		RedisAddr:           "localhost:6379",
		CheckoutStore:       StoreMemory,
		ProductAmount:       10000,
		ProductDescription:  "Produto Teste",
		ProductCode:         "PROD-001",
		StatementDescriptor: "Loja Test",
	}
}
