package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/database"
	"atelier_back_end/internal/models"
)

const ProductCacheTTL = 10 * time.Minute

func productKey(id gocql.UUID) string {
	return "product:" + id.String()
}

// GetProduct récupère un produit (variantes incluses) depuis Redis.
// Le cache n'est qu'optimiste : la garde atomique du Stock Ledger reste
// l'autorité, un stock un peu périmé ici ne peut pas provoquer de survente.
func GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, bool) {
	data, err := database.Redis.Get(ctx, productKey(id)).Result()
	if err != nil {
		return nil, false
	}

	var p models.Product
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, false
	}
	return &p, true
}

// SetProduct met un produit en cache
func SetProduct(ctx context.Context, p *models.Product) {
	jsonData, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := database.Redis.Set(ctx, productKey(p.ID), jsonData, ProductCacheTTL).Err(); err != nil {
		log.Printf("⚠️ Erreur mise en cache produit %s: %v", p.ID, err)
	}
}

// InvalidateProduct purge le cache après une mutation de stock
func InvalidateProduct(ctx context.Context, id gocql.UUID) {
	if err := database.Redis.Del(ctx, productKey(id)).Err(); err != nil {
		log.Printf("⚠️ Erreur invalidation cache produit %s: %v", id, err)
	}
}
