package repository

import (
	"context"
	"log"

	"github.com/gocql/gocql"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/cache"
	"atelier_back_end/internal/database"
	"atelier_back_end/internal/models"
)

// ScyllaCatalog lit les produits dans ks_products, avec cache Redis devant
type ScyllaCatalog struct{}

func NewScyllaCatalog() *ScyllaCatalog {
	return &ScyllaCatalog{}
}

func (r *ScyllaCatalog) GetProductsByIDs(ctx context.Context, ids []gocql.UUID) (map[gocql.UUID]models.Product, error) {
	out := make(map[gocql.UUID]models.Product, len(ids))

	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}

		// 1. Essayer le cache Redis
		if p, ok := cache.GetProduct(ctx, id); ok {
			out[id] = *p
			continue
		}

		// 2. Lire dans ScyllaDB
		p, err := r.fetchProduct(ctx, id)
		if err != nil {
			if err == gocql.ErrNotFound {
				continue // absent de la map → produit indisponible
			}
			return nil, apperrors.Persistence(err, "erreur lecture produit %s", id)
		}

		// 3. Charger les variantes si le produit en a
		if p.HasVariants {
			variants, err := r.fetchVariants(ctx, id)
			if err != nil {
				return nil, apperrors.Persistence(err, "erreur lecture variantes produit %s", id)
			}
			p.Variants = variants
		}

		cache.SetProduct(ctx, p)
		out[id] = *p
	}

	return out, nil
}

func (r *ScyllaCatalog) fetchProduct(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	var p models.Product
	q := database.GetPreparedGetProductForOrder()
	if q == nil {
		session, err := database.GetProductsSession()
		if err != nil {
			return nil, err
		}
		q = session.Query(`SELECT product_id, name, description, price, stock, low_stock_threshold,
			image_urls, is_active, is_deleted, has_variants, created_at, updated_at
			FROM products WHERE product_id = ?`)
	}

	err := q.Bind(id).WithContext(ctx).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.LowStockThreshold,
		&p.ImageURLs, &p.IsActive, &p.IsDeleted, &p.HasVariants, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ScyllaCatalog) fetchVariants(ctx context.Context, productID gocql.UUID) ([]models.ProductVariant, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT product_id, design_name, price, stock, is_deleted, created_at, updated_at
		FROM product_variants WHERE product_id = ?`, productID).WithContext(ctx).Iter()

	var variants []models.ProductVariant
	var v models.ProductVariant
	for iter.Scan(&v.ProductID, &v.DesignName, &v.Price, &v.Stock, &v.IsDeleted, &v.CreatedAt, &v.UpdatedAt) {
		variants = append(variants, v)
		v = models.ProductVariant{}
	}
	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur lecture variantes %s: %v", productID, err)
		return nil, err
	}
	return variants, nil
}
