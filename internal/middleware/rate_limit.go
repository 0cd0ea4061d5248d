package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"atelier_back_end/internal/database"
)

const (
	// Limites par endpoint
	OrderMaxPerWindow = 5 // Commandes par fenêtre et par utilisateur
	OrderWindow       = 1 * time.Minute

	UploadMaxPerWindow = 10 // Envois de preuve par fenêtre
	UploadWindow       = 5 * time.Minute
)

// OrderRateLimit limite le nombre de commandes passées par un même utilisateur.
// Garde-fou contre les scripts, pas une protection anti-fraude.
func OrderRateLimit() gin.HandlerFunc {
	return rateLimitByUser("order_rate", OrderMaxPerWindow, OrderWindow)
}

// UploadRateLimit limite les envois de preuve de paiement
func UploadRateLimit() gin.HandlerFunc {
	return rateLimitByUser("upload_rate", UploadMaxPerWindow, UploadWindow)
}

func rateLimitByUser(prefix string, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			// AuthRequired est censé passer avant
			c.Next()
			return
		}

		ctx := context.Background()
		key := fmt.Sprintf("%s:%s", prefix, userID)

		count, err := database.Redis.Incr(ctx, key).Result()
		if err != nil {
			// Redis indisponible : on laisse passer plutôt que de bloquer la boutique
			c.Next()
			return
		}
		// Pose l'expiration au premier passage, et la répare si un Expire
		// précédent a échoué (TTL -1 = clé éternelle, utilisateur bloqué à vie)
		if count == 1 || database.Redis.TTL(ctx, key).Val() < 0 {
			database.Redis.Expire(ctx, key, window)
		}

		if count > int64(max) {
			ttl := database.Redis.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       fmt.Sprintf("Trop de requêtes. Réessayez dans %d secondes", int(ttl.Seconds())),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
