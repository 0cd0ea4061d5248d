package utils

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Alphabet sans caractères ambigus (pas de O/0, I/1) pour lecture au téléphone
const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const orderNumberSuffixLen = 6

// GenerateOrderNumber produit un numéro de commande lisible, daté, avec un
// suffixe aléatoire. Ex: ATL-20260829-K7KQ3K. L'unicité est garantie en base
// (LWT), l'appelant réessaie avec un nouveau suffixe en cas de collision.
func GenerateOrderNumber(now time.Time) string {
	suffix := make([]byte, orderNumberSuffixLen)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))]
	}
	return fmt.Sprintf("ATL-%s-%s", now.Format("20060102"), string(suffix))
}
