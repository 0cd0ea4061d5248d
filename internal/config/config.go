package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// ShippingFee retourne les frais de port forfaitaires (SHIPPING_FEE, défaut 5.90€)
func ShippingFee() float64 {
	if v := os.Getenv("SHIPPING_FEE"); v != "" {
		if fee, err := strconv.ParseFloat(v, 64); err == nil && fee >= 0 {
			return fee
		}
		log.Printf("⚠️ SHIPPING_FEE invalide (%q), on utilise la valeur par défaut", v)
	}
	return 5.90
}

// BankDetails : coordonnées bancaires affichées pour les paiements par virement
type BankDetails struct {
	IBAN       string
	BIC        string
	HolderName string
}

func GetBankDetails() BankDetails {
	holder := os.Getenv("BANK_HOLDER_NAME")
	if holder == "" {
		holder = "Atelier"
	}
	return BankDetails{
		IBAN:       os.Getenv("BANK_IBAN"),
		BIC:        os.Getenv("BANK_BIC"),
		HolderName: holder,
	}
}
