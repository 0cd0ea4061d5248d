package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"

	"atelier_back_end/internal/apperrors"
	"atelier_back_end/internal/database"
)

// Extensions acceptées pour les captures d'écran de preuve
var allowedProofExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".pdf":  true,
}

const maxProofSize = 5 << 20 // 5 Mo

// UploadProofScreenshot stocke la capture d'écran dans MinIO et retourne
// l'URL de l'objet, utilisée comme référence de preuve sur le paiement
func UploadProofScreenshot(ctx context.Context, orderID gocql.UUID, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", apperrors.Persistence(nil, "stockage de fichiers non initialisé")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedProofExtensions[ext] {
		return "", apperrors.Validation("format de fichier non accepté: %s", ext)
	}
	if file.Size > maxProofSize {
		return "", apperrors.Validation("fichier trop volumineux (max 5 Mo)")
	}

	f, err := file.Open()
	if err != nil {
		return "", apperrors.Validation("fichier illisible")
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	// Un objet par commande : un nouvel envoi remplace l'ancien
	objectName := fmt.Sprintf("payment-proofs/%s%s", orderID, ext)

	_, err = database.MinIO.PutObject(ctx, bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", apperrors.Persistence(err, "erreur stockage de la preuve")
	}

	scheme := "http"
	if os.Getenv("MINIO_USE_SSL") == "true" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, os.Getenv("MINIO_ENDPOINT"), bucket, objectName), nil
}

// SignedProofURL génère une URL signée temporaire pour qu'un admin consulte
// une preuve sans exposer le bucket
func SignedProofURL(ctx context.Context, proofURL string, duration time.Duration) (string, error) {
	if database.MinIO == nil {
		return "", apperrors.Persistence(nil, "stockage de fichiers non initialisé")
	}

	bucket := os.Getenv("MINIO_BUCKET")

	// Ne garder que le chemin de l'objet relatif au bucket
	key := proofURL
	if idx := strings.Index(proofURL, "/"+bucket+"/"); idx >= 0 {
		key = proofURL[idx+len(bucket)+2:]
	}

	presigned, err := database.MinIO.PresignedGetObject(ctx, bucket, key, duration, make(url.Values))
	if err != nil {
		return "", apperrors.Persistence(err, "erreur génération URL signée")
	}
	return presigned.String(), nil
}
