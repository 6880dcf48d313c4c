package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ImageStore enregistre les images des produits et retourne leur URL publique
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
}

// MinIOImageStore range les images sous products/AAAA/MM/JJ/ dans le bucket
type MinIOImageStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
	now      func() time.Time
}

func NewMinIOImageStore(client *minio.Client, bucket, endpoint string, useSSL bool) *MinIOImageStore {
	return &MinIOImageStore{client: client, bucket: bucket, endpoint: endpoint, useSSL: useSSL, now: time.Now}
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectName construit le chemin de l'objet pour un fichier téléversé
func (s *MinIOImageStore) ObjectName(filename, contentType string) (string, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fieldError("image", "Format d'image non supporté (jpeg, png, webp ou gif).")
	}
	if e := strings.ToLower(path.Ext(filename)); e == ".jpeg" || e == ext {
		ext = e
	}
	return fmt.Sprintf("products/%s/%s%s", s.now().Format("2006/01/02"), uuid.NewString(), ext), nil
}

func (s *MinIOImageStore) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	object, err := s.ObjectName(filename, contentType)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("envoi MinIO: %w", err)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, object), nil
}
