package takkencrawler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
)

// uploadToBucket copies the results file to gs://<bucket>/takken/<name>/<file>.
func uploadToBucket(ctx context.Context, cfg Config, logger *Logger) error {
	startTime := time.Now()
	bucketName := cfg.Sinks.GCSBucket
	sourceFileName := cfg.OutputPath
	destinationFileName := bucketObjectName(cfg.Name, sourceFileName)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := storage.NewClient(ctx, clientOptions(cfg.Sinks)...)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close storage client: %v", err)
		}
	}()

	file, err := os.Open(sourceFileName)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", sourceFileName, err)
	}
	defer file.Close()

	writer := client.Bucket(bucketName).Object(destinationFileName).NewWriter(ctx)
	writer.ContentType = detectContentType(sourceFileName)

	if _, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to copy file data to bucket %s: %w", bucketName, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer for file %s: %w", destinationFileName, err)
	}

	logger.Info("File %s uploaded to gs://%s/%s. Time taken: %s", sourceFileName, bucketName, destinationFileName, time.Since(startTime))
	return nil
}

func bucketObjectName(name, sourceFileName string) string {
	return path.Join("takken", name, filepath.Base(sourceFileName))
}

// detectContentType falls back to a binary stream when the type is unknown.
func detectContentType(filePath string) string {
	mime, err := mimetype.DetectFile(filePath)
	if err != nil {
		return "application/octet-stream"
	}
	return mime.String()
}
