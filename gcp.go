package takkencrawler

import (
	"fmt"

	"cloud.google.com/go/compute/metadata"
	"google.golang.org/api/option"
)

// resolveProjectID prefers the configured project and falls back to the
// metadata server when running on Google Cloud.
func resolveProjectID(cfg SinkConfig) (string, error) {
	if cfg.GCPProjectID != "" {
		return cfg.GCPProjectID, nil
	}
	if !metadata.OnGCE() {
		return "", fmt.Errorf("%w: GCP_PROJECT_ID is not set and metadata server is unavailable", ErrInvalidConfig)
	}
	projectID, err := metadata.ProjectID()
	if err != nil {
		return "", fmt.Errorf("failed to get project ID: %w", err)
	}
	return projectID, nil
}

func clientOptions(cfg SinkConfig) []option.ClientOption {
	if cfg.GCPCredentialsPath == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.GCPCredentialsPath)}
}
