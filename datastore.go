package takkencrawler

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
)

type datastoreEntity struct {
	Kana        string    `datastore:"kana"`
	CompanyName string    `datastore:"company_name"`
	Address     string    `datastore:"address,noindex"`
	PhoneNumber string    `datastore:"phone_number"`
	Capital     string    `datastore:"capital,noindex"`
	Class       string    `datastore:"class,noindex"`
	Source      string    `datastore:"source,noindex"`
	CreatedAt   time.Time `datastore:"created_at"`
}

type datastoreSink struct {
	client *datastore.Client
	kind   string
}

func newDatastoreSink(ctx context.Context, cfg SinkConfig) (*datastoreSink, error) {
	projectID, err := resolveProjectID(cfg)
	if err != nil {
		return nil, err
	}
	client, err := datastore.NewClient(ctx, projectID, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Datastore client: %w", err)
	}
	return &datastoreSink{client: client, kind: cfg.DatastoreKind}, nil
}

func (s *datastoreSink) Name() string {
	return "datastore"
}

// Write keys each entity by the record's identity so reruns overwrite.
func (s *datastoreSink) Write(ctx context.Context, record MirroredRecord) error {
	key := datastore.NameKey(s.kind, record.Key().String(), nil)
	entity := &datastoreEntity{
		Kana:        record.Kana,
		CompanyName: record.CompanyName,
		Address:     record.Address,
		PhoneNumber: record.PhoneNumber,
		Capital:     record.Capital,
		Class:       record.Class,
		Source:      record.Source,
		CreatedAt:   record.CreatedAt,
	}
	if _, err := s.client.Put(ctx, key, entity); err != nil {
		return fmt.Errorf("could not put %s: %w", record.Key(), err)
	}
	return nil
}

func (s *datastoreSink) Close() error {
	return s.client.Close()
}
