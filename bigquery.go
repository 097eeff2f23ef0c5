package takkencrawler

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

type bigQueryRow struct {
	Kana        string    `bigquery:"kana"`
	CompanyName string    `bigquery:"company_name"`
	Address     string    `bigquery:"address"`
	PhoneNumber string    `bigquery:"phone_number"`
	Capital     string    `bigquery:"capital"`
	Class       string    `bigquery:"class"`
	Source      string    `bigquery:"source"`
	CreatedAt   time.Time `bigquery:"created_at"`
}

func newBigQueryRow(record MirroredRecord) *bigQueryRow {
	return &bigQueryRow{
		Kana:        record.Kana,
		CompanyName: record.CompanyName,
		Address:     record.Address,
		PhoneNumber: record.PhoneNumber,
		Capital:     record.Capital,
		Class:       record.Class,
		Source:      record.Source,
		CreatedAt:   record.CreatedAt, // partitioning column
	}
}

type bigQuerySink struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
	target   string
}

func newBigQuerySink(ctx context.Context, cfg SinkConfig) (*bigQuerySink, error) {
	projectID, err := resolveProjectID(cfg)
	if err != nil {
		return nil, err
	}
	client, err := bigquery.NewClient(ctx, projectID, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}
	return &bigQuerySink{
		client:   client,
		inserter: client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable).Inserter(),
		target:   fmt.Sprintf("%s.%s.%s", projectID, cfg.BigQueryDataset, cfg.BigQueryTable),
	}, nil
}

func (s *bigQuerySink) Name() string {
	return "bigquery"
}

func (s *bigQuerySink) Write(ctx context.Context, record MirroredRecord) error {
	if err := s.inserter.Put(ctx, []*bigQueryRow{newBigQueryRow(record)}); err != nil {
		return fmt.Errorf("failed to insert %s into %s: %w", record.Key(), s.target, err)
	}
	return nil
}

func (s *bigQuerySink) Close() error {
	return s.client.Close()
}
