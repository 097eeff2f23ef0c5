package takkencrawler

import (
	"context"
	"errors"
	"fmt"
)

// RecordSink receives a copy of every record after it reached the CSV.
type RecordSink interface {
	Name() string
	Write(ctx context.Context, record MirroredRecord) error
	Close() error
}

// OpenSinks connects every sink that has enough configuration to run.
func OpenSinks(ctx context.Context, cfg SinkConfig, logger *Logger) ([]RecordSink, error) {
	var sinks []RecordSink
	open := func(name string, sink RecordSink, err error) error {
		if err != nil {
			return fmt.Errorf("%s sink: %w", name, err)
		}
		logger.Info("Mirroring records to %s", name)
		sinks = append(sinks, sink)
		return nil
	}

	var err error
	if cfg.MongoHost != "" {
		s, serr := newMongoSink(ctx, cfg)
		err = open("mongo", s, serr)
	}
	if err == nil && cfg.BigQueryDataset != "" && cfg.BigQueryTable != "" {
		s, serr := newBigQuerySink(ctx, cfg)
		err = open("bigquery", s, serr)
	}
	if err == nil && cfg.DatastoreKind != "" {
		s, serr := newDatastoreSink(ctx, cfg)
		err = open("datastore", s, serr)
	}
	if err == nil && cfg.APIEndpoint != "" {
		err = open("api", newAPISink(cfg, nil), nil)
	}

	if err != nil {
		return nil, errors.Join(err, CloseSinks(sinks))
	}
	return sinks, nil
}

func CloseSinks(sinks []RecordSink) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
