// ABOUTME: Serialization and persistence through the configured store
// ABOUTME: Records pass through the cycle codec on the way in and out

package collection

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nainya/ndstore/pkg/codec"
	"github.com/nainya/ndstore/pkg/errs"
	"github.com/nainya/ndstore/pkg/rowstream"
	"github.com/nainya/ndstore/pkg/storage"
)

// Stringify encodes the records as a JSON array. compress selects the
// compact form; otherwise the output is indented.
func (c *Collection) Stringify(compress bool) (string, error) {
	return codec.Encode(c.records, compress)
}

// Save stores the encoded records under id
func (c *Collection) Save(ctx context.Context, id string, compress bool) (err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "collection.Save", trace.WithAttributes(
		attribute.String("collection.store_id", id),
		attribute.Int("collection.records", len(c.records)),
	))
	defer func() {
		endSpan(span, err)
		c.observe("save", start, err)
	}()

	if err = c.checkPersist("Save", id); err != nil {
		return err
	}
	text, err := c.Stringify(compress)
	if err != nil {
		err = errs.Wrap(errs.StorageFailure, "Save", err)
		c.log.Error().Err(err).Str("id", id).Msg("encode failed")
		return err
	}
	if err = c.store.Set(ctx, id, text); err != nil {
		err = errs.Wrap(errs.StorageFailure, "Save", err)
		c.log.Error().Err(err).Str("id", id).Msg("store write failed")
		return err
	}
	c.observer.ObserveBytes("save", len(text))
	span.SetAttributes(attribute.Int("collection.bytes", len(text)))
	c.log.Debug().Str("id", id).Int("records", len(c.records)).Int("bytes", len(text)).Msg("collection saved")
	return nil
}

// Load reads the text stored under id and imports its records
func (c *Collection) Load(ctx context.Context, id string) (err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "collection.Load", trace.WithAttributes(
		attribute.String("collection.store_id", id),
	))
	defer func() {
		endSpan(span, err)
		c.observe("load", start, err)
	}()

	if err = c.checkPersist("Load", id); err != nil {
		return err
	}
	text, ok, err := c.store.Get(ctx, id)
	if err != nil {
		err = errs.Wrap(errs.StorageFailure, "Load", err)
		c.log.Error().Err(err).Str("id", id).Msg("store read failed")
		return err
	}
	if !ok {
		err = errs.Wrap(errs.StorageFailure, "Load", storage.ErrNotFound)
		c.log.Error().Err(err).Str("id", id).Msg("nothing stored")
		return err
	}
	c.observer.ObserveBytes("load", len(text))

	records, err := codec.Decode(text)
	if err != nil {
		err = errs.Wrap(errs.StorageFailure, "Load", err)
		c.log.Error().Err(err).Str("id", id).Msg("decode failed")
		return err
	}
	if err = c.Import(records); err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("collection.records", len(records)))
	c.log.Debug().Str("id", id).Int("records", len(records)).Msg("collection loaded")
	return nil
}

func (c *Collection) checkPersist(op, id string) error {
	if c.store == nil {
		err := errs.E(errs.MissingCollaborator, op, "no storage configured")
		c.log.Error().Err(err).Msg("cannot persist")
		return err
	}
	if id == "" {
		err := errs.E(errs.InvalidArgument, op, "empty id")
		c.log.Error().Err(err).Msg("cannot persist")
		return err
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ImportStream inserts every row emitted by src
func (c *Collection) ImportStream(ctx context.Context, src rowstream.Source) error {
	start := time.Now()
	before := len(c.records)
	err := src.Stream(ctx, func(row map[string]any) error {
		return c.Insert(row)
	})
	c.observe("import", start, err)
	if err != nil {
		c.log.Error().Err(err).Int("imported", len(c.records)-before).Msg("row stream failed")
		return err
	}
	c.log.Debug().Int("imported", len(c.records)-before).Msg("row stream imported")
	return nil
}
