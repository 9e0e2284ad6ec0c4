// Package config loads ndstore configuration from YAML
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/nainya/ndstore/pkg/collection"
	"github.com/nainya/ndstore/pkg/compare"
	"github.com/nainya/ndstore/pkg/errs"
	"github.com/nainya/ndstore/pkg/storage"
)

// Config is the top-level configuration file
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Collection CollectionConfig `yaml:"collection"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
}

// LogConfig mirrors logger.Config
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Pretty *bool  `yaml:"pretty"`
	Caller bool   `yaml:"caller"`
}

// CollectionConfig declares indexes, hashes, views and ordering. Index,
// hash and view maps go from name to the dimension used as key.
type CollectionConfig struct {
	SortBy  []string          `yaml:"sort_by" validate:"dive,required"`
	Indexes map[string]string `yaml:"indexes" validate:"dive,keys,required,endkeys,required"`
	Hashes  map[string]string `yaml:"hashes" validate:"dive,keys,required,endkeys,required"`
	Views   map[string]string `yaml:"views" validate:"dive,keys,required,endkeys,required"`
	// Collations maps a dimension to a BCP 47 language tag
	Collations map[string]string `yaml:"collations" validate:"dive,keys,required,endkeys,required"`
	Update     UpdateConfig      `yaml:"update"`
}

// UpdateConfig mirrors collection.Update
type UpdateConfig struct {
	Cursor  bool `yaml:"cursor"`
	Indexes bool `yaml:"indexes"`
	Sort    bool `yaml:"sort"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Backend     string `yaml:"backend" validate:"required,oneof=memory file badger sqlite s3"`
	Path        string `yaml:"path" validate:"required_if=Backend file,required_if=Backend sqlite"`
	InMemory    bool   `yaml:"in_memory"`
	SyncWrites  bool   `yaml:"sync_writes"`
	Bucket      string `yaml:"bucket" validate:"required_if=Backend s3"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint" validate:"omitempty,url"`
	Compression string `yaml:"compression" validate:"omitempty,oneof=none zstd lz4"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns a configuration with in-memory storage and incremental
// index maintenance
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Collection: CollectionConfig{
			Update: UpdateConfig{Indexes: true},
		},
		Storage: StorageConfig{Backend: "memory"},
		Server:  ServerConfig{Addr: "127.0.0.1:9090"},
	}
}

// Load reads and validates the configuration at path. Fields missing from
// the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Backend == "badger" && !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("invalid config: badger storage needs a path or in_memory")
	}
	return nil
}

// Options builds collection options from the configuration
func (c CollectionConfig) Options(log *zerolog.Logger) (collection.Options, error) {
	opts := collection.Options{
		SortBy: c.SortBy,
		Update: collection.Update{
			Cursor:  c.Update.Cursor,
			Indexes: c.Update.Indexes,
			Sort:    c.Update.Sort,
		},
		Logger:  log,
		Indexes: byDimension(c.Indexes),
		Hashes:  byDimension(c.Hashes),
		Views:   byDimension(c.Views),
	}

	if len(c.Collations) > 0 {
		opts.Comparators = make(map[string]compare.Func, len(c.Collations))
		for dim, tag := range c.Collations {
			lang, err := language.Parse(tag)
			if err != nil {
				return collection.Options{}, errs.Wrap(errs.InvalidComparator, "Options", fmt.Errorf("collation for %q: %w", dim, err))
			}
			opts.Comparators[dim] = compare.Collated(dim, lang)
		}
	}

	for _, group := range []map[string]string{c.Indexes, c.Hashes, c.Views} {
		for name := range group {
			if collection.IsReserved(name) {
				return collection.Options{}, errs.E(errs.ReservedName, "Options", "name %q is reserved", name)
			}
		}
	}
	return opts, nil
}

func byDimension(defs map[string]string) map[string]collection.KeyFunc {
	if len(defs) == 0 {
		return nil
	}
	out := make(map[string]collection.KeyFunc, len(defs))
	for name, dim := range defs {
		out[name] = collection.ByDimension(dim)
	}
	return out
}

// OpenStorage opens the configured backend, wrapped with compression when
// requested. The caller closes it with storage.Close.
func (s StorageConfig) OpenStorage(ctx context.Context, log *zerolog.Logger) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)
	switch s.Backend {
	case "", "memory":
		store = storage.NewMemory()
	case "file":
		store, err = storage.NewFile(s.Path)
	case "badger":
		store, err = storage.OpenBadger(storage.BadgerConfig{
			Path:       s.Path,
			InMemory:   s.InMemory,
			SyncWrites: s.SyncWrites,
			Logger:     log,
		})
	case "sqlite":
		store, err = storage.OpenSQLite(s.Path)
	case "s3":
		store, err = s.openS3(ctx)
	default:
		err = fmt.Errorf("unknown storage backend %q", s.Backend)
	}
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "OpenStorage", err)
	}

	kind, err := storage.ParseCompression(s.Compression)
	if err != nil {
		_ = storage.Close(store)
		return nil, errs.Wrap(errs.StorageFailure, "OpenStorage", err)
	}
	if kind == storage.CompressionNone {
		return store, nil
	}
	compressed, err := storage.NewCompressed(store, kind)
	if err != nil {
		_ = storage.Close(store)
		return nil, errs.Wrap(errs.StorageFailure, "OpenStorage", err)
	}
	return compressed, nil
}

func (s StorageConfig) openS3(ctx context.Context) (storage.Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if s.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(s.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
			o.UsePathStyle = true
		}
	})
	return storage.NewS3(client, s.Bucket, s.Prefix), nil
}
