package prefixstore

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Operation names carried by StorageError.Op and metric labels
const (
	OpList  = "list"
	OpRead  = "read"
	OpWrite = "write"
)

// Store maps logical names onto an ObjectClient's flat key space under a
// fixed prefix. It holds no mutable state and is safe for concurrent use.
type Store struct {
	client       ObjectClient
	bucket       string
	mapper       KeyMapper
	pageSize     int32
	logger       *zap.Logger
	instrumenter *Instrumenter
}

var _ AccessStorage = (*Store)(nil)

// New creates a Store over client using the bucket and prefix from cfg
func New(client ObjectClient, cfg *Config, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: object client cannot be nil", ErrInvalidConfig)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}

	config, options := GetEffectiveConfig(cfg, opts...)
	if config.Bucket == "" {
		return nil, &ValidationError{Field: "bucket", Message: "bucket cannot be empty"}
	}
	if err := validatePrefix(config.Prefix); config.Prefix != "" && err != nil {
		return nil, &ValidationError{Field: "prefix", Message: err.Error()}
	}

	return &Store{
		client:       client,
		bucket:       config.Bucket,
		mapper:       NewKeyMapper(config.Prefix),
		pageSize:     config.PageSize,
		logger:       options.GetLogger(),
		instrumenter: options.GetInstrumenter(),
	}, nil
}

// Bucket returns the bucket this store reads and writes
func (s *Store) Bucket() string {
	return s.bucket
}

// KeyMapper returns the mapper used to derive storage keys
func (s *Store) KeyMapper() KeyMapper {
	return s.mapper
}

// List returns every logical name under dir, stripped of the store prefix,
// in the order the store returned them. Entries without a key are skipped
// with a warning; a key outside the requested prefix fails the whole call.
func (s *Store) List(ctx context.Context, dir string) ([]string, error) {
	var names []string
	err := s.instrumenter.ObserveOperation(ctx, OpList, dir, func(ctx context.Context) error {
		var err error
		names, err = s.list(ctx, dir)
		return err
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Store) list(ctx context.Context, dir string) ([]string, error) {
	input := ListObjectsInput{
		Bucket:  s.bucket,
		MaxKeys: s.pageSize,
	}
	if prefix, ok := s.mapper.MakePrefix(dir); ok {
		input.Prefix = &prefix
	}

	s.logger.Debug("Listing objects",
		zap.String("dir", dir),
		zap.String("storage_prefix", derefString(input.Prefix)))

	names := make([]string, 0)
	pages := 0
	for {
		page, err := s.client.ListObjects(ctx, input)
		if err != nil {
			return nil, TranslateError(OpList, dir, err)
		}
		pages++
		s.instrumenter.RecordListPage()

		for _, obj := range page.Objects {
			if obj.Key == nil {
				s.logger.Warn("Skipping listed object without key",
					zap.String("dir", dir),
					zap.Int("page", pages))
				s.instrumenter.RecordSkippedEntry()
				continue
			}

			name, ok := s.mapper.StripPrefix(dir, *obj.Key)
			if !ok {
				return nil, &StorageError{
					Op:  OpList,
					Key: dir,
					Err: fmt.Errorf("%w: %q not under %q", ErrOutOfScope, *obj.Key, derefString(input.Prefix)),
				}
			}
			names = append(names, name)
		}

		next := page.NextContinuationToken
		if next == nil || *next == "" {
			break
		}
		if input.ContinuationToken != nil && *input.ContinuationToken == *next {
			return nil, &StorageError{
				Op:  OpList,
				Key: dir,
				Err: fmt.Errorf("%w: continuation token %q repeated", ErrMalformedResponse, *next),
			}
		}
		input.ContinuationToken = next
	}

	s.instrumenter.SetSpanTag(ctx, "storage.pages", pages)
	s.instrumenter.SetSpanTag(ctx, "storage.count", len(names))

	s.logger.Debug("Objects listed successfully",
		zap.String("dir", dir),
		zap.Int("count", len(names)),
		zap.Int("pages", pages))

	return names, nil
}

// ReadBytes returns the full payload of the named object
func (s *Store) ReadBytes(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.instrumenter.ObserveOperation(ctx, OpRead, name, func(ctx context.Context) error {
		var err error
		data, err = s.read(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.instrumenter.RecordBytes(OpRead, len(data))
	return data, nil
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	key := s.mapper.MakeKey(name)

	s.logger.Debug("Getting object",
		zap.String("name", name),
		zap.String("storage_key", key))

	body, err := s.client.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, TranslateError(OpRead, name, err)
	}
	if body == nil {
		return nil, &StorageError{Op: OpRead, Key: name, Err: ErrMissingBody}
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, TranslateError(OpRead, name, err)
	}

	s.logger.Debug("Object retrieved successfully",
		zap.String("name", name),
		zap.Int("size", len(data)))

	return data, nil
}

// WriteBytes stores data under the named object. The last writer wins.
func (s *Store) WriteBytes(ctx context.Context, name string, data []byte) error {
	err := s.instrumenter.ObserveOperation(ctx, OpWrite, name, func(ctx context.Context) error {
		return s.write(ctx, name, data)
	})
	if err != nil {
		return err
	}
	s.instrumenter.RecordBytes(OpWrite, len(data))
	return nil
}

func (s *Store) write(ctx context.Context, name string, data []byte) error {
	key := s.mapper.MakeKey(name)

	s.logger.Debug("Putting object",
		zap.String("name", name),
		zap.String("storage_key", key),
		zap.Int("size", len(data)))

	if err := s.client.PutObject(ctx, s.bucket, key, data); err != nil {
		return TranslateError(OpWrite, name, err)
	}

	s.logger.Debug("Object put successfully", zap.String("name", name))
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
