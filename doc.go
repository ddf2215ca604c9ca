// Package prefixstore exposes a list/read/write capability over logical names
// backed by a flat S3-compatible object store.
//
// A Store maps each logical name onto a storage key under one configured
// prefix, so several logical stores can share a bucket:
//
//	prefix "indexes/"  +  name "notes/a.txt"  ->  key "indexes/notes/a.txt"
//
// Listing a directory strips the prefix back off, paging through the store
// until the continuation token is exhausted. Every failure surfaces as a
// *StorageError; the wrapped sentinel (ErrNotFound, ErrMissingBody, ...) is
// available through errors.Is when the cause is known.
//
// Concrete object clients live under adapters/:
//
//	import (
//	    "github.com/gostratum/prefixstore"
//	    "github.com/gostratum/prefixstore/adapters/s3"
//	)
//
//	store, err := s3.NewStore(ctx, cfg)
//	names, err := store.List(ctx, "notes")
package prefixstore
