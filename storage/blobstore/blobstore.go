// Package blobstore adapts gocloud.dev/blob to the core's storage.Store
// trait set, grounded on the teacher's Reader/Dataset use of
// gocloud.dev/blob (bucket.NewReader, gcerrors.Code(err)==NotFound).
// It is the only place in this module that imports a concrete storage
// driver; the core itself only ever sees storage.Store.
package blobstore

import (
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/TuSKan/go-zarr/storage"
)

// Store wraps a *blob.Bucket as a storage.Store.
type Store struct {
	bucket *blob.Bucket
}

// New opens a bucket at the given gocloud.dev/blob URL (e.g.
// "file:///path", "mem://", "s3://bucket") and wraps it.
func New(ctx context.Context, bucketURL string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %q: %w", bucketURL, err)
	}
	return &Store{bucket: bucket}, nil
}

// NewFromBucket wraps an already-open bucket.
func NewFromBucket(bucket *blob.Bucket) *Store { return &Store{bucket: bucket} }

// Close closes the underlying bucket.
func (s *Store) Close() error { return s.bucket.Close() }

func isNotFound(err error) bool {
	return err != nil && gcerrors.Code(err) == gcerrors.NotFound
}

// SizeKey implements storage.Readable.
func (s *Store) SizeKey(ctx context.Context, key string) (uint64, bool, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if isNotFound(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return uint64(attrs.Size), true, nil
}

// SupportsGetPartial implements storage.Readable. gocloud.dev/blob exposes
// ranged reads on every driver, but not all drivers serve them without a
// full fetch; this module treats it conservatively as supported since
// bucket.NewRangeReader is always present in the API.
func (s *Store) SupportsGetPartial() bool { return true }

// GetPartialMany implements storage.Readable.
func (s *Store) GetPartialMany(ctx context.Context, key string, ranges []storage.ByteRange) ([][]byte, bool, error) {
	var size int64 = -1
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		offset, length, err := s.resolveRange(ctx, key, r, &size)
		if isNotFound(err) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		reader, err := s.bucket.NewRangeReader(ctx, key, offset, length, nil)
		if isNotFound(err) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to open range reader for %s: %w", key, err)
		}
		buf, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return nil, false, fmt.Errorf("failed to read range of %s: %w", key, err)
		}
		out[i] = buf
	}
	return out, true, nil
}

// resolveRange turns a ByteRange into gocloud.dev/blob's (offset, length)
// form, lazily fetching the object size for suffix ranges and open-ended
// FromStart ranges.
func (s *Store) resolveRange(ctx context.Context, key string, r storage.ByteRange, size *int64) (int64, int64, error) {
	needSize := r.Kind == storage.SuffixKind || (r.Kind == storage.FromStartKind && r.Length == nil)
	if needSize && *size < 0 {
		attrs, err := s.bucket.Attributes(ctx, key)
		if err != nil {
			return 0, 0, err
		}
		*size = attrs.Size
	}
	switch r.Kind {
	case storage.SuffixKind:
		length := int64(*r.Length)
		offset := *size - length
		if offset < 0 {
			offset = 0
			length = *size
		}
		return offset, length, nil
	default:
		offset := int64(r.Offset)
		if r.Length == nil {
			return offset, *size - offset, nil
		}
		return offset, int64(*r.Length), nil
	}
}

// Set implements storage.Writable.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("failed to open writer for %s: %w", key, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return w.Close()
}

// SupportsSetPartial implements storage.Writable. gocloud.dev/blob has no
// partial-write API; every write replaces the whole object, so the array
// core must always fall back to read-modify-write through this backend.
func (s *Store) SupportsSetPartial() bool { return false }

// SetPartialMany implements storage.Writable by reading the current value
// (or starting from empty), applying each OffsetBytes, and writing the
// result back whole. This is the fallback spec.md §9's open question about
// non-atomic partial writes resolves to for gocloud.dev/blob specifically:
// see DESIGN.md.
func (s *Store) SetPartialMany(ctx context.Context, key string, writes []storage.OffsetBytes) error {
	var existing []byte
	ranges, _, err := s.GetPartialMany(ctx, key, []storage.ByteRange{storage.FromStart(0, nil)})
	if err == nil && ranges != nil {
		existing = ranges[0]
	}
	maxEnd := len(existing)
	for _, w := range writes {
		if end := int(w.Offset) + len(w.Bytes); end > maxEnd {
			maxEnd = end
		}
	}
	buf := make([]byte, maxEnd)
	copy(buf, existing)
	for _, w := range writes {
		copy(buf[w.Offset:], w.Bytes)
	}
	return s.Set(ctx, key, buf)
}

// Erase implements storage.Writable.
func (s *Store) Erase(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to erase %s: %w", key, err)
	}
	return nil
}

// ErasePrefix implements storage.Writable.
func (s *Store) ErasePrefix(ctx context.Context, prefix string) error {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Erase(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// List implements storage.Listable.
func (s *Store) List(ctx context.Context) ([]string, error) { return s.ListPrefix(ctx, "") }

// ListPrefix implements storage.Listable.
func (s *Store) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list prefix %s: %w", prefix, err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// ListDir implements storage.Listable.
func (s *Store) ListDir(ctx context.Context, prefix string) ([]string, []string, error) {
	var keys, prefixes []string
	it := s.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list dir %s: %w", prefix, err)
		}
		if obj.IsDir {
			prefixes = append(prefixes, obj.Key)
		} else {
			keys = append(keys, obj.Key)
		}
	}
	return keys, prefixes, nil
}

// Size implements storage.Listable.
func (s *Store) Size(ctx context.Context) (uint64, error) { return s.SizePrefix(ctx, "") }

// SizePrefix implements storage.Listable.
func (s *Store) SizePrefix(ctx context.Context, prefix string) (uint64, error) {
	var total uint64
	it := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to size prefix %s: %w", prefix, err)
		}
		total += uint64(obj.Size)
	}
	return total, nil
}
