package storageutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/pierrec/lz4/v4"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ErrObjectNotFound indicates an object was not found.
var ErrObjectNotFound = errors.New("object not found")

const storageTimeout = 5 * time.Second

// TracePath is the name of the object the speedscope profile of a trace is
// stored under.
func TracePath(traceID string) string {
	return fmt.Sprintf("simpleperf/%s.json.lz4", traceID)
}

// CompressedWrite encodes d as JSON, compresses it and writes it to the bucket.
func CompressedWrite(ctx context.Context, b *blob.Bucket, objectName string, d interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	ow, err := b.NewWriter(ctx, objectName, &blob.WriterOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return err
	}
	zw := lz4.NewWriter(ow)
	_ = zw.Apply(lz4.CompressionLevelOption(lz4.Level9))
	jw := json.NewEncoder(zw)
	err = jw.Encode(d)
	if err != nil {
		cancel()
		_ = ow.Close()
		return err
	}
	err = zw.Close()
	if err != nil {
		cancel()
		_ = ow.Close()
		return err
	}
	return ow.Close()
}

// UnmarshalCompressed reads compressed JSON data from the bucket and unmarshals it.
// If the object doesn't exist, it will return ErrObjectNotFound.
func UnmarshalCompressed(ctx context.Context, b *blob.Bucket, objectName string, d interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	or, err := b.NewReader(ctx, objectName, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return ErrObjectNotFound
		}
		return err
	}
	defer or.Close()
	zr := lz4.NewReader(or)
	return json.NewDecoder(zr).Decode(d)
}
