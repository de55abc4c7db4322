// Package publish uploads run artifacts to Cloud Storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// Publisher uploads the files of one run. Paths are published relative to
// root.
type Publisher interface {
	Publish(ctx context.Context, runID, root string, paths []string) error
}

// GCS publishes artifacts to gs://<bucket>/<prefix>/<runID>/<relative path>.
// Objects are created only if absent, so re-publishing a run is a no-op.
type GCS struct {
	Bucket string
	Prefix string

	client    *storage.Client
	newWriter func(ctx context.Context, object string) io.WriteCloser
}

// NewGCS creates a publisher using application default credentials.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("publish bucket must be set")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	handle := client.Bucket(bucket)
	return &GCS{
		Bucket: bucket,
		Prefix: strings.Trim(prefix, "/"),
		client: client,
		newWriter: func(ctx context.Context, object string) io.WriteCloser {
			return handle.Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
		},
	}, nil
}

// Close releases the storage client.
func (g *GCS) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Publish implements Publisher.
func (g *GCS) Publish(ctx context.Context, runID, root string, paths []string) error {
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(p)
		}
		object := g.ObjectName(runID, rel)
		if err := g.upload(ctx, object, p); err != nil {
			return err
		}
	}
	slog.Info("Published run artifacts", "bucket", g.Bucket, "run_id", runID, "files", len(paths))
	return nil
}

// ObjectName returns the object name for a file relative to the run root.
func (g *GCS) ObjectName(runID, rel string) string {
	return path.Join(g.Prefix, runID, filepath.ToSlash(rel))
}

func (g *GCS) upload(ctx context.Context, object, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	w := g.newWriter(ctx, object)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		if alreadyExists(err) {
			slog.Debug("Skipping existing object", "object", object)
			return nil
		}
		return fmt.Errorf("failed to write gs://%s/%s: %w", g.Bucket, object, err)
	}
	if err := w.Close(); err != nil {
		if alreadyExists(err) {
			slog.Debug("Skipping existing object", "object", object)
			return nil
		}
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", g.Bucket, object, err)
	}
	return nil
}

// alreadyExists reports whether err is the precondition failure returned
// when a DoesNotExist write targets an existing object.
func alreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
