package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/smolin/antiplag/internal/logger"
	"github.com/smolin/antiplag/internal/storage"
)

// EvidenceArchiver copies the matched images of a case into object storage,
// so human review survives deletion of the originals. Archiving is strictly
// best-effort: a failed copy is logged and skipped.
type EvidenceArchiver struct {
	store  storage.ObjectStorage
	client *resty.Client
}

// NewEvidenceArchiver creates an evidence archiver.
// Parameters:
//   - store: object storage backend.
//   - fetchTimeout: bound on each image download.
// Returns:
//   - *EvidenceArchiver: initialized archiver.
func NewEvidenceArchiver(store storage.ObjectStorage, fetchTimeout time.Duration) *EvidenceArchiver {
	client := resty.New()
	client.SetTimeout(fetchTimeout)
	return &EvidenceArchiver{store: store, client: client}
}

// Archive downloads each URL and stores it under the case's key prefix.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - caseID: case the evidence belongs to.
//   - urls: image URLs to snapshot.
// Returns:
//   - []string: storage keys of the snapshots that succeeded.
func (a *EvidenceArchiver) Archive(ctx context.Context, caseID string, urls []string) []string {
	var keys []string
	for i, url := range urls {
		resp, err := a.client.R().SetContext(ctx).Get(url)
		if err != nil || resp.IsError() {
			logger.CtxWarn(ctx, "Failed to snapshot evidence image %s: %v", url, err)
			continue
		}
		key := fmt.Sprintf("cases/%s/image-%d", caseID, i)
		contentType := resp.Header().Get("Content-Type")
		body := resp.Body()
		if err := a.store.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
			logger.CtxWarn(ctx, "Failed to upload evidence %s: %v", key, err)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
