// Package replica mirrors newly created short links into a secondary store.
package replica

import (
	"context"
	"fmt"

	"github.com/serroba/shortlink-web/internal/events"
	"github.com/serroba/shortlink-web/internal/shortener"
	"go.uber.org/zap"
)

// Replicator copies links announced on the event stream into target.
// Insert is insert-if-absent, so redelivered events are harmless.
type Replicator struct {
	target shortener.Repository
	logger *zap.Logger
}

// NewReplicator creates a replicator writing into target.
func NewReplicator(target shortener.Repository, logger *zap.Logger) *Replicator {
	return &Replicator{target: target, logger: logger}
}

// HandleLinkCreated is a messaging.Handler for events.LinkCreated.
func (r *Replicator) HandleLinkCreated(ctx context.Context, event *events.LinkCreated) error {
	if event.ShortID == "" || event.OriginalURL == "" {
		return fmt.Errorf("incomplete link created event: %+v", *event)
	}

	link := &shortener.ShortLink{
		ShortID:     shortener.ShortID(event.ShortID),
		OriginalURL: event.OriginalURL,
		URLHash:     shortener.URLHash(event.URLHash),
		CreatedAt:   event.CreatedAt,
	}

	stored, err := r.target.Insert(ctx, link)
	if err != nil {
		return fmt.Errorf("replicate %s: %w", event.ShortID, err)
	}

	if stored.ShortID != link.ShortID {
		r.logger.Warn("replica already maps url to another id",
			zap.String("shortId", event.ShortID),
			zap.String("replicaShortId", string(stored.ShortID)),
		)

		return nil
	}

	r.logger.Debug("link replicated", zap.String("shortId", event.ShortID))

	return nil
}
