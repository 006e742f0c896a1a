package shortener

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/serroba/shortlink-web/internal/events"
	"github.com/serroba/shortlink-web/internal/messaging"
	"go.uber.org/zap"
)

// IDGenerator produces a compact, URL-safe random short identifier.
type IDGenerator func() string

// Service is the Resolution Service: it maps submitted URLs to short links
// and short links back to their destinations.
type Service struct {
	store          Repository
	generateID     IDGenerator
	publishCreated messaging.Publish[events.LinkCreated]
	logger         *zap.Logger
}

// NewService creates a resolution service backed by store.
func NewService(
	store Repository,
	generator IDGenerator,
	publishCreated messaging.Publish[events.LinkCreated],
	logger *zap.Logger,
) *Service {
	return &Service{
		store:          store,
		generateID:     generator,
		publishCreated: publishCreated,
		logger:         logger,
	}
}

// Submit returns the short link for url, creating one if the URL has not
// been seen before.
func (s *Service) Submit(ctx context.Context, url string) (*ShortLink, error) {
	const op = "shortener.Submit"

	url = strings.TrimSpace(url)
	if url == "" {
		return nil, E(op, InvalidInput, errors.New("provide a valid url"))
	}

	existing, err := s.store.FindByURL(ctx, url)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, E(op, StorageUnavailable, err)
	}

	candidate := &ShortLink{
		ShortID:     ShortID(s.generateID()),
		OriginalURL: url,
		URLHash:     HashURL(url),
		CreatedAt:   time.Now().UTC(),
	}

	stored, err := s.store.Insert(ctx, candidate)
	if err != nil {
		return nil, E(op, StorageUnavailable, err)
	}

	// A different id means a concurrent submission stored the URL first.
	if stored.ShortID == candidate.ShortID {
		s.announce(stored)
	}

	return stored, nil
}

// Resolve returns the original URL the short identifier points to.
func (s *Service) Resolve(ctx context.Context, id ShortID) (string, error) {
	const op = "shortener.Resolve"

	if id == "" {
		return "", E(op, NotFound, errors.New("short url does not exist"))
	}

	link, err := s.store.FindByShortID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", E(op, NotFound, errors.New("short url does not exist"))
		}

		return "", E(op, StorageUnavailable, err)
	}

	return link.OriginalURL, nil
}

// Lookup returns the full record for a short identifier.
func (s *Service) Lookup(ctx context.Context, id ShortID) (*ShortLink, error) {
	const op = "shortener.Lookup"

	link, err := s.store.FindByShortID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, E(op, NotFound, errors.New("short url does not exist"))
		}

		return nil, E(op, StorageUnavailable, err)
	}

	return link, nil
}

func (s *Service) announce(link *ShortLink) {
	event := &events.LinkCreated{
		ShortID:     string(link.ShortID),
		OriginalURL: link.OriginalURL,
		URLHash:     string(link.URLHash),
		CreatedAt:   link.CreatedAt,
	}

	if err := s.publishCreated(event); err != nil {
		s.logger.Error("failed to publish link created event",
			zap.String("shortId", event.ShortID),
			zap.Error(err),
		)
	}
}
