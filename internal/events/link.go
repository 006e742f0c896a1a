package events

import "time"

// TopicLinkCreated carries a LinkCreated event for every newly stored link.
const TopicLinkCreated = "link.created"

// LinkCreated is emitted when a short link is stored for the first time.
type LinkCreated struct {
	ShortID     string    `json:"shortId"`
	OriginalURL string    `json:"originalUrl"`
	URLHash     string    `json:"urlHash"`
	CreatedAt   time.Time `json:"createdAt"`
}
