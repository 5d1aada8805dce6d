package source

import (
	"context"

	"github.com/smolin/antiplag/internal/domain"
)

// PostSource defines the interface for external wall post providers.
type PostSource interface {
	// FetchRecent fetches the most recent posts of the given owner.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - ownerID: external owner ID (negative for communities).
	//   - count: maximum number of posts to fetch.
	// Returns:
	//   - []domain.Post: posts in feed order, newest first.
	//   - error: non-nil if fetching fails.
	FetchRecent(ctx context.Context, ownerID int64, count int) ([]domain.Post, error)
}

// Notifier delivers plagiarism notifications to recipients.
type Notifier interface {
	// SendMessage sends a text message to the recipient.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - recipientID: external recipient ID.
	//   - message: message body.
	// Returns:
	//   - error: non-nil if delivery fails.
	SendMessage(ctx context.Context, recipientID int64, message string) error
}
