package session

import "context"

// Store persists the client session. Save and Clear touch the three session
// keys as one unit so a reader never sees a partial record.
type Store interface {
	Save(ctx context.Context, rec Record) error
	// Load returns nil without error when no session is stored.
	Load(ctx context.Context) (*Record, error)
	Clear(ctx context.Context) error
	SaveRedirect(ctx context.Context, path string) error
	// TakeRedirect returns the saved pre-login destination and removes it.
	TakeRedirect(ctx context.Context) (string, error)
}
