package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/postbot/internal/publisher"
)

// RecordingPublisher is a fake publisher that remembers every text it was
// asked to post.
//
// Err, when set, is returned by every Publish call and nothing is recorded.
// Hook, when set, runs at the start of Publish; tests use it to observe
// state (such as the lock marker) while a post is in flight.
type RecordingPublisher struct {
	mu    sync.Mutex
	texts []string

	Err          error
	Hook         func(ctx context.Context, text string) error
	Followers    int
	FollowersErr error
}

// Publish records text and returns a receipt with a sequential id.
func (p *RecordingPublisher) Publish(ctx context.Context, text string) (publisher.Receipt, error) {
	if p.Hook != nil {
		if err := p.Hook(ctx, text); err != nil {
			return publisher.Receipt{}, err
		}
	}
	if p.Err != nil {
		return publisher.Receipt{}, p.Err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, text)
	return publisher.Receipt{ID: fmt.Sprintf("post-%d", len(p.texts))}, nil
}

// FollowerCount implements publisher.AccountInspector.
func (p *RecordingPublisher) FollowerCount(ctx context.Context) (int, error) {
	if p.FollowersErr != nil {
		return 0, p.FollowersErr
	}
	return p.Followers, nil
}

// Texts returns the successfully published texts in order.
func (p *RecordingPublisher) Texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}
