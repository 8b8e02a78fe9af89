// Package publisher sends normalized texts to the posting channel.
//
// The session treats every error from Publish the same way: the text is not
// recorded and stays eligible for a later run. ErrRateLimited and
// RejectedError only refine the message reported to the operator.
package publisher

import (
	"context"
	"errors"
	"fmt"
)

// ErrRateLimited is returned when the channel answers 429.
var ErrRateLimited = errors.New("rate limited")

// Receipt is the channel's acknowledgement of a post.
type Receipt struct {
	ID string
}

// Publisher posts one text.
type Publisher interface {
	Publish(ctx context.Context, text string) (Receipt, error)
}

// AccountInspector is implemented by publishers that can report the
// audience of the posting account.
type AccountInspector interface {
	FollowerCount(ctx context.Context) (int, error)
}

// RejectedError is a non-success response other than a rate limit.
type RejectedError struct {
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("rejected with status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("rejected with status %d", e.Status)
}
