package mockkafka

import (
	"time"
)

type Option func(*Client)

// WithMaxPollRecords bounds the batch window returned by Poll. Default 10.
func WithMaxPollRecords(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPollRecords = n
		}
	}
}

// WithPollDelay makes every Poll wait d, or until ctx is done.
func WithPollDelay(d time.Duration) Option {
	return func(c *Client) {
		c.pollDelay = d
	}
}

// WithSendError fails every Send, e.g. to simulate an unreachable dead
// letter topic.
func WithSendError(err error) Option {
	return func(c *Client) {
		c.sendErr = func(string, []byte, []byte) error { return err }
	}
}

// WithPollError fails every Poll until SetPollError(nil).
func WithPollError(err error) Option {
	return func(c *Client) {
		c.pollErr = func() error { return err }
	}
}

// WithCommitError fails every Commit. Marks are kept so a later Commit
// can still advance the position.
func WithCommitError(err error) Option {
	return func(c *Client) {
		c.commitErr = func() error { return err }
	}
}
