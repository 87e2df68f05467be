package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// StatusFunc receives each fresh status snapshot while watching
type StatusFunc func(*models.StatusSnapshot)

// Watcher polls one job at a fixed interval until it reaches a terminal
// state. Transient request failures are logged and retried on the next tick;
// the watcher only gives up when the context is cancelled.
type Watcher struct {
	client   *Client
	interval time.Duration
}

// NewWatcher creates a watcher polling at the given interval
func NewWatcher(client *Client, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{client: client, interval: interval}
}

// Watch follows a job until completion or failure, invoking onStatus for each
// snapshot. It returns the terminal snapshot.
func (w *Watcher) Watch(ctx context.Context, jobID string, onStatus StatusFunc) (*models.StatusSnapshot, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		snapshot, err := w.client.GetStatus(jobID)
		switch {
		case errors.Is(err, ErrJobNotFound):
			// The job does not exist; polling again will never change that
			return nil, err
		case err != nil:
			log.Printf("Poll failed for job %s, retrying: %v", jobID, err)
		default:
			if onStatus != nil {
				onStatus(snapshot)
			}
			if models.IsTerminalState(snapshot.Status) {
				return snapshot, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("watch cancelled for job %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}
