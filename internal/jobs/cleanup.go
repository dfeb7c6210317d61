package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ledgerly/ledgerly-server-go/internal/metrics"
)

const cleanupTimeout = 30 * time.Second

// ExpiredDeleter removes rows whose lifetime has passed and reports how many.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type target struct {
	name    string
	deleter ExpiredDeleter
}

type CleanupJob struct {
	targets  []target
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewCleanupJob(interval time.Duration) *CleanupJob {
	return &CleanupJob{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Register adds a table to sweep. Call before Start.
func (j *CleanupJob) Register(name string, deleter ExpiredDeleter) *CleanupJob {
	j.targets = append(j.targets, target{name: name, deleter: deleter})
	return j
}

func (j *CleanupJob) Start() {
	j.wg.Add(1)
	go j.run()
	log.Info().Dur("interval", j.interval).Int("targets", len(j.targets)).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.done)
		j.wg.Wait()
		log.Info().Msg("cleanup job stopped")
	})
}

func (j *CleanupJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	for _, t := range j.targets {
		j.runCleanup(ctx, t.name, t.deleter.DeleteExpired)
	}
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		metrics.CleanupDeletedTotal.WithLabelValues(name).Add(float64(count))
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
