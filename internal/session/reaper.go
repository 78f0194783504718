package session

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Reaper runs periodic housekeeping jobs for a registry, the first of which
// concludes matches nobody has touched for the idle timeout.
type Reaper struct {
	sched gocron.Scheduler
}

// StartReaper schedules the idle sweep every interval and starts the
// scheduler.
func StartReaper(reg *Registry, interval, idle time.Duration) (*Reaper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	rp := &Reaper{sched: sched}

	err = rp.Every(interval, func() {
		for _, key := range reg.ReapIdle(idle) {
			log.Printf("[REAPER] Concluded idle match %s", key)
		}
	})
	if err != nil {
		sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return rp, nil
}

// Every adds another job running fn at the given interval.
func (rp *Reaper) Every(interval time.Duration, fn func()) error {
	if _, err := rp.sched.NewJob(gocron.DurationJob(interval), gocron.NewTask(fn)); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	return nil
}

// Stop shuts the scheduler down and waits for running jobs.
func (rp *Reaper) Stop() error {
	return rp.sched.Shutdown()
}
