// Package scheduler runs the background jobs: the nightly inventory
// snapshot into the archive directory and the daily digest notification.
package scheduler

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/lotworks/recontrack/internal/export"
	"github.com/lotworks/recontrack/internal/inventory"
	"github.com/lotworks/recontrack/internal/notify"
	"github.com/lotworks/recontrack/internal/vehicle"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	db       *gorm.DB
	store    *inventory.Store
	notifier notify.Notifier
}

// New builds a Scheduler. notifier may be an empty Fanout.
func New(db *gorm.DB, store *inventory.Store, notifier notify.Notifier) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithParser(cronParser)),
		db:       db,
		store:    store,
		notifier: notifier,
	}
}

// Start registers the snapshot job and starts the runner. An empty
// expression disables scheduling.
func (s *Scheduler) Start(snapshotCron string) error {
	if snapshotCron == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(snapshotCron, s.RunSnapshot); err != nil {
		return fmt.Errorf("scheduler: schedule %q: %w", snapshotCron, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the runner, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunSnapshot exports the full inventory to the archive directory and sends
// the digest. Failures are logged; the next scheduled run gets another shot.
func (s *Scheduler) RunSnapshot() {
	vehicles, err := vehicle.List(s.db, vehicle.ListFilters{})
	if err != nil {
		log.Printf("scheduler: snapshot: %v", err)
		return
	}

	name := fmt.Sprintf("snapshot-%s.csv", time.Now().Format("2006-01-02-1504"))
	path, err := s.store.WriteSnapshot(name, func(w io.Writer) error {
		return export.WriteCSV(w, vehicles)
	})
	if err != nil {
		log.Printf("scheduler: snapshot: %v", err)
		return
	}
	log.Printf("scheduler: wrote %s (%d vehicles)", path, len(vehicles))

	digest, err := BuildDigest(s.db)
	if err != nil {
		log.Printf("scheduler: digest: %v", err)
		return
	}
	s.notifier.Send(notify.Event{
		Kind:    notify.KindDigest,
		Subject: fmt.Sprintf("Recon digest: %d vehicles in reconditioning", len(vehicles)),
		Body:    digest,
	})
}
