// Package orphan finds database tables that no registered schema claims.
// Games accumulate tables from removed modules; the scanner surfaces them
// and, after a grace period, can drop them on explicit request. Scans are
// whole-table: a column nobody declares is the diff layer's business, not
// this package's.
package orphan

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/keystone-gg/keystone/internal/dialect"
	"github.com/keystone-gg/keystone/internal/kerr"
)

// DefaultGraceDays is how long a table must stay orphaned before Cleanup
// will touch it.
const DefaultGraceDays = 30

// Catalog lists the live base tables.
type Catalog interface {
	ListTables() ([]string, error)
}

// Registry answers whether a table name is claimed by a registered schema.
type Registry interface {
	Has(name string) bool
}

// Executor runs DROP statements synchronously.
type Executor interface {
	ExecuteSync(query string, args []any) (affected int64, ok bool)
}

// Orphan is one unclaimed table and when this process first noticed it.
type Orphan struct {
	Table     string
	FirstSeen time.Time
}

// Age returns how long the orphan has been tracked.
func (o Orphan) Age(now time.Time) time.Duration {
	return now.Sub(o.FirstSeen)
}

// Scanner tracks orphaned tables across scans. First-seen timestamps live
// in process memory only; a restart resets the grace clock.
type Scanner struct {
	catalog Catalog
	reg     Registry
	exec    Executor
	dial    dialect.Dialect
	log     *slog.Logger

	mu        sync.Mutex
	firstSeen map[string]time.Time
	cron      *cron.Cron

	now func() time.Time
}

// NewScanner builds a scanner. exec and dial may be nil when only scanning.
func NewScanner(catalog Catalog, reg Registry, exec Executor, dial dialect.Dialect, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{
		catalog:   catalog,
		reg:       reg,
		exec:      exec,
		dial:      dial,
		log:       log,
		firstSeen: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Scan lists the live tables and partitions out the ones no schema claims.
// A table seen in an earlier scan keeps its original first-seen timestamp;
// a table that became registered (or disappeared) since then is forgotten,
// so re-orphaning restarts its grace clock.
func (s *Scanner) Scan() ([]Orphan, error) {
	tables, err := s.catalog.ListTables()
	if err != nil {
		return nil, kerr.Wrap(kerr.ErrOrphanScan, err, "orphan scan could not list tables")
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]bool, len(tables))
	var orphans []Orphan

	for _, name := range tables {
		if s.reg.Has(name) {
			delete(s.firstSeen, name)
			continue
		}
		current[name] = true
		if _, ok := s.firstSeen[name]; !ok {
			s.firstSeen[name] = now
		}
		orphans = append(orphans, Orphan{Table: name, FirstSeen: s.firstSeen[name]})
	}

	for name := range s.firstSeen {
		if !current[name] {
			delete(s.firstSeen, name)
		}
	}

	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Table < orphans[j].Table })

	s.log.Info("orphan scan complete", "tables", len(tables), "orphans", len(orphans))
	return orphans, nil
}

// Cleanup drops every orphan tracked for longer than graceDays. It
// re-scans first, so only tables still orphaned right now are considered.
// Returns how many tables were dropped; the first failed drop aborts the
// rest.
func (s *Scanner) Cleanup(graceDays int) (int, error) {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}
	if s.exec == nil || s.dial == nil {
		return 0, kerr.New(kerr.ErrOrphanDrop, "scanner has no executor; cleanup unavailable")
	}

	orphans, err := s.Scan()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-time.Duration(graceDays) * 24 * time.Hour)
	dropped := 0

	for _, o := range orphans {
		if o.FirstSeen.After(cutoff) {
			continue
		}
		// Registration may have happened between the scan and this drop.
		if s.reg.Has(o.Table) {
			continue
		}

		stmt := s.dial.DropTableSQL(o.Table)
		if _, ok := s.exec.ExecuteSync(stmt, nil); !ok {
			return dropped, kerr.New(kerr.ErrOrphanDrop, "failed to drop orphaned table").
				WithTable(o.Table).
				WithQuery(stmt)
		}

		s.mu.Lock()
		delete(s.firstSeen, o.Table)
		s.mu.Unlock()

		dropped++
		s.log.Warn("orphaned table dropped", "table", o.Table, "first_seen", o.FirstSeen)
	}

	return dropped, nil
}

// Schedule runs Scan on a cron spec ("@hourly", "0 4 * * *", ...) until
// Stop. Scheduled runs only observe and log; dropping stays a manual
// operation.
func (s *Scanner) Schedule(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return kerr.New(kerr.ErrOrphanScan, "orphan scan schedule already running")
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.Scan(); err != nil {
			s.log.Error("scheduled orphan scan failed", "error", err)
		}
	})
	if err != nil {
		return kerr.Wrap(kerr.ErrOrphanScan, err, "invalid orphan scan schedule").
			With("spec", spec)
	}

	c.Start()
	s.cron = c
	s.log.Info("orphan scan scheduled", "spec", spec)
	return nil
}

// Stop halts the scheduled scans, if any.
func (s *Scanner) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}
