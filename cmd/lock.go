package cmd

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/cazylab/ceclust/internal/config"
	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/store"
)

const defaultLockTimeout = 30 * time.Second

// acquireStoreLock serialises runs that share one annotation store. It polls
// until timeout and returns an unlock func that is always safe to call.
func acquireStoreLock(lockPath string, timeout time.Duration) (*flock.Flock, func(), error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, func() {}, errors.Wrapf(err, "cannot create lock directory for %s", lockPath)
	}
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, func() {}, errors.Wrap(err, "cannot acquire store lock")
		}
		if locked {
			return l, func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, func() {}, errors.WithHintf(
				errors.Newf("another run is using the store (lock: %s)", lockPath),
				"wait for it to finish or raise --lock-timeout")
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// lockPathFor picks the lock file for cfg: lock_file if set, <database>.lock
// for SQLite, and a per-database file in the user cache dir for Postgres.
func lockPathFor(cfg *config.Config) (string, error) {
	if cfg.LockFile != "" {
		return cfg.LockFile, nil
	}
	if !store.IsPostgresDSN(cfg.Database) {
		return cfg.Database + ".lock", nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		return "", errors.WithHint(errors.New("cannot determine lock directory for postgres store"),
			"set lock_file in ceclust.yaml")
	}
	return filepath.Join(cacheDir, "ceclust", postgresLockName(cfg.Database)), nil
}

// postgresLockName derives a file name from the DSN host and database,
// leaving out credentials.
func postgresLockName(dsn string) string {
	name := "postgres"
	if u, err := url.Parse(dsn); err == nil {
		name = u.Host + "_" + strings.TrimPrefix(u.Path, "/")
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	return clean + ".lock"
}
