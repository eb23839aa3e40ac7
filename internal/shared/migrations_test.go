package shared

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.SQL == "" {
				t.Errorf("migration version %d has no SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"search_cache", "search_misses"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "nested", "cache.db"))
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("file database waits on concurrent writers", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "cache.db"))
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		var timeout int64
		if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("failed to read busy_timeout: %v", err)
		}
		if timeout != BusyTimeout.Milliseconds() {
			t.Errorf("busy_timeout = %d, want %d", timeout, BusyTimeout.Milliseconds())
		}

		if _, err := db.Exec("CREATE TABLE hits (n INTEGER)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}

		const writers = 10
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tx, err := db.Begin()
				if err != nil {
					errs <- err
					return
				}
				if _, err := tx.Exec("INSERT INTO hits (n) VALUES (?)", i); err != nil {
					tx.Rollback()
					errs <- err
					return
				}
				errs <- tx.Commit()
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("concurrent write failed: %v", err)
			}
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM hits").Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != writers {
			t.Errorf("count = %d, want %d", count, writers)
		}
	})

	t.Run("stripComments", func(t *testing.T) {
		got := stripComments("-- header\nSELECT 1; -- trailing\n\n")
		if got != "SELECT 1;" {
			t.Errorf("stripComments() = %q", got)
		}
	})
}
