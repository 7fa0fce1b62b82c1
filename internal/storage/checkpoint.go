package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	// MaxAutoCheckpoints is how many automatic checkpoints are retained.
	MaxAutoCheckpoints = 5

	checkpointExt = ".db"
	autoTagLayout = "2006-01-02-150405.000000"
)

var checkpointIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Checkpoint errors.
var (
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	ErrCheckpointCorrupted = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists    = errors.New("checkpoint already exists")
	ErrInvalidCheckpointID = errors.New("invalid checkpoint id")
)

// CheckpointManager snapshots the database into a checkpoints directory next
// to it. Every snapshot is a standalone SQLite file whose checkpoint_metadata
// table holds the single row describing it; the live database keeps that
// table empty.
type CheckpointManager struct {
	db     *sql.DB
	now    func() time.Time
	dbPath string
	dir    string
}

// CheckpointInfo describes one snapshot. RowCounts maps each stored key to its
// element count (1 for non-array values).
type CheckpointInfo struct {
	CreatedAt     time.Time
	RowCounts     map[string]int
	ID            string
	Description   string
	FileSize      int64
	SchemaVersion int
	IsAuto        bool
}

// NewCheckpointManager creates the checkpoints directory for dbPath.
func NewCheckpointManager(db *sql.DB, dbPath string) (*CheckpointManager, error) {
	dir := filepath.Join(filepath.Dir(dbPath), "checkpoints")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{db: db, now: time.Now, dbPath: dbPath, dir: dir}, nil
}

// Create snapshots the database under tag. An empty tag is generated from the
// current time.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	if tag == "" {
		tag = "checkpoint-" + cm.now().Format("2006-01-02-150405")
	}
	return cm.create(ctx, tag, description, false)
}

// AutoCheckpoint snapshots the database ahead of operation and prunes the
// oldest automatic checkpoints beyond MaxAutoCheckpoints.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, operation string) error {
	id := fmt.Sprintf("auto-%s-%s", operation, cm.now().Format(autoTagLayout))
	if _, err := cm.create(ctx, id, "Automatic checkpoint before "+operation, true); err != nil {
		return fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.pruneAuto(ctx); err != nil {
		slog.Warn("failed to prune old auto-checkpoints", "error", err)
	}
	return nil
}

func (cm *CheckpointManager) create(ctx context.Context, id, description string, isAuto bool) (*CheckpointInfo, error) {
	path, err := cm.path(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointExists, id)
	}

	info := CheckpointInfo{
		ID:          id,
		CreatedAt:   cm.now().UTC(),
		Description: description,
		IsAuto:      isAuto,
	}
	if err := cm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&info.SchemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}
	if info.RowCounts, err = countRows(ctx, cm.db); err != nil {
		return nil, fmt.Errorf("failed to count stored values: %w", err)
	}

	if err := cm.snapshot(ctx, path); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}
	if err := writeMetadata(ctx, path, info); err != nil {
		removeQuietly(path)
		return nil, fmt.Errorf("failed to record checkpoint metadata: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}
	info.FileSize = stat.Size()

	slog.Debug("Created checkpoint", "id", id, "auto", isAuto, "size", info.FileSize)
	return &info, nil
}

// List returns every readable checkpoint, newest first. Files whose metadata
// cannot be read are skipped.
func (cm *CheckpointManager) List(ctx context.Context) ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(cm.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != checkpointExt {
			continue
		}

		info, err := readMetadata(ctx, filepath.Join(cm.dir, entry.Name()))
		if err != nil {
			slog.Debug("Skipping unreadable checkpoint", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, info)
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Info returns the metadata of one checkpoint.
func (cm *CheckpointManager) Info(ctx context.Context, id string) (*CheckpointInfo, error) {
	path, err := cm.existing(id)
	if err != nil {
		return nil, err
	}

	info, err := readMetadata(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCheckpointCorrupted, id, err)
	}
	return &info, nil
}

// Restore replaces the database file with checkpoint id. The manager's
// database handle is closed and must be reopened by the caller.
func (cm *CheckpointManager) Restore(ctx context.Context, id string) error {
	path, err := cm.existing(id)
	if err != nil {
		return err
	}
	if err := verifyIntegrity(ctx, path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCheckpointCorrupted, id, err)
	}

	// Stage the copy next to the database so the final rename cannot cross
	// filesystems.
	staged := cm.dbPath + ".restoring"
	if err := copyFile(path, staged); err != nil {
		return fmt.Errorf("failed to stage checkpoint: %w", err)
	}
	if err := clearMetadata(ctx, staged); err != nil {
		removeQuietly(staged)
		return fmt.Errorf("failed to prepare checkpoint: %w", err)
	}

	if err := cm.db.Close(); err != nil {
		removeQuietly(staged)
		return fmt.Errorf("failed to close database: %w", err)
	}

	// A leftover WAL would be replayed over the restored file.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(cm.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove WAL file before restore", "error", err, "suffix", suffix)
		}
	}

	if err := os.Rename(staged, cm.dbPath); err != nil {
		removeQuietly(staged)
		return fmt.Errorf("failed to restore checkpoint: %w", err)
	}

	slog.Info("Restored checkpoint", "id", id, "database", cm.dbPath)
	return nil
}

// Delete removes checkpoint id.
func (cm *CheckpointManager) Delete(_ context.Context, id string) error {
	path, err := cm.path(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
		}
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}

func (cm *CheckpointManager) pruneAuto(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		kept++
		if kept <= MaxAutoCheckpoints {
			continue
		}
		if err := cm.Delete(ctx, cp.ID); err != nil {
			slog.Debug("failed to delete old auto-checkpoint", "error", err, "checkpoint", cp.ID)
		}
	}
	return nil
}

// path maps a checkpoint id to its file, rejecting ids that could escape the
// checkpoints directory.
func (cm *CheckpointManager) path(id string) (string, error) {
	if !checkpointIDPattern.MatchString(id) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidCheckpointID, id)
	}
	return filepath.Join(cm.dir, id+checkpointExt), nil
}

func (cm *CheckpointManager) existing(id string) (string, error) {
	path, err := cm.path(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
		}
		return "", fmt.Errorf("failed to access checkpoint: %w", err)
	}
	return path, nil
}

func (cm *CheckpointManager) snapshot(ctx context.Context, dest string) error {
	if _, err := cm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// VACUUM INTO writes a compacted, consistent copy in one statement.
	query := "VACUUM INTO '" + strings.ReplaceAll(dest, "'", "''") + "'"
	if _, err := cm.db.ExecContext(ctx, query); err != nil {
		removeQuietly(dest)
		return err
	}
	return nil
}

// countRows reports the element count of every stored value: the array
// length for JSON arrays and 1 for anything else.
func countRows(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT key,
			CASE WHEN json_valid(value) AND json_type(value) = 'array'
				THEN json_array_length(value)
				ELSE 1 END
		FROM kv
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

func openSnapshot(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func writeMetadata(ctx context.Context, path string, info CheckpointInfo) error {
	counts, err := json.Marshal(info.RowCounts)
	if err != nil {
		return err
	}

	db, err := openSnapshot(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoint_metadata (id, created_at, description, row_counts, schema_version, is_auto)
		VALUES (?, ?, ?, ?, ?, ?)`,
		info.ID,
		info.CreatedAt.Format(time.RFC3339Nano),
		info.Description,
		string(counts),
		info.SchemaVersion,
		info.IsAuto,
	)
	return err
}

func readMetadata(ctx context.Context, path string) (CheckpointInfo, error) {
	var info CheckpointInfo

	stat, err := os.Stat(path)
	if err != nil {
		return info, err
	}
	info.FileSize = stat.Size()

	db, err := openSnapshot(path)
	if err != nil {
		return info, err
	}
	defer func() { _ = db.Close() }()

	var createdAt, counts string
	err = db.QueryRowContext(ctx, `
		SELECT id, created_at, description, row_counts, schema_version, is_auto
		FROM checkpoint_metadata LIMIT 1`,
	).Scan(&info.ID, &createdAt, &info.Description, &counts, &info.SchemaVersion, &info.IsAuto)
	if err != nil {
		return info, err
	}

	if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return info, fmt.Errorf("bad created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(counts), &info.RowCounts); err != nil {
		return info, fmt.Errorf("bad row_counts: %w", err)
	}
	return info, nil
}

func clearMetadata(ctx context.Context, path string) error {
	db, err := openSnapshot(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, "DELETE FROM checkpoint_metadata")
	return err
}

func verifyIntegrity(ctx context.Context, path string) error {
	db, err := openSnapshot(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return errors.New(result)
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove file", "path", path, "error", err)
	}
}
