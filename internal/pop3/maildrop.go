package pop3

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
)

// maxSnapshotEntries caps the maildrop enumeration at the message-number
// range (§4.8).
const maxSnapshotEntries = 65535

// messageRecord is a single message in a session's maildrop snapshot
// (§3 "Message record").
type messageRecord struct {
	path     string
	filename string
	size     uint64
	hasSize  bool
	deleted  bool
}

// snapshotMaildrop enumerates <maildrop>/new/, building one messageRecord
// per regular file or symlink-to-file entry. Directories and unreadable
// entries are skipped with a log line; the enumeration itself only fails
// if the new/ directory cannot be opened at all.
func snapshotMaildrop(logger *slog.Logger, maildrop string) ([]*messageRecord, error) {
	newDir := filepath.Join(maildrop, "new")

	entries, err := os.ReadDir(newDir)
	if err != nil {
		return nil, err
	}

	records := make([]*messageRecord, 0, len(entries))
	for _, entry := range entries {
		if len(records) >= maxSnapshotEntries {
			logger.Warn("maildrop has more entries than the message-number range, truncating", "maildrop", maildrop)
			break
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("skipping unreadable maildrop entry", "name", entry.Name(), "error", err.Error())
			continue
		}

		mode := info.Mode()
		if mode.IsDir() {
			logger.Warn("skipping directory in maildrop", "name", entry.Name())
			continue
		}
		if mode&os.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(newDir, entry.Name()))
			if err != nil || target.IsDir() {
				logger.Warn("skipping unreadable or directory symlink in maildrop", "name", entry.Name())
				continue
			}
		} else if !mode.IsRegular() {
			continue
		}

		records = append(records, &messageRecord{
			path:     filepath.Join(newDir, entry.Name()),
			filename: entry.Name(),
		})
	}

	return records, nil
}

// sizeOf returns the transcoded size of m, computing it on the first
// call and returning the cached value afterwards (§4.8 STAT/LIST).
func (m *messageRecord) sizeOf() (uint64, error) {
	if m.hasSize {
		return m.size, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := CountTranscoded(bufio.NewReader(f))
	if err != nil {
		return 0, err
	}
	m.size = n
	m.hasSize = true
	return n, nil
}

// finalizeDeletions moves every deleted message from new/ to cur/,
// creating cur/ if necessary. It returns the number of successful
// renames and whether every deletion succeeded (§4.8 QUIT finalization,
// P7).
func finalizeDeletions(logger *slog.Logger, maildrop string, records []*messageRecord) (int, bool) {
	anyDeleted := false
	for _, r := range records {
		if r.deleted {
			anyDeleted = true
			break
		}
	}
	if !anyDeleted {
		return 0, true
	}

	curDir := filepath.Join(maildrop, "cur")
	if err := os.MkdirAll(curDir, 0o755); err != nil {
		logger.Error("failed to create cur/ directory", "maildrop", maildrop, "error", err.Error())
		return 0, false
	}

	ok := true
	count := 0
	for _, r := range records {
		if !r.deleted {
			continue
		}
		dest := filepath.Join(curDir, r.filename)
		if err := os.Rename(r.path, dest); err != nil {
			logger.Error("failed to finalize deleted message", "path", r.path, "error", err.Error())
			ok = false
			continue
		}
		count++
	}
	return count, ok
}
