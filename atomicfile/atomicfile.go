// Package atomicfile provides crash-safe file writes and multi-file
// transactions built on the write-temp/fsync/rename pattern, with optional
// backup-before-overwrite and SHA-256 integrity verification.
//
// Translated from the write-then-rename discipline in
// original_source/app/cli/io/atomic.py (AtomicWriter, RecoveryManager,
// FileTransaction) into synchronous Go: os.CreateTemp for the scratch
// file, os.Rename for the commit, crypto/sha256 for integrity checks.
package atomicfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/localagent/orchestrator/logger"
)

// chunkSize bounds how much of a payload is copied into the temp file at
// once, so writing a large payload doesn't require holding two copies of
// it (the caller's buffer and an io.Copy staging buffer) in memory.
const chunkSize = 64 * 1024

// backupSuffix is appended to a path to name its pre-overwrite backup.
const backupSuffix = ".backup"

// Writer performs a single atomic write to a destination path.
type Writer struct {
	Path            string
	VerifyIntegrity bool
	KeepBackup      bool
	FileMode        os.FileMode
	Logger          *slog.Logger
}

// NewWriter returns a Writer for path with sensible defaults: integrity
// verification on, no retained backup, mode 0644.
func NewWriter(path string) *Writer {
	return &Writer{
		Path:            path,
		VerifyIntegrity: true,
		KeepBackup:      false,
		FileMode:        0o644,
	}
}

// WriteBytes atomically replaces the destination file's contents with data.
func (w *Writer) WriteBytes(data []byte) error {
	if w.Path == "" {
		return &ValidationError{Path: w.Path, Message: "path must not be empty"}
	}

	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &AtomicWriteError{Path: w.Path, Operation: "mkdir", Message: "could not create parent directory", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.Path)+".tmp-*")
	if err != nil {
		return &AtomicWriteError{Path: w.Path, Operation: "create_temp", Message: "could not create temp file", Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if err := w.copyInChunks(tmp, data); err != nil {
		tmp.Close()
		return &AtomicWriteError{Path: w.Path, Operation: "write", Message: "could not write temp file", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &AtomicWriteError{Path: w.Path, Operation: "fsync", Message: "could not flush temp file to disk", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &AtomicWriteError{Path: w.Path, Operation: "close", Message: "could not close temp file", Err: err}
	}
	if err := os.Chmod(tmpPath, w.FileMode); err != nil {
		return &AtomicWriteError{Path: w.Path, Operation: "chmod", Message: "could not set file mode", Err: err}
	}

	var expectedSum string
	if w.VerifyIntegrity {
		expectedSum = sha256Hex(data)
	}

	if err := w.commit(tmpPath, expectedSum); err != nil {
		return err
	}
	committed = true
	return nil
}

// copyInChunks writes data to dst in bounded-size chunks rather than a
// single Write call, matching the streaming approach used for large
// payloads in the original implementation.
func (w *Writer) copyInChunks(dst io.Writer, data []byte) error {
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := dst.Write(data[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// commit performs the backup-then-rename sequence: if the destination
// exists it is renamed aside to its backup path, the temp file is renamed
// into place, and (when integrity verification is on) the committed
// file's checksum is compared against expectedSum. Any failure after the
// destination has been backed up attempts to restore the backup so the
// destination is never left missing.
func (w *Writer) commit(tmpPath, expectedSum string) error {
	log := logger.Or(w.Logger)
	backupPath := w.Path + backupSuffix
	hadBackup := false

	if _, err := os.Stat(w.Path); err == nil {
		if err := os.Rename(w.Path, backupPath); err != nil {
			return &AtomicWriteError{Path: w.Path, Operation: "backup", Message: "could not back up existing file", Err: err}
		}
		hadBackup = true
	}

	if err := os.Rename(tmpPath, w.Path); err != nil {
		if hadBackup {
			if restoreErr := os.Rename(backupPath, w.Path); restoreErr != nil {
				log.Error("atomicfile: failed to restore backup after failed commit",
					"path", w.Path, "restore_error", restoreErr)
			}
		}
		return &AtomicWriteError{Path: w.Path, Operation: "commit", Message: "could not rename temp file into place", Err: err}
	}

	if w.VerifyIntegrity {
		actualSum, err := sha256File(w.Path)
		if err != nil {
			if hadBackup {
				os.Rename(backupPath, w.Path)
			}
			return &AtomicWriteError{Path: w.Path, Operation: "verify", Message: "could not checksum committed file", Err: err}
		}
		if actualSum != expectedSum {
			if hadBackup {
				os.Rename(backupPath, w.Path)
			}
			return &IntegrityError{Path: w.Path, Expected: expectedSum, Actual: actualSum}
		}
	}

	if hadBackup && !w.KeepBackup {
		if err := os.Remove(backupPath); err != nil {
			log.Warn("atomicfile: could not remove backup file", "path", backupPath, "error", err)
		}
	}

	return nil
}

// WriteText atomically writes s as the destination file's contents.
func (w *Writer) WriteText(s string) error {
	return w.WriteBytes([]byte(s))
}

// WriteJSON atomically writes v, marshaled as indented JSON.
func (w *Writer) WriteJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &AtomicWriteError{Path: w.Path, Operation: "marshal_json", Message: "could not marshal value", Err: err}
	}
	return w.WriteBytes(data)
}

// WriteYAML atomically writes v, marshaled as YAML.
func (w *Writer) WriteYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return &AtomicWriteError{Path: w.Path, Operation: "marshal_yaml", Message: "could not marshal value", Err: err}
	}
	return w.WriteBytes(data)
}

// WriteBytes atomically writes data to path using default Writer settings.
func WriteBytes(path string, data []byte) error {
	return NewWriter(path).WriteBytes(data)
}

// WriteText atomically writes s to path using default Writer settings.
func WriteText(path, s string) error {
	return NewWriter(path).WriteText(s)
}

// WriteJSON atomically writes v to path, marshaled as indented JSON.
func WriteJSON(path string, v any) error {
	return NewWriter(path).WriteJSON(v)
}

// SafeCopy atomically copies src's contents to dst using the same
// write-temp-then-rename discipline as Writer.
//
// Grounded on AtomicFileManager.safe_copy in
// original_source/app/cli/io/atomic.py.
func SafeCopy(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return &AtomicWriteError{Path: src, Operation: "copy_read", Message: "could not read source file", Err: err}
	}
	return WriteBytes(dst, data)
}

// SafeMove atomically moves src to dst: a same-filesystem rename when
// possible, falling back to copy-then-delete when the rename fails (for
// example, a cross-filesystem move).
//
// Grounded on AtomicFileManager.safe_move in
// original_source/app/cli/io/atomic.py.
func SafeMove(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &AtomicWriteError{Path: dst, Operation: "mkdir", Message: "could not create destination directory", Err: err}
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := SafeCopy(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return &AtomicWriteError{Path: src, Operation: "move_cleanup", Message: "could not remove source file after copy", Err: err}
	}
	return nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
