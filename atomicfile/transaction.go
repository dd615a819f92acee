package atomicfile

import (
	"log/slog"
	"os"

	"github.com/localagent/orchestrator/logger"
)

// opKind identifies the kind of filesystem change a recovery point undoes.
type opKind int

const (
	opWrite opKind = iota
	opDelete
	opCreate
	opCopy
	opMove
)

// recoveryPoint records enough state to undo one operation performed
// during a transaction: a write records the previous file contents (or
// that the file didn't exist), a delete records the deleted contents, a
// create records that the path should be removed to undo it, a copy
// records only the destination (undone by removing it), and a move
// records both the destination and the original source (undone by
// moving the destination back).
type recoveryPoint struct {
	kind        opKind
	path        string
	priorData   []byte
	priorExists bool
	movedFrom   string
}

// Transaction batches several atomic writes, copies, moves, and deletes
// into one unit: Commit applies every operation in order, and if any
// operation fails the transaction rolls back everything already applied,
// in reverse order, before returning the error.
//
// Grounded on FileTransaction in original_source/app/cli/io/atomic.py,
// which keeps the same add_write/add_copy/add_move/add_delete/commit/
// rollback shape.
type Transaction struct {
	Logger *slog.Logger

	ops       []func() (recoveryPoint, error)
	completed []recoveryPoint
}

// NewTransaction returns an empty Transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// AddWrite queues an atomic write of data to path.
func (t *Transaction) AddWrite(path string, data []byte) *Transaction {
	t.ops = append(t.ops, func() (recoveryPoint, error) {
		rp, priorErr := capturePrior(path)
		if priorErr != nil {
			return recoveryPoint{}, priorErr
		}
		if err := WriteBytes(path, data); err != nil {
			return recoveryPoint{}, err
		}
		return rp, nil
	})
	return t
}

// AddJSON queues an atomic write of v, marshaled as JSON, to path.
func (t *Transaction) AddJSON(path string, v any) *Transaction {
	t.ops = append(t.ops, func() (recoveryPoint, error) {
		rp, priorErr := capturePrior(path)
		if priorErr != nil {
			return recoveryPoint{}, priorErr
		}
		if err := WriteJSON(path, v); err != nil {
			return recoveryPoint{}, err
		}
		return rp, nil
	})
	return t
}

// AddCopy queues an atomic copy of src to dst. Rolling back a copy
// removes dst, matching FileTransaction._rollback_operation's copy case.
func (t *Transaction) AddCopy(src, dst string) *Transaction {
	t.ops = append(t.ops, func() (recoveryPoint, error) {
		if err := SafeCopy(src, dst); err != nil {
			return recoveryPoint{}, err
		}
		return recoveryPoint{kind: opCopy, path: dst}, nil
	})
	return t
}

// AddMove queues an atomic move of src to dst (rename, falling back to
// copy+delete across filesystems). Rolling back a move moves dst back to
// src, matching FileTransaction._rollback_operation's move case.
func (t *Transaction) AddMove(src, dst string) *Transaction {
	t.ops = append(t.ops, func() (recoveryPoint, error) {
		if err := SafeMove(src, dst); err != nil {
			return recoveryPoint{}, err
		}
		return recoveryPoint{kind: opMove, path: dst, movedFrom: src}, nil
	})
	return t
}

// AddDelete queues the removal of path.
func (t *Transaction) AddDelete(path string) *Transaction {
	t.ops = append(t.ops, func() (recoveryPoint, error) {
		rp, priorErr := capturePrior(path)
		if priorErr != nil {
			return recoveryPoint{}, priorErr
		}
		if !rp.priorExists {
			return rp, nil
		}
		if err := os.Remove(path); err != nil {
			return recoveryPoint{}, &AtomicWriteError{Path: path, Operation: "delete", Message: "could not remove file", Err: err}
		}
		return rp, nil
	})
	return t
}

// capturePrior snapshots path's current contents (if any) so the
// operation about to run on it can be undone later.
func capturePrior(path string) (recoveryPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return recoveryPoint{kind: opCreate, path: path, priorExists: false}, nil
		}
		return recoveryPoint{}, &AtomicWriteError{Path: path, Operation: "snapshot", Message: "could not read existing file", Err: err}
	}
	return recoveryPoint{kind: opWrite, path: path, priorData: data, priorExists: true}, nil
}

// Commit applies every queued operation in order. If one fails, Commit
// rolls back every operation already applied, in reverse order, and
// returns the original failure (rollback errors are logged, not
// returned, since the caller needs to know what didn't save).
func (t *Transaction) Commit() error {
	log := logger.Or(t.Logger)

	for _, op := range t.ops {
		rp, err := op()
		if err != nil {
			t.rollback(log)
			return err
		}
		t.completed = append(t.completed, rp)
	}
	return nil
}

// rollback undoes every completed recovery point in reverse order.
func (t *Transaction) rollback(log *slog.Logger) {
	for i := len(t.completed) - 1; i >= 0; i-- {
		rp := t.completed[i]
		if err := restore(rp); err != nil {
			log.Error("atomicfile: rollback step failed, filesystem may be inconsistent",
				"path", rp.path, "error", err)
		}
	}
	t.completed = nil
}

// restore reverts a single recovery point: a copy is undone by removing
// its destination; a move is undone by moving its destination back to
// its source; anything else (write, delete) is a path that either didn't
// exist before its operation, and is removed again, or had prior
// contents, and is restored to them.
func restore(rp recoveryPoint) error {
	switch rp.kind {
	case opCopy:
		if err := os.Remove(rp.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	case opMove:
		return SafeMove(rp.path, rp.movedFrom)
	}

	if !rp.priorExists {
		if err := os.Remove(rp.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return WriteBytes(rp.path, rp.priorData)
}
