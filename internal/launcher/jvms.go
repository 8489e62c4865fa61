package launcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/synthlab/launcher/internal/errs"
	"github.com/synthlab/launcher/internal/jvm"
	"github.com/synthlab/launcher/internal/task"
)

// JVMsLen returns the number of registered Java runtimes, including the
// system default at index 0.
func (s *State) JVMsLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.JVMs)
}

// JVMName returns the display name of the runtime at index i.
func (s *State) JVMName(i int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.data.JVMs) {
		return "", errs.Newf(errs.KindPrecondition, "jvm lookup", "index %d out of range", i)
	}
	return s.data.JVMs[i].Name, nil
}

// AddJVM starts a task that probes the binary at path with -version and,
// when it reports a recognizable runtime, registers and commits it.
// The task returns the new registry index.
func (s *State) AddJVM(path string) *task.Task[int] {
	return task.Start(context.Background(), func(ctx context.Context) (int, error) {
		probed, err := jvm.Probe(ctx, path)
		if err != nil {
			return 0, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.data.JVMs = append(s.data.JVMs, probed)
		if err := s.commit(); err != nil {
			s.data.JVMs = s.data.JVMs[:len(s.data.JVMs)-1]
			return 0, err
		}
		s.log.Info("jvm registered", zap.String("name", probed.Name), zap.String("path", path))
		return len(s.data.JVMs) - 1, nil
	})
}

// RemoveJVM removes the runtime at index i and commits. Index 0 is the
// system default and cannot be removed.
func (s *State) RemoveJVM(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i == 0 {
		return errs.Newf(errs.KindPrecondition, "remove jvm", "the system default cannot be removed")
	}
	if i < 0 || i >= len(s.data.JVMs) {
		return errs.Newf(errs.KindPrecondition, "remove jvm", "index %d out of range", i)
	}
	s.data.JVMs = append(s.data.JVMs[:i], s.data.JVMs[i+1:]...)
	return s.commit()
}
