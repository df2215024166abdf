package orchestrator

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
)

const stateVersion = 1

// StageRecord is what the runner remembers about a stage's last success.
type StageRecord struct {
	Stamp      string    `json:"stamp"`
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
}

// State is the on-disk run history, usually .pipeline/state.json.
type State struct {
	Version int                    `json:"version"`
	Stages  map[string]StageRecord `json:"stages"`
}

func newState() *State {
	return &State{Version: stateVersion, Stages: map[string]StageRecord{}}
}

// LoadState reads the state file. A missing file is an empty history.
func LoadState(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newState(), nil
		}
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	st := newState()
	if err := json.NewDecoder(f).Decode(st); err != nil {
		return nil, errors.Wrapf(err, "decode state %s", path)
	}
	if st.Version != stateVersion {
		return nil, errors.Newf("state %s: unsupported version %d", path, st.Version)
	}
	if st.Stages == nil {
		st.Stages = map[string]StageRecord{}
	}
	return st, nil
}

// Save writes the state atomically.
func (s *State) Save(path string) error {
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	})
}
