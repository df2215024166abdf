package orchestrator

import (
	"os"
	"sort"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
)

const missingInput = "<missing>"

// Stamp hashes what a stage depends on: its name, its parameters in key
// order, and the path and content of every input. An input that does not
// exist hashes to a fixed marker so the stage still runs and reports the
// real error itself.
func Stamp(s *Stage) (string, error) {
	d := fsutil.NewDigest()
	d.AddString("stage").AddString(s.Name)

	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.AddString("param").AddString(k).AddString(s.Params[k])
	}

	for _, in := range s.Inputs {
		d.AddString("input").AddString(in)
		sum, err := fsutil.HashFile(in)
		switch {
		case err == nil:
			d.AddString(sum)
		case errors.Is(err, os.ErrNotExist):
			d.AddString(missingInput)
		default:
			return "", errors.Wrapf(err, "stamp stage %q", s.Name)
		}
	}
	return d.Sum(), nil
}

// missingOutputs lists the declared outputs that are not on disk.
func missingOutputs(s *Stage) ([]string, error) {
	var missing []string
	for _, out := range s.Outputs {
		ok, err := fsutil.Exists(out)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, out)
		}
	}
	return missing, nil
}
