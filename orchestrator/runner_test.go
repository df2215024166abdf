package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
)

// fileChain is a two stage graph: copy reads in and writes mid, upper reads
// mid and writes out. Each stage counts its executions.
type fileChain struct {
	dir            string
	in, mid, out   string
	copies, uppers int
	failUpper      bool
	upperParam     string
}

func newFileChain(t *testing.T) *fileChain {
	t.Helper()
	dir := t.TempDir()
	fc := &fileChain{
		dir: dir,
		in:  filepath.Join(dir, "in.txt"),
		mid: filepath.Join(dir, "mid.txt"),
		out: filepath.Join(dir, "out.txt"),
	}
	require.NoError(t, os.WriteFile(fc.in, []byte("hello"), 0o644))
	return fc
}

func (fc *fileChain) graph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph([]Stage{
		{
			Name:    "copy",
			Inputs:  []string{fc.in},
			Outputs: []string{fc.mid},
			Run: func(context.Context) error {
				fc.copies++
				data, err := os.ReadFile(fc.in)
				if err != nil {
					return err
				}
				return os.WriteFile(fc.mid, data, 0o644)
			},
		},
		{
			Name:    "upper",
			Deps:    []string{"copy"},
			Inputs:  []string{fc.mid},
			Outputs: []string{fc.out},
			Params:  map[string]string{"suffix": fc.upperParam},
			Run: func(context.Context) error {
				fc.uppers++
				if fc.failUpper {
					return fmt.Errorf("upper exploded")
				}
				data, err := os.ReadFile(fc.mid)
				if err != nil {
					return err
				}
				return os.WriteFile(fc.out, append(data, fc.upperParam...), 0o644)
			},
		},
	})
	require.NoError(t, err)
	return g
}

func (fc *fileChain) run(t *testing.T, opts ...Option) (*Report, error) {
	t.Helper()
	l, _ := log.NewTestLogger(log.LevelError)
	opts = append([]Option{WithLogger(l)}, opts...)
	return NewRunner(fc.graph(t), filepath.Join(fc.dir, ".pipeline", "state.json"), opts...).Run(context.Background())
}

func TestRunnerCachesUnchangedStages(t *testing.T) {
	fc := newFileChain(t)

	rep, err := fc.run(t)
	require.NoError(t, err)
	assert.Equal(t, StatusRan, rep.Status("copy"))
	assert.Equal(t, StatusRan, rep.Status("upper"))
	assert.NotEmpty(t, rep.RunID)

	rep2, err := fc.run(t)
	require.NoError(t, err)
	assert.Equal(t, StatusCached, rep2.Status("copy"))
	assert.Equal(t, StatusCached, rep2.Status("upper"))
	assert.NotEqual(t, rep.RunID, rep2.RunID)
	assert.Equal(t, 1, fc.copies)
	assert.Equal(t, 1, fc.uppers)
}

func TestRunnerRerunsOnInputChange(t *testing.T) {
	fc := newFileChain(t)
	_, err := fc.run(t)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(fc.in, []byte("changed"), 0o644))
	rep, err := fc.run(t)
	require.NoError(t, err)
	assert.Equal(t, StatusRan, rep.Status("copy"))
	assert.Equal(t, StatusRan, rep.Status("upper"), "downstream of a stage that ran")
	assert.Equal(t, 2, fc.uppers)
}

func TestRunnerRerunsOnParamChangeOnly(t *testing.T) {
	fc := newFileChain(t)
	_, err := fc.run(t)
	require.NoError(t, err)

	fc.upperParam = "!"
	rep, err := fc.run(t)
	require.NoError(t, err)
	assert.Equal(t, StatusCached, rep.Status("copy"))
	assert.Equal(t, StatusRan, rep.Status("upper"))

	out, _ := os.ReadFile(fc.out)
	assert.Equal(t, "hello!", string(out))
}

func TestRunnerRerunsOnMissingOutput(t *testing.T) {
	fc := newFileChain(t)
	_, err := fc.run(t)
	require.NoError(t, err)

	require.NoError(t, os.Remove(fc.out))
	rep, err := fc.run(t)
	require.NoError(t, err)
	assert.Equal(t, StatusCached, rep.Status("copy"))
	assert.Equal(t, StatusRan, rep.Status("upper"))
}

func TestRunnerForce(t *testing.T) {
	fc := newFileChain(t)
	_, err := fc.run(t)
	require.NoError(t, err)

	rep, err := fc.run(t, WithForce(true))
	require.NoError(t, err)
	assert.Equal(t, StatusRan, rep.Status("copy"))
	assert.Equal(t, StatusRan, rep.Status("upper"))
	assert.Equal(t, 2, fc.copies)
}

func TestRunnerFailureNamesStageAndKeepsState(t *testing.T) {
	fc := newFileChain(t)
	fc.failUpper = true

	rep, err := fc.run(t)
	var se *StageError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "upper", se.Stage)
	assert.Contains(t, err.Error(), "upper exploded")
	assert.Equal(t, StatusFailed, rep.Status("upper"))

	st, err := LoadState(filepath.Join(fc.dir, ".pipeline", "state.json"))
	require.NoError(t, err)
	assert.Contains(t, st.Stages, "copy")
	assert.NotContains(t, st.Stages, "upper")

	// the failed stage is retried, the successful one is not
	fc.failUpper = false
	rep, err = fc.run(t)
	require.NoError(t, err)
	assert.Equal(t, StatusCached, rep.Status("copy"))
	assert.Equal(t, StatusRan, rep.Status("upper"))
}

func TestRunnerSkipsAfterFailure(t *testing.T) {
	dir := t.TempDir()
	ran := false
	g, err := NewGraph([]Stage{
		{Name: "a", Run: func(context.Context) error { return fmt.Errorf("boom") }},
		{Name: "b", Deps: []string{"a"}, Run: func(context.Context) error { ran = true; return nil }},
	})
	require.NoError(t, err)

	l, _ := log.NewTestLogger(log.LevelError)
	rep, err := NewRunner(g, filepath.Join(dir, "state.json"), WithLogger(l)).Run(context.Background())
	require.Error(t, err)
	assert.False(t, ran)
	assert.Equal(t, StatusSkipped, rep.Status("b"))
}

func TestRunnerRecoversPanics(t *testing.T) {
	g, err := NewGraph([]Stage{
		{Name: "bad", Run: func(context.Context) error { panic("kaboom") }},
	})
	require.NoError(t, err)

	l, _ := log.NewTestLogger(log.LevelError)
	_, err = NewRunner(g, filepath.Join(t.TempDir(), "state.json"), WithLogger(l)).Run(context.Background())
	var se *StageError
	require.True(t, errors.As(err, &se))
	var pe *errors.PanicError
	assert.True(t, errors.As(err, &pe))
}

func TestRunnerRequiresDeclaredOutputs(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGraph([]Stage{
		{Name: "lazy", Outputs: []string{filepath.Join(dir, "never.txt")}, Run: noop},
	})
	require.NoError(t, err)

	l, _ := log.NewTestLogger(log.LevelError)
	_, err = NewRunner(g, filepath.Join(dir, "state.json"), WithLogger(l)).Run(context.Background())
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "lazy", se.Stage)
}

func TestRunnerCancelled(t *testing.T) {
	fc := newFileChain(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, _ := log.NewTestLogger(log.LevelError)
	rep, err := NewRunner(fc.graph(t), filepath.Join(fc.dir, "state.json"), WithLogger(l)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusSkipped, rep.Status("copy"))
	assert.Zero(t, fc.copies)
}

func TestStampIgnoresParamOrderButNotValues(t *testing.T) {
	a := &Stage{Name: "s", Params: map[string]string{"x": "1", "y": "2"}}
	b := &Stage{Name: "s", Params: map[string]string{"y": "2", "x": "1"}}
	c := &Stage{Name: "s", Params: map[string]string{"x": "1", "y": "3"}}

	sa, err := Stamp(a)
	require.NoError(t, err)
	sb, _ := Stamp(b)
	sc, _ := Stamp(c)
	assert.Equal(t, sa, sb)
	assert.NotEqual(t, sa, sc)
}

func TestLoadStateRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":9,"stages":{}}`), 0o644))
	_, err := LoadState(path)
	assert.Error(t, err)
}
