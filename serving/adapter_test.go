package serving

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/config"
	"github.com/aayushagarwaltech-bot/Transportation/linear"
	"github.com/aayushagarwaltech-bot/Transportation/pipeline"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
	"github.com/aayushagarwaltech-bot/Transportation/schema"
)

var testFeatures = []string{"season", "mnth", "temp", "hum", "windspeed", "weathersit"}

// demand = 100*season + 1000*temp, so predictions are easy to check.
func fittedBundle(t testing.TB, s *schema.Schema) *pipeline.ModelBundle {
	t.Helper()
	rows := [][]float64{
		{1, 1, 0.1, 0.3, 0.2, 1},
		{2, 3, 0.4, 0.5, 0.1, 2},
		{3, 7, 0.8, 0.6, 0.3, 1},
		{4, 11, 0.3, 0.9, 0.25, 3},
		{1, 2, 0.2, 0.4, 0.15, 2},
		{2, 5, 0.6, 0.7, 0.05, 1},
		{3, 8, 0.9, 0.2, 0.35, 2},
		{4, 12, 0.25, 0.8, 0.3, 1},
		{2, 4, 0.5, 0.55, 0.12, 3},
		{3, 9, 0.7, 0.45, 0.22, 2},
	}
	X := mat.NewDense(len(rows), len(rows[0]), nil)
	y := mat.NewDense(len(rows), 1, nil)
	for i, r := range rows {
		X.SetRow(i, r)
		y.Set(i, 0, 100*r[0]+1000*r[2])
	}
	lr := linear.NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))
	return &pipeline.ModelBundle{
		Kind:        config.ModelLinearRegression,
		Fingerprint: s.Fingerprint,
		Features:    append([]string(nil), s.Features...),
		Target:      s.Target,
		NSamples:    len(rows),
		Estimator:   lr,
	}
}

func newTestAdapter(t testing.TB, opts ...Option) (*Adapter, *log.TestLogger) {
	t.Helper()
	s, err := schema.New(testFeatures, "cnt", nil)
	require.NoError(t, err)
	l, _ := log.NewTestLogger(log.LevelDebug)
	a, err := NewAdapter(s, fittedBundle(t, s), append([]Option{WithLogger(l)}, opts...)...)
	require.NoError(t, err)
	return a, l
}

func TestVectorFollowsSchemaOrder(t *testing.T) {
	a, _ := newTestAdapter(t)
	vec, err := a.Vector(map[string]any{
		"season": 2, "mnth": 6, "temp": 0.5, "hum": 0.5, "windspeed": 0.2, "weathersit": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 6, 0.5, 0.5, 0.2, 1}, vec)
}

func TestVectorAliasesAndOrderInvariance(t *testing.T) {
	a, _ := newTestAdapter(t)
	first, err := a.Predict(map[string]any{
		"weather": 1, "wind_speed": 0.2, "humidity": 0.5, "temperature": 0.5, "month": 6, "season": 2,
	})
	require.NoError(t, err)
	second, err := a.Predict(map[string]any{
		"season": 2, "mnth": 6, "temp": 0.5, "hum": 0.5, "windspeed": 0.2, "weathersit": 1,
	})
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, first.Value, second.Value)
	assert.InDelta(t, 700, first.Value, 1e-6)
	assert.Equal(t, testFeatures, first.Schema)
}

func TestPredictDefaultsMissingFieldsToZero(t *testing.T) {
	a, _ := newTestAdapter(t)
	p, err := a.Predict(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, p.Vector)
	assert.InDelta(t, 0, p.Value, 1e-6)
	assert.Equal(t, 0.0, p.Lower, "lower bound is clipped at zero")
	assert.InDelta(t, DefaultBand, p.Upper, 1e-6)

	p, err = a.Predict(map[string]any{"temp": 0.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0.5, 0, 0, 0}, p.Vector)
	assert.InDelta(t, 500, p.Value, 1e-6)
	assert.InDelta(t, 450, p.Lower, 1e-6)
	assert.InDelta(t, 550, p.Upper, 1e-6)
}

func TestPredictBand(t *testing.T) {
	a, _ := newTestAdapter(t, WithBand(10))
	p, err := a.Predict(map[string]any{"season": 3})
	require.NoError(t, err)
	assert.InDelta(t, 290, p.Lower, 1e-6)
	assert.InDelta(t, 310, p.Upper, 1e-6)
	assert.Equal(t, 10.0, p.Band)
}

func TestVectorValueCoercion(t *testing.T) {
	a, _ := newTestAdapter(t)
	vec, err := a.Vector(map[string]any{
		"season":     json.Number("3"),
		"mnth":       "7",
		"temp":       float32(0.25),
		"weathersit": true,
		"hum":        int64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 7, 0.25, 1, 0, 1}, vec)
}

func TestVectorRejectsMalformedValues(t *testing.T) {
	a, _ := newTestAdapter(t)
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"word", "temp", "warm"},
		{"null", "hum", nil},
		{"nan", "temp", math.NaN()},
		{"inf", "windspeed", math.Inf(1)},
		{"object", "season", map[string]any{"v": 1}},
		{"list", "mnth", []any{1, 2}},
		{"bad number", "season", json.Number("1e")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Predict(map[string]any{tt.field: tt.value})
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.ParamName)
		})
	}
}

func TestVectorRejectsDuplicateAlias(t *testing.T) {
	a, _ := newTestAdapter(t)
	_, err := a.Vector(map[string]any{"temp": 0.4, "temperature": 0.5})
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Contains(t, err.Error(), "temp")
}

func TestVectorMatchesMixedCaseSchema(t *testing.T) {
	features := []string{"season", "mnth", "Temp", "hum", "windspeed", "weathersit"}
	s, err := schema.New(features, "cnt", nil)
	require.NoError(t, err)
	a, err := NewAdapter(s, fittedBundle(t, s), WithStrictFields(true))
	require.NoError(t, err)

	for _, key := range []string{"Temp", " Temp ", "temp", "TEMP", "temperature"} {
		vec, err := a.Vector(map[string]any{key: 0.5, "HUM": 0.3})
		require.NoError(t, err, key)
		assert.Equal(t, []float64{0, 0, 0.5, 0.3, 0, 0}, vec, key)
	}

	_, err = a.Vector(map[string]any{"Temp": 0.5, "temp": 0.4})
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
}

func TestUnknownFields(t *testing.T) {
	a, logger := newTestAdapter(t)
	vec, err := a.Vector(map[string]any{"temp": 0.5, "colour": "red"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0.5, 0, 0, 0}, vec)
	assert.True(t, logger.ContainsMessage("ignoring fields outside the schema"))

	strict, _ := newTestAdapter(t, WithStrictFields(true))
	_, err = strict.Vector(map[string]any{"temp": 0.5, "colour": "red"})
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "colour", ve.ParamName)
}

func TestNewAdapterRejectsStaleModel(t *testing.T) {
	s, err := schema.New(testFeatures, "cnt", nil)
	require.NoError(t, err)
	b := fittedBundle(t, s)

	reordered, err := schema.New([]string{"mnth", "season", "temp", "hum", "windspeed", "weathersit"}, "cnt", nil)
	require.NoError(t, err)
	_, err = NewAdapter(reordered, b)
	var mm *errors.SchemaMismatchError
	require.True(t, errors.As(err, &mm), "got %v", err)
	assert.Equal(t, reordered.Features, mm.Schema)
}

func TestPredictReportsMismatchFromModel(t *testing.T) {
	s, err := schema.New(testFeatures, "cnt", nil)
	require.NoError(t, err)
	narrow, err := schema.New(testFeatures[:5], "cnt", nil)
	require.NoError(t, err)

	a := &Adapter{schema: s, bundle: fittedBundle(t, narrow), band: DefaultBand, logger: log.GetLoggerWithName("test")}
	_, err = a.Predict(map[string]any{"temp": 0.5})
	var mm *errors.SchemaMismatchError
	require.True(t, errors.As(err, &mm), "got %v", err)
	assert.Equal(t, 5, mm.Expected)
	assert.Equal(t, 6, mm.Got)
}

func TestAdapterConcurrentUse(t *testing.T) {
	a, _ := newTestAdapter(t)
	input := map[string]any{"season": 2, "temperature": 0.5}
	want, err := a.Predict(input)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]float64, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := a.Predict(input)
			if err == nil {
				results[i] = p.Value
			}
		}(i)
	}
	wg.Wait()
	for _, v := range results {
		assert.Equal(t, want.Value, v)
	}
}

func TestLoadAdapterFallsBackToTestHeader(t *testing.T) {
	cfg := config.Default()
	cfg.Resolve(t.TempDir())

	s, err := schema.New(testFeatures, "cnt", nil)
	require.NoError(t, err)
	_, err = pipeline.SaveBundle(fittedBundle(t, s), cfg.Paths.Model, "")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Paths.Test), 0o755))
	require.NoError(t, os.WriteFile(cfg.Paths.Test,
		[]byte("season,mnth,temp,hum,windspeed,weathersit,cnt\n1,1,0.1,0.3,0.2,1,110\n"), 0o644))

	a, err := LoadAdapter(cfg, WithLogger(log.GetLoggerWithName("test")))
	require.NoError(t, err)
	assert.Equal(t, testFeatures, a.Schema().Features)
	assert.Equal(t, cfg.Serving.Band, a.Band())
}

func TestLoadAdapterMissingModel(t *testing.T) {
	cfg := config.Default()
	cfg.Resolve(t.TempDir())
	s, err := schema.New(testFeatures, "cnt", nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(cfg.Paths.Schema))

	_, err = LoadAdapter(cfg)
	assert.Error(t, err)
}

func BenchmarkVector(b *testing.B) {
	a, _ := newTestAdapter(b)
	input := map[string]any{
		"season": 2, "month": 6, "temperature": 0.5, "humidity": 0.5, "wind_speed": 0.2, "weather": 1,
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Vector(input); err != nil {
			b.Fatal(err)
		}
	}
}
