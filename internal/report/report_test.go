package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rbbench/internal/bench"
	"github.com/Sumatoshi-tech/rbbench/internal/report"
)

func sampleResults() *bench.Results {
	return &bench.Results{
		Containers:   []string{bench.Hashtable, bench.RBTree},
		Lookups:      1000,
		BaseExponent: 10,
		Hibernate:    true,
		StartedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Rounds: []bench.Round{
			{Index: 0, Keys: 1024, Measurements: []bench.Measurement{
				{Container: bench.Hashtable, InsertNs: 500, LookupNs: 900, Size: 1024, Found: 1000},
				{Container: bench.RBTree, InsertNs: 700, LookupNs: 800, Size: 1024, Found: 1000, HibernatedBytes: 2048},
			}},
			{Index: 1, Keys: 2048, Measurements: []bench.Measurement{
				{Container: bench.Hashtable, InsertNs: 1100, LookupNs: 1500, Size: 2048, Found: 1000},
				{Container: bench.RBTree, InsertNs: 1600, LookupNs: 1700, Size: 2048, Found: 1000, HibernatedBytes: 4096},
			}},
		},
	}
}

func TestWriteTSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteTSV(&buf, sampleResults()))
	assert.Equal(t, "hashtable\trbtree\n900\t800\n1500\t1700\n", buf.String())
}

func TestWriteTSV_NoRounds(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	res := &bench.Results{Containers: []string{bench.Map}}
	require.NoError(t, report.WriteTSV(&buf, res))
	assert.Equal(t, "map\n", buf.String())
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	report.WriteSummary(&buf, sampleResults(), report.SummaryOptions{NoColor: true})

	out := buf.String()
	assert.Contains(t, out, "HASHTABLE LOOKUP")
	assert.Contains(t, out, "RBTREE INSERT")
	assert.Contains(t, out, "2,048")
	assert.Contains(t, out, "4.1 kB")
	assert.Contains(t, out, "1.7µs")
	assert.Contains(t, out, "1,000 lookups per container")
	assert.NotContains(t, out, "\x1b[")
}

func TestVerdict(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	report.Verdict(&buf, true, true, "%d keys", 10)
	report.Verdict(&buf, false, true, "broken: %s", "order")

	assert.Equal(t, "PASS 10 keys\nFAIL broken: order\n", buf.String())
}

func TestCodecs_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, format := range []string{report.FormatJSON, report.FormatYAML, report.FormatGob} {
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			codec, err := report.CodecFor(format)
			require.NoError(t, err)
			assert.Equal(t, format, codec.Format())

			path := filepath.Join(t.TempDir(), "report."+format)
			want := sampleResults()

			require.NoError(t, report.Save(path, codec, want))

			got, err := report.Load(path)
			require.NoError(t, err)

			assert.Equal(t, want.Rounds, got.Rounds)
			assert.Equal(t, want.Containers, got.Containers)
			assert.True(t, want.StartedAt.Equal(got.StartedAt))
		})
	}
}

func TestCodecFor_Unknown(t *testing.T) {
	t.Parallel()

	_, err := report.CodecFor("xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)

	_, err = report.CodecForPath("report.csv")
	require.ErrorIs(t, err, report.ErrUnknownFormat)

	codec, err := report.CodecForPath("report.YML")
	require.NoError(t, err)
	assert.Equal(t, report.FormatYAML, codec.Format())
}

func TestValidateJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.JSONCodec{}.Encode(&buf, sampleResults()))
	require.NoError(t, report.ValidateJSON(buf.Bytes()))

	err := report.ValidateJSON([]byte(`{"containers": ["btree"], "lookups": -1, "rounds": []}`))
	require.ErrorIs(t, err, report.ErrInvalidReport)
	assert.Contains(t, err.Error(), "lookups")

	err = report.ValidateJSON([]byte(`{not json`))
	require.ErrorIs(t, err, report.ErrInvalidReport)
}

func TestLoad_RejectsSchemaInvalidJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"containers": [], "lookups": 1, "rounds": null}`), 0o600))

	_, err := report.Load(path)
	require.ErrorIs(t, err, report.ErrInvalidReport)
}

func TestWritePlot(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WritePlot(&buf, sampleResults()))

	html := buf.String()
	assert.True(t, strings.Contains(html, "<html") || strings.Contains(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "Insert time")
	assert.Contains(t, html, "rbtree")
	assert.Contains(t, html, "2,048")
}
