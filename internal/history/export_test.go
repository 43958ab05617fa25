package history

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precipwatch/internal/types"
)

func TestExportGzipJSON(t *testing.T) {
	rows := []types.AlertHistory{
		{
			ID:             "h1",
			AlertID:        "a1",
			CityName:       "Zurich",
			Category:       types.CategorySnowfall,
			ObservedValue:  7.5,
			ThresholdValue: 5.0,
			TriggeredAt:    time.Date(2026, 1, 10, 6, 0, 0, 0, time.UTC),
		},
		{
			ID:             "h2",
			AlertID:        "a2",
			CityName:       "Geneva",
			Category:       types.CategoryRainfall,
			ObservedValue:  20.0,
			ThresholdValue: 12.5,
			TriggeredAt:    time.Date(2026, 1, 11, 6, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportGzipJSON(&buf, rows))

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	defer gz.Close()

	var decoded []types.AlertHistory
	require.NoError(t, json.NewDecoder(gz).Decode(&decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, rows[0].ID, decoded[0].ID)
	assert.Equal(t, 7.5, decoded[0].ObservedValue)
	assert.Equal(t, types.CategoryRainfall, decoded[1].Category)
	assert.Equal(t, rows[1].TriggeredAt, decoded[1].TriggeredAt)
}

func TestExportGzipJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportGzipJSON(&buf, nil))

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	defer gz.Close()

	var decoded []types.AlertHistory
	require.NoError(t, json.NewDecoder(gz).Decode(&decoded))
	assert.Empty(t, decoded)
}
