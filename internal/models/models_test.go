package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			assert.Equal(t, tt.want, session.IsExpired())
		})
	}
}

func TestDateScan(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "time", value: time.Date(2024, 5, 17, 18, 30, 0, 0, time.UTC), want: "2024-05-17"},
		{name: "bytes", value: []byte("2024-05-17"), want: "2024-05-17"},
		{name: "string with time suffix", value: "2024-05-17 00:00:00+00:00", want: "2024-05-17"},
		{name: "rfc3339 string", value: "2024-05-17T00:00:00Z", want: "2024-05-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.value))
			assert.Equal(t, tt.want, d.String())
			assert.Equal(t, tt.want != "", d.Valid)
		})
	}
}

func TestDateScanRejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, d.Scan("yesterday"))
	assert.Error(t, d.Scan(42))
}

func TestDateJSON(t *testing.T) {
	point := TrendPoint{Date: NewDate(time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC)), Count: 7}

	data, err := json.Marshal(point)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-02","count":7}`, string(data))

	var decoded TrendPoint
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2024-01-02", decoded.Date.String())

	data, err = json.Marshal(TrendPoint{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":null,"count":0}`, string(data))
}

func TestDateValue(t *testing.T) {
	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewDate(time.Date(2023, 12, 31, 10, 0, 0, 0, time.UTC)).Value()
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", v)
}
