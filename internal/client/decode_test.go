package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, raw string) RemotePhoto {
	t.Helper()
	var r RemotePhoto
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return r
}

func TestDecodePhoto_Defaults(t *testing.T) {
	p, err := DecodePhoto(decodeJSON(t, `{"id":"gallery/2024/beach"}`))
	require.NoError(t, err)

	assert.Equal(t, "gallery/2024/beach", p.ID)
	assert.Equal(t, "", p.Src)
	assert.Equal(t, 0, p.Width)
	assert.Equal(t, 0, p.Height)
	assert.Equal(t, "beach", p.Title)
	assert.Empty(t, p.Tags)
	assert.True(t, p.TakenAt.IsZero())
}

func TestDecodePhoto_FullRecord(t *testing.T) {
	p, err := DecodePhoto(decodeJSON(t, `{
		"id":"p1","src":"https://img/p1.jpg","width":800,"height":600,
		"title":"Cat","tags":["animal","animal"," pet "],"takenAt":"2024-01-01T00:00:00Z"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Cat", p.Title)
	assert.Equal(t, []string{"animal", "pet"}, p.Tags)
	assert.Equal(t, 2024, p.TakenAt.Year())
	assert.Equal(t, 800, p.Width)
}

func TestDecodePhoto_BadTimestampIsZero(t *testing.T) {
	p, err := DecodePhoto(decodeJSON(t, `{"id":"p1","takenAt":"yesterday"}`))
	require.NoError(t, err)
	assert.True(t, p.TakenAt.IsZero())
}

func TestDecodePhoto_Rejects(t *testing.T) {
	for name, raw := range map[string]string{
		"missing id":     `{"title":"x"}`,
		"empty id":       `{"id":""}`,
		"negative width": `{"id":"a","width":-1}`,
	} {
		_, err := DecodePhoto(decodeJSON(t, raw))
		assert.Error(t, err, name)
	}
}
