package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStore_CompressionRoundTrip(t *testing.T) {
	s, err := NewDraftStore(nil)
	require.NoError(t, err)

	payload := []byte(`{"lines":[{"designation":"Vidange","quantity":"1"}]}`)
	compressed := s.encoder.EncodeAll(payload, nil)

	raw, err := s.decode(compressed, CompressionZstd)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)

	raw, err = s.decode(payload, CompressionNone)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)

	_, err = s.decode([]byte("not zstd"), CompressionZstd)
	assert.Error(t, err)
}
