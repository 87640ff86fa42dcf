package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Service_RequiresCredentials(t *testing.T) {
	tests := []Config{
		{},
		{Endpoint: "localhost:9000"},
		{Endpoint: "localhost:9000", AccessKey: "minio"},
	}
	for _, cfg := range tests {
		_, err := NewS3Service(cfg)
		assert.ErrorContains(t, err, "minio.endpoint")
	}
}

func TestNewS3Service(t *testing.T) {
	s, err := NewS3Service(Config{Endpoint: "localhost:9000", AccessKey: "minio", SecretKey: "minio123"})
	require.NoError(t, err)
	assert.NotNil(t, s.client)
}
