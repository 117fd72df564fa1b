package client

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildbid/internal/config"
)

func TestNewS3Client_Validation(t *testing.T) {
	_, err := NewS3Client(context.Background(), config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)

	_, err = NewS3Client(context.Background(), config.S3Config{Bucket: "b"})
	assert.Error(t, err)

	_, err = NewS3Client(context.Background(), config.S3Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://localhost:9000"})
	assert.Error(t, err, "custom endpoints need static credentials")
}

func TestS3Client_KeysAndURLs(t *testing.T) {
	c, err := NewS3Client(context.Background(), config.S3Config{
		Bucket:    "bids",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000/",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)

	projectID := uuid.New()
	key, err := c.GenerateFileKey(projectID, "takeoff", "Sheet-A1.PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, fmt.Sprintf("projects/%s/takeoff/", projectID)), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)

	_, err = c.GenerateFileKey(projectID, "invoice", "x.pdf")
	assert.Error(t, err)

	assert.Equal(t, "http://localhost:9000/bids/a/b.pdf", c.GetFileURL("a/b.pdf"))

	aws := &S3Client{bucket: "bids", region: "eu-west-1"}
	assert.Equal(t, "https://bids.s3.eu-west-1.amazonaws.com/k", aws.GetFileURL("k"))
}

func TestChunkTokens(t *testing.T) {
	tokens := make([]string, 1203)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("t%d", i)
	}
	chunks := chunkTokens(tokens, multicastLimit)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[2], 203)
	assert.Equal(t, "t1202", chunks[2][202])

	assert.Empty(t, chunkTokens(nil, multicastLimit))
}

func TestNewFCMClient_RequiresCredentials(t *testing.T) {
	_, err := NewFCMClient(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestTokenSuffix(t *testing.T) {
	assert.Equal(t, "abc", tokenSuffix("abc"))
	assert.Equal(t, "456789", tokenSuffix("0123456789"))
}
