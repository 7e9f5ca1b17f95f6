package oss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/prep_go_server/config"
)

func TestDocumentKey(t *testing.T) {
	at := time.Unix(1700000000, 0)

	assert.Equal(t, "documents/7/1700000000_essay.txt", DocumentKey(7, "essay.txt", at))
	assert.Equal(t, "documents/7/1700000000_notes.md", DocumentKey(7, "../../etc/notes.md", at))
	assert.Equal(t, "documents/7/1700000000_a.csv", DocumentKey(7, `C:\Users\me\a.csv`, at))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/plain; charset=utf-8", ContentType(".txt"))
	assert.Equal(t, "text/markdown; charset=utf-8", ContentType(".MD"))
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(".csv"))
	assert.Equal(t, "text/html; charset=utf-8", ContentType(".html"))
	assert.Equal(t, "application/octet-stream", ContentType(".exe"))
}

func TestGetURL_CDN(t *testing.T) {
	c, err := NewClient(&config.OSSConfig{
		Endpoint:        "oss-cn-hangzhou.aliyuncs.com",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		BucketName:      "prep-docs",
		CDNDomain:       "cdn.example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/documents/1/x.txt", c.GetURL("documents/1/x.txt"))
}
