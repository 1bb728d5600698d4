package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/haystack/blobstore"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		raw  string
		want target
	}{
		{"/var/backups", target{scheme: "dir", path: "/var/backups"}},
		{"dir:///var/backups", target{scheme: "dir", path: "/var/backups"}},
		{"s3://photos/haystack/daily/", target{scheme: "s3", bucket: "photos", prefix: "haystack/daily"}},
		{"minio://localhost:9000/photos/haystack", target{scheme: "minio", host: "localhost:9000", bucket: "photos", prefix: "haystack"}},
		{"minio://localhost:9000/photos", target{scheme: "minio", host: "localhost:9000", bucket: "photos"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseTarget(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want.scheme, got.scheme)
			assert.Equal(t, tt.want.path, got.path)
			assert.Equal(t, tt.want.host, got.host)
			assert.Equal(t, tt.want.bucket, got.bucket)
			assert.Equal(t, tt.want.prefix, got.prefix)
		})
	}
}

func TestParseTargetErrors(t *testing.T) {
	for _, raw := range []string{
		"",
		"ftp://host/path",
		"s3:///prefix",
		"minio:///bucket",
		"minio://localhost:9000/",
		"dir://",
	} {
		_, err := parseTarget(raw)
		assert.Error(t, err, raw)
	}
}

func TestTargetQueryParams(t *testing.T) {
	tgt, err := parseTarget("minio://localhost:9000/photos?secure=maybe")
	require.NoError(t, err)
	_, err = tgt.open(t.Context())
	assert.Error(t, err)

	tgt, err = parseTarget("s3://photos?path_style=true&region=eu-west-1")
	require.NoError(t, err)
	ok, err := tgt.boolParam("path_style")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "eu-west-1", tgt.query.Get("region"))
}

func TestOpenDirTarget(t *testing.T) {
	tgt, err := parseTarget("dir://" + t.TempDir())
	require.NoError(t, err)
	store, err := tgt.open(t.Context())
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, store)
}
