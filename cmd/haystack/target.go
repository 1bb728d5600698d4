package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hupe1980/haystack/blobstore"
	"github.com/hupe1980/haystack/blobstore/minio"
	"github.com/hupe1980/haystack/blobstore/s3"
)

// target is a parsed backup location:
//
//	dir:///var/backups/haystack          local directory (a bare path works too)
//	s3://bucket/prefix?region=eu-west-1  AWS S3, default credential chain
//	minio://host:9000/bucket/prefix      MinIO, MINIO_* or AWS_* credentials
type target struct {
	scheme string
	host   string
	bucket string
	prefix string
	path   string
	query  url.Values
}

func parseTarget(raw string) (target, error) {
	if raw == "" {
		return target{}, fmt.Errorf("empty backup target")
	}
	if !strings.Contains(raw, "://") {
		return target{scheme: "dir", path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return target{}, fmt.Errorf("invalid backup target %q: %w", raw, err)
	}

	t := target{scheme: u.Scheme, query: u.Query()}
	switch u.Scheme {
	case "dir", "file":
		t.scheme = "dir"
		t.path = u.Host + u.Path
	case "s3":
		t.bucket = u.Host
		t.prefix = strings.Trim(u.Path, "/")
	case "minio":
		t.host = u.Host
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		t.bucket = bucket
		t.prefix = strings.Trim(prefix, "/")
		if t.host == "" {
			return target{}, fmt.Errorf("invalid backup target %q: missing host", raw)
		}
	default:
		return target{}, fmt.Errorf("unsupported backup target scheme %q", u.Scheme)
	}

	if t.scheme == "dir" && t.path == "" {
		return target{}, fmt.Errorf("invalid backup target %q: missing path", raw)
	}
	if t.scheme != "dir" && t.bucket == "" {
		return target{}, fmt.Errorf("invalid backup target %q: missing bucket", raw)
	}
	return t, nil
}

func (t target) String() string {
	switch t.scheme {
	case "dir":
		return "dir://" + t.path
	case "minio":
		return fmt.Sprintf("minio://%s/%s/%s", t.host, t.bucket, t.prefix)
	default:
		return fmt.Sprintf("%s://%s/%s", t.scheme, t.bucket, t.prefix)
	}
}

func (t target) boolParam(name string) (bool, error) {
	v := t.query.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q in backup target", name, v)
	}
	return b, nil
}

// open connects to the blob store behind t.
func (t target) open(ctx context.Context) (blobstore.BlobStore, error) {
	switch t.scheme {
	case "dir":
		return blobstore.NewLocalStore(t.path), nil
	case "s3":
		pathStyle, err := t.boolParam("path_style")
		if err != nil {
			return nil, err
		}
		opts := []s3.Option{
			s3.WithPrefix(t.prefix),
			s3.WithRegion(t.query.Get("region")),
			s3.WithEndpoint(t.query.Get("endpoint")),
		}
		if pathStyle {
			opts = append(opts, s3.WithPathStyle())
		}
		return s3.New(ctx, t.bucket, opts...)
	case "minio":
		secure, err := t.boolParam("secure")
		if err != nil {
			return nil, err
		}
		create, err := t.boolParam("create_bucket")
		if err != nil {
			return nil, err
		}
		return minio.Connect(ctx, t.host, t.bucket, minio.Options{
			Prefix:       t.prefix,
			Secure:       secure,
			Region:       t.query.Get("region"),
			CreateBucket: create,
		})
	default:
		return nil, fmt.Errorf("unsupported backup target scheme %q", t.scheme)
	}
}
