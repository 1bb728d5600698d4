// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client and works with any S3-compatible server (Ceph,
// Garage, SeaweedFS).
//
// # Basic Usage
//
//	store, err := minio.Connect(ctx, "localhost:9000", "backups", minio.Options{
//	    Prefix:    "photos/",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	manifest, err := backup.Export(ctx, "./data", store)
//
// When AccessKey is empty, credentials are taken from the MINIO_ROOT_USER /
// MINIO_ROOT_PASSWORD or AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY
// environment variables.
package minio
