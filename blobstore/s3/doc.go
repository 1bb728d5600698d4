// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("photos/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	manifest, err := backup.Export(ctx, "./data", store)
//
// Credentials and region come from the default AWS configuration chain
// (environment, shared config files, instance roles).
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart streaming uploads through the S3 upload manager
//   - CRC32C integrity checksums
//   - Automatic pagination for listing
package s3
