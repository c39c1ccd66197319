// Package s3 provides an S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "kg-dumps",
//	    s3.WithPrefix("rtx-kg2/2.10/"),
//	    s3.WithRegion("us-west-2"),
//	)
//
// Dumps are large, so Stage downloads them with parallel ranged GETs
// into a local file before parsing. Build reports are written with Put,
// which switches to multipart uploads above the part size.
package s3
