// Package blobstore abstracts where graph dumps, ontology documents and
// build reports live.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, read through mmap
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 with range reads, parallel staging and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Dumps are consumed front to back exactly once per build, so NewReader is the
// common entry point. Stores that implement Stager can first copy a large
// object to local disk, which is how remote dumps are usually handled.
package blobstore
