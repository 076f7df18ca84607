// Package minio provides a small MinIO/S3 client used to archive generated
// Pact contract documents.
//
// Every operation is scoped to one bucket and an optional key prefix. The
// bucket is created on startup when missing.
//
// # Usage
//
//	client, err := minio.NewClient(minio.Config{
//	    Connection: minio.ConnectionConfig{
//	        Endpoint:        "localhost:9000",
//	        AccessKeyID:     "minio",
//	        SecretAccessKey: "minio123",
//	        BucketName:      "contracts",
//	    },
//	    Prefix: "pacts",
//	}, log)
//
//	_, err = client.Put(ctx, "search-service-vecstore.json", bytes.NewReader(doc), int64(len(doc)))
//	data, err := client.Get(ctx, "search-service-vecstore.json")
//
// The migration package adapts a Client into a contract archive:
//
//	archive := migration.NewObjectArchive(client)
//
// # Errors
//
// MinIO error responses are translated into ErrObjectNotFound,
// ErrBucketNotFound and ErrAccessDenied. Other errors are returned unchanged.
package minio
