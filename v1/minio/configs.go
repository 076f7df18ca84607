package minio

const unknownSize int64 = -1

// Config defines the top-level configuration for MinIO.
type Config struct {
	Connection   ConnectionConfig `yaml:"connection"` // Connection details for MinIO server
	UploadConfig UploadConfig     `yaml:"upload"`     // Configuration for upload part size

	// Prefix is prepended to every object key, e.g. "contracts/".
	Prefix string `yaml:"prefix" env:"VECSCHEMA_MINIO_PREFIX"`
}

// ConnectionConfig contains MinIO server connection details.
type ConnectionConfig struct {
	Endpoint        string `yaml:"endpoint" env:"VECSCHEMA_MINIO_ENDPOINT"`                   // MinIO server endpoint, e.g., "localhost:9000"
	AccessKeyID     string `yaml:"access_key_id" env:"VECSCHEMA_MINIO_ACCESS_KEY_ID"`         // MinIO access key
	SecretAccessKey string `yaml:"secret_access_key" env:"VECSCHEMA_MINIO_SECRET_ACCESS_KEY"` // MinIO secret key
	UseSSL          bool   `yaml:"use_ssl" env:"VECSCHEMA_MINIO_USE_SSL"`                     // Use SSL (true for "https", false for "http")
	BucketName      string `yaml:"bucket_name" env:"VECSCHEMA_MINIO_BUCKET"`                  // Bucket holding contract documents
	Region          string `yaml:"region" env:"VECSCHEMA_MINIO_REGION"`                       // Region for the bucket (e.g., "us-east-1")
}

// UploadConfig defines the configuration for uploads.
type UploadConfig struct {
	MinPartSize uint64 `yaml:"min_part_size" env:"VECSCHEMA_MINIO_MIN_PART_SIZE"` // Part size for multipart uploads; zero lets the SDK choose
}

// DefaultConfig returns a config for a local MinIO with the "contracts" bucket.
func DefaultConfig() Config {
	return Config{
		Connection: ConnectionConfig{
			Endpoint:   "localhost:9000",
			BucketName: "contracts",
			Region:     "us-east-1",
		},
	}
}
