package report

const (
	// DefaultOutputDir receives result and report files.
	DefaultOutputDir = "results"

	// DefaultEndpoint is the default object store endpoint.
	DefaultEndpoint = "localhost:9000"

	// DefaultBucket receives uploaded artifacts.
	DefaultBucket = "vdbfuzz-results"

	// DefaultRegion is the bucket region used at creation time.
	DefaultRegion = "us-east-1"
)

// Config holds the settings for run artifacts: where result and report
// files land locally and whether they also go to an object store.
type Config struct {
	// OutputDir receives result and report files. Created if missing.
	OutputDir string `json:"output_dir" yaml:"output_dir" envconfig:"REPORT_OUTPUT_DIR"`

	// Upload configures the optional object store upload.
	Upload UploadConfig `json:"upload" yaml:"upload"`
}

// UploadConfig holds the object store settings for artifact upload.
type UploadConfig struct {
	// Enabled turns artifact upload on.
	Enabled bool `json:"enabled" yaml:"enabled" envconfig:"REPORT_UPLOAD_ENABLED"`

	// Endpoint is the S3-compatible endpoint, e.g. "localhost:9000".
	Endpoint string `json:"endpoint" yaml:"endpoint" envconfig:"REPORT_UPLOAD_ENDPOINT"`

	// AccessKeyID authenticates the connection.
	AccessKeyID string `json:"access_key_id" yaml:"access_key_id" envconfig:"REPORT_UPLOAD_ACCESS_KEY_ID"`

	// SecretAccessKey authenticates the connection.
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key" envconfig:"REPORT_UPLOAD_SECRET_ACCESS_KEY"`

	// UseSSL selects https.
	UseSSL bool `json:"use_ssl" yaml:"use_ssl" envconfig:"REPORT_UPLOAD_USE_SSL"`

	// Bucket receives the artifacts. Created if missing.
	Bucket string `json:"bucket" yaml:"bucket" envconfig:"REPORT_UPLOAD_BUCKET"`

	// Region is used when the bucket has to be created.
	Region string `json:"region" yaml:"region" envconfig:"REPORT_UPLOAD_REGION"`
}

// DefaultConfig returns a Config that writes files locally and does not
// upload.
func DefaultConfig() Config {
	return Config{
		OutputDir: DefaultOutputDir,
		Upload: UploadConfig{
			Enabled:  false,
			Endpoint: DefaultEndpoint,
			Bucket:   DefaultBucket,
			Region:   DefaultRegion,
		},
	}
}
