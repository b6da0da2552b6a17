package v1

// State selects the direction of the operation.
type State string

const (
	StateArchived   State = "archived"
	StateUnarchived State = "unarchived"
)

// ArchiveRequest is the declarative description of one archive or unarchive
// operation. It is the entire boundary contract of the engine: the caller
// builds one request, the engine returns one OperationResult.
type ArchiveRequest struct {
	// Source is the file or directory to archive, or the archive file to
	// extract.
	Source string `yaml:"source" json:"source" validate:"required"`

	// Dest is the archive file to create, or the directory to extract into.
	Dest string `yaml:"dest" json:"dest" validate:"required"`

	// Format selects the archive format (tar.gz, tar.bz2, zip). Optional for
	// unarchiving, where it is inferred from the source filename.
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=tar.gz tar.bz2 zip"`

	// Compression overrides the format's natural compression method
	// (none, gzip, bzip2, pigz).
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty" validate:"omitempty,oneof=none gzip bzip2 pigz"`

	// State is either "archived" or "unarchived".
	State State `yaml:"state" json:"state" validate:"required,oneof=archived unarchived"`

	// DeleteSource removes the source tree after a confirmed successful
	// operation.
	DeleteSource bool `yaml:"delete_source,omitempty" json:"delete_source,omitempty"`

	// Include lists glob patterns selecting members to archive. Empty means
	// match all.
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`

	// Exclude lists glob patterns removing members from the selection. Empty
	// means match none.
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	// Upload configures where the finished archive is shipped (default:
	// nowhere).
	Upload *UploadSpec `yaml:"upload,omitempty" json:"upload,omitempty"`
}

// UploadSpec configures post-archive upload (one of the fields should be set).
type UploadSpec struct {
	S3 *S3UploadSpec `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// S3UploadSpec configures upload to S3-compatible object storage.
type S3UploadSpec struct {
	Bucket string `yaml:"bucket" json:"bucket" validate:"required"`
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Region string `yaml:"region,omitempty" json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint for compatible services (R2, MinIO).
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`

	// ForcePathStyle enables path-style addressing for MinIO and some
	// S3-compatible services.
	ForcePathStyle bool `yaml:"force_path_style,omitempty" json:"force_path_style,omitempty"`
}

// DiffSummary counts the member-level differences that made an operation
// report changed=true.
type DiffSummary struct {
	Added   int `yaml:"added" json:"added"`
	Removed int `yaml:"removed" json:"removed"`
}

// Failure carries the error taxonomy value and message for a failed
// operation.
type Failure struct {
	Kind    string `yaml:"kind" json:"kind"`
	Message string `yaml:"message" json:"message"`
}

// OperationResult is returned to the caller after every invocation, success
// or failure. It is created fresh per request and never persisted.
type OperationResult struct {
	// Changed reports whether the filesystem was modified. A repeated run
	// against an already-correct destination reports false.
	Changed bool `yaml:"changed" json:"changed"`

	// Path is the resolved destination archive or extraction root.
	Path string `yaml:"path" json:"path"`

	// Format is the archive format that was used, including auto-detected
	// formats on unarchive.
	Format string `yaml:"format,omitempty" json:"format,omitempty"`

	// Compression is the compression method that was used.
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty"`

	Diff *DiffSummary `yaml:"diff,omitempty" json:"diff,omitempty"`

	Failure *Failure `yaml:"failure,omitempty" json:"failure,omitempty"`
}
