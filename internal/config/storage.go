package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Storage backends for prompts and the advice catalog
const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageGit   = "git"
)

// StorageConfig selects where prompt files and the advice catalog are read from
type StorageConfig struct {
	Backend  string `env:"STORAGE_BACKEND" yaml:"backend" default:"local"`
	LocalDir string `env:"STORAGE_LOCAL_DIR" yaml:"local_dir" default:"./resources"`
	// CatalogPath is relative to the catalog namespace
	CatalogPath string `env:"STORAGE_CATALOG_PATH" yaml:"catalog_path" default:"advice_metadatas.json"`

	S3Bucket  string `env:"STORAGE_S3_BUCKET" yaml:"s3_bucket"`
	S3Prefix  string `env:"STORAGE_S3_PREFIX" yaml:"s3_prefix"`
	S3Region  string `env:"STORAGE_S3_REGION" yaml:"s3_region"`
	S3Profile string `env:"STORAGE_S3_PROFILE" yaml:"s3_profile"`

	// Git backend: an existing checkout at GitPath, cloned from GitRemoteURL when missing
	GitPath         string `env:"STORAGE_GIT_PATH" yaml:"git_path"`
	GitRemoteURL    string `env:"STORAGE_GIT_REMOTE_URL" yaml:"git_remote_url"`
	GitBranch       string `env:"STORAGE_GIT_BRANCH" yaml:"git_branch" default:"main"`
	GitSubdir       string `env:"STORAGE_GIT_SUBDIR" yaml:"git_subdir"`
	GitAuthUsername string `env:"STORAGE_GIT_AUTH_USERNAME" yaml:"git_auth_username"`
	GitAuthPassword string `env:"STORAGE_GIT_AUTH_PASSWORD" yaml:"-"`
}

// Validate checks that the selected backend has what it needs
func (s StorageConfig) Validate() error {
	var result error
	switch s.Backend {
	case StorageLocal:
		if s.LocalDir == "" {
			result = multierror.Append(result, fmt.Errorf("storage local_dir is required for the local backend"))
		}
	case StorageS3:
		if s.S3Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("storage s3_bucket is required for the s3 backend"))
		}
	case StorageGit:
		if s.GitPath == "" {
			result = multierror.Append(result, fmt.Errorf("storage git_path is required for the git backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("storage backend must be one of [local, s3, git], got %q", s.Backend))
	}
	if s.CatalogPath == "" {
		result = multierror.Append(result, fmt.Errorf("storage catalog_path is required"))
	}
	return result
}
