package storage_manager //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BackendType represents the type of storage backend.
type BackendType string

const (
	// BackendLocal uses the local filesystem for storage.
	BackendLocal BackendType = "local"
	// BackendS3 uses AWS S3 for storage.
	BackendS3 BackendType = "s3"
	// BackendGit uses a git working tree for storage.
	BackendGit BackendType = "git"
)

// Namespaces used by the coaching service.
const (
	NamespacePrompts = "prompts"
	NamespaceCatalog = "catalog"
	NamespaceReports = "reports"
)

// Config holds the configuration for the StorageManager.
type Config struct {
	Backend     BackendType
	LocalConfig *LocalConfig
	S3Config    *S3Config
	GitConfig   *GitProviderOptions
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	BaseDir string
}

// S3Config holds configuration for S3 storage.
type S3Config struct {
	Bucket string
	Prefix string
	// Client is used as is when set; otherwise one is built from Region and Profile.
	Client  *s3.Client
	Region  string
	Profile string
}

// Syncer is implemented by backends that can refresh from an upstream source.
type Syncer interface {
	Sync(ctx context.Context) error
}

// StorageManager hands out namespace-scoped file providers over one backend.
type StorageManager struct {
	backend  BackendType
	provider FileProvider
}

// New creates a new StorageManager with the given configuration.
func New(ctx context.Context, config Config) (*StorageManager, error) {
	var provider FileProvider

	switch config.Backend {
	case BackendLocal:
		if config.LocalConfig == nil || config.LocalConfig.BaseDir == "" {
			return nil, fmt.Errorf("base directory is required for local backend")
		}
		provider = NewLocalFileProvider(config.LocalConfig.BaseDir)

	case BackendS3:
		if config.S3Config == nil || config.S3Config.Bucket == "" {
			return nil, fmt.Errorf("bucket is required for s3 backend")
		}
		client := config.S3Config.Client
		if client == nil {
			var err error
			client, err = NewS3SDKClient(ctx, config.S3Config.Region, config.S3Config.Profile)
			if err != nil {
				return nil, err
			}
		}
		provider = NewS3FileProvider(config.S3Config.Bucket, config.S3Config.Prefix, NewAWSS3Client(client))

	case BackendGit:
		if config.GitConfig == nil {
			return nil, fmt.Errorf("git options are required for git backend")
		}
		gp, err := NewGitFileProvider(ctx, *config.GitConfig)
		if err != nil {
			return nil, err
		}
		provider = gp

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Backend)
	}

	return &StorageManager{backend: config.Backend, provider: provider}, nil
}

// NewWithProvider creates a StorageManager around a custom FileProvider.
func NewWithProvider(provider FileProvider) *StorageManager {
	return &StorageManager{provider: provider}
}

// GetProvider returns a FileProvider scoped to namespace.
func (m *StorageManager) GetProvider(namespace string) FileProvider {
	if namespace == "" {
		return m.provider
	}
	return NewPrefixedFileProvider(m.provider, namespace)
}

// Sync refreshes the backend from upstream when it supports it.
func (m *StorageManager) Sync(ctx context.Context) error {
	if s, ok := m.provider.(Syncer); ok {
		return s.Sync(ctx)
	}
	return nil
}

// Backend returns the configured backend type.
func (m *StorageManager) Backend() BackendType {
	return m.backend
}
