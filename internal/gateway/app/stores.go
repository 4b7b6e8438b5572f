package app

import (
	"fmt"
	"log"
	"strings"

	"proposalforge/internal/gateway/config"
	artifactrepo "proposalforge/internal/gateway/repository/artifact"
	"proposalforge/internal/gateway/repository/projectstore"
)

type gatewayStores struct {
	project  *projectstore.Store
	artifact artifactrepo.Store
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	project, err := initProjectStore(cfg)
	if err != nil {
		return nil, err
	}
	artifact, err := initArtifactStore(cfg)
	if err != nil {
		return nil, err
	}
	return &gatewayStores{project: project, artifact: artifact}, nil
}

func initProjectStore(cfg *config.Config) (*projectstore.Store, error) {
	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		s, err := projectstore.NewPostgres(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open project store db: %w", err)
		}
		log.Printf("project store: postgres")
		return s, nil
	}
	log.Printf("project store: file %s", cfg.StorePath)
	return projectstore.New(cfg.StorePath), nil
}

func initArtifactStore(cfg *config.Config) (artifactrepo.Store, error) {
	if !cfg.Artifact.Enabled {
		log.Printf("artifact store: in-memory (no s3 endpoint configured)")
		return artifactrepo.NewMemoryStore(), nil
	}
	s3Store, err := artifactrepo.NewS3Store(artifactrepo.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
	}
	log.Printf("artifact store: s3 bucket=%s endpoint=%s", cfg.Artifact.Bucket, cfg.Artifact.Endpoint)
	return s3Store, nil
}
