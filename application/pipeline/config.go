package pipeline

import "agentmemory/domain/config"

// StageConfig carries the subset of domain business constants the stages
// need, so individual stage constructors don't each take the whole
// DomainConfig.
type StageConfig struct {
	DuplicateSimilarityThreshold float64
	ContradictionProbabilityFloor float64
	DecayBatchSize int
}

// FromDomainConfig derives a StageConfig from the shared domain config.
func FromDomainConfig(cfg *config.DomainConfig) StageConfig {
	return StageConfig{
		DuplicateSimilarityThreshold:  cfg.DuplicateSimilarityThreshold,
		ContradictionProbabilityFloor: cfg.ContradictionProbabilityFloor,
		DecayBatchSize:                cfg.DecayBatchSize,
	}
}
