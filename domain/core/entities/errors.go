package entities

import "errors"

var (
	ErrEmptyText         = errors.New("memory text cannot be empty")
	ErrEmptyAgent        = errors.New("agentId cannot be empty")
	ErrInvalidLayer      = errors.New("invalid memory layer")
	ErrInvalidMemoryType = errors.New("invalid memory type")
	ErrEmptySlug         = errors.New("entity slug cannot be empty")

	// ErrEmbeddingDimension is returned when a memory's embedding does not
	// match the deployment's fixed dimension.
	ErrEmbeddingDimension = errors.New("embedding dimension does not match the deployment's fixed dimension")
)
