// Copyright 2025 NDForge Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides the readiness gate for model-zoo datasets:
// expensive one-time setup (artifact resolution, repository prepare, data
// prepare) runs exactly once, and repeated Prepare calls are cheap no-ops.
//
// The actual download, caching, and on-disk layout are the repository's
// concern; this package only guards the state transition from "not
// prepared" to "prepared".
package dataset

import (
	"fmt"
	"sync"
)

// Usage selects which split of a dataset is being prepared.
type Usage int

// Dataset splits.
const (
	Train Usage = iota
	Test
	Validation
)

// String returns a human-readable split name.
func (u Usage) String() string {
	switch u {
	case Train:
		return "train"
	case Test:
		return "test"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

// MRL identifies a dataset resource within a repository (a machine
// resource locator).
type MRL string

// Artifact is one concrete, versioned realization of a dataset that a
// repository can prepare locally.
type Artifact struct {
	Name    string
	Version string
}

// Repository resolves and prepares artifacts. Implementations handle
// download and caching; Prepare must itself be idempotent.
type Repository interface {
	Prepare(artifact *Artifact) error
}

// Source supplies the dataset-specific pieces of preparation: the fallback
// artifact when none was configured, and the per-split data preparation.
type Source interface {
	DefaultArtifact() (*Artifact, error)
	PrepareData(usage Usage) error
}

// ZooDataset gates a dataset's one-time preparation. The zero value is not
// usable; construct with NewZooDataset.
//
// Prepare is safe for concurrent use: the gate is mutex-guarded, so exactly
// one caller runs the preparation while the rest wait and then observe the
// prepared state. A failed preparation leaves the gate unprepared and a
// later call retries.
type ZooDataset struct {
	mrl      MRL
	repo     Repository
	source   Source
	usage    Usage
	artifact *Artifact

	mu       sync.Mutex
	prepared bool
}

// NewZooDataset creates a gate for one dataset split. artifact may be nil,
// in which case Prepare resolves the source's default artifact.
func NewZooDataset(mrl MRL, repo Repository, source Source, usage Usage, artifact *Artifact) *ZooDataset {
	return &ZooDataset{
		mrl:      mrl,
		repo:     repo,
		source:   source,
		usage:    usage,
		artifact: artifact,
	}
}

// MRL returns the dataset's resource identifier.
func (d *ZooDataset) MRL() MRL {
	return d.mrl
}

// Usage returns the split this gate prepares.
func (d *ZooDataset) Usage() Usage {
	return d.usage
}

// Artifact returns the resolved artifact, or nil before resolution.
func (d *ZooDataset) Artifact() *Artifact {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.artifact
}

// IsPrepared reports whether preparation has completed.
func (d *ZooDataset) IsPrepared() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prepared
}

// Prepare runs the one-time setup if it has not run yet: resolve a default
// artifact when none is configured, prepare it in the repository, then
// prepare the split's data. Once it returns nil, every later call is a
// no-op.
func (d *ZooDataset) Prepare() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.prepared {
		return nil
	}

	if d.artifact == nil {
		artifact, err := d.source.DefaultArtifact()
		if err != nil {
			return fmt.Errorf("resolve default artifact: %w", err)
		}
		if artifact == nil {
			return fmt.Errorf("%s dataset not found", d.mrl)
		}
		d.artifact = artifact
	}
	if err := d.repo.Prepare(d.artifact); err != nil {
		return fmt.Errorf("prepare artifact %s: %w", d.artifact.Name, err)
	}
	if err := d.source.PrepareData(d.usage); err != nil {
		return fmt.Errorf("prepare %s data: %w", d.usage, err)
	}
	d.prepared = true
	return nil
}
