// Package storage holds studies and their trials.
package storage

import (
	"context"
	"errors"
)

var (
	ErrStudyNotFound   = errors.New("study not found")
	ErrTrialNotFound   = errors.New("trial not found")
	ErrDuplicatedStudy = errors.New("study name already exists")
	ErrTrialFinished   = errors.New("trial already finished")
	ErrInvalidValues   = errors.New("invalid trial values")
)

// Storage is the interface shared by all storage backends.
type Storage interface {
	// CreateNewStudy creates a study and returns its id. An empty name is
	// replaced by a generated one. Empty directions default to minimize.
	CreateNewStudy(ctx context.Context, directions []StudyDirection, name string) (int, error)

	// DeleteStudy removes the study and all of its trials.
	DeleteStudy(ctx context.Context, studyID int) error

	GetStudyIDFromName(ctx context.Context, name string) (int, error)
	GetStudyNameFromID(ctx context.Context, studyID int) (string, error)
	GetStudyDirections(ctx context.Context, studyID int) ([]StudyDirection, error)

	SetStudyUserAttr(ctx context.Context, studyID int, key string, value any) error

	// SetStudyUserAttrs sets all attrs or none of them.
	SetStudyUserAttrs(ctx context.Context, studyID int, attrs map[string]any) error

	// GetAllStudies returns all studies ordered by id.
	GetAllStudies(ctx context.Context) ([]FrozenStudy, error)

	// CreateNewTrial creates a running trial in the study and returns its id.
	CreateNewTrial(ctx context.Context, studyID int) (int, error)

	SetTrialParam(ctx context.Context, trialID int, name string, value float64) error
	SetTrialUserAttr(ctx context.Context, trialID int, key string, value any) error

	// SetTrialStateValues moves the trial to state. Values are required,
	// one per study direction, when state is TrialStateComplete.
	SetTrialStateValues(ctx context.Context, trialID int, state TrialState, values []float64) (bool, error)

	GetTrial(ctx context.Context, trialID int) (FrozenTrial, error)

	// GetAllTrials returns the study's trials ordered by number.
	GetAllTrials(ctx context.Context, studyID int) ([]FrozenTrial, error)

	Close() error
}
