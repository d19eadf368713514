package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StudyDirection is the optimization direction of one objective.
type StudyDirection int

const (
	StudyDirectionNotSet StudyDirection = iota
	StudyDirectionMinimize
	StudyDirectionMaximize
)

func (d StudyDirection) String() string {
	switch d {
	case StudyDirectionMinimize:
		return "minimize"
	case StudyDirectionMaximize:
		return "maximize"
	default:
		return "not_set"
	}
}

// ParseStudyDirection parses "minimize" or "maximize", case-insensitive.
func ParseStudyDirection(s string) (StudyDirection, bool) {
	switch strings.ToLower(s) {
	case "minimize":
		return StudyDirectionMinimize, true
	case "maximize":
		return StudyDirectionMaximize, true
	default:
		return StudyDirectionNotSet, false
	}
}

func (d StudyDirection) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *StudyDirection) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "not_set" {
		*d = StudyDirectionNotSet
		return nil
	}

	parsed, ok := ParseStudyDirection(s)
	if !ok {
		return fmt.Errorf("invalid study direction %q", s)
	}

	*d = parsed
	return nil
}

// TrialState is the lifecycle state of a trial.
type TrialState int

const (
	TrialStateRunning TrialState = iota
	TrialStateComplete
	TrialStatePruned
	TrialStateFail
	TrialStateWaiting
)

var trialStateNames = map[TrialState]string{
	TrialStateRunning:  "Running",
	TrialStateComplete: "Complete",
	TrialStatePruned:   "Pruned",
	TrialStateFail:     "Fail",
	TrialStateWaiting:  "Waiting",
}

func (s TrialState) String() string {
	if name, ok := trialStateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsFinished reports whether the state is terminal.
func (s TrialState) IsFinished() bool {
	return s == TrialStateComplete || s == TrialStatePruned || s == TrialStateFail
}

// ParseTrialState parses a state name, case-insensitive.
func ParseTrialState(s string) (TrialState, bool) {
	for state, name := range trialStateNames {
		if strings.EqualFold(name, s) {
			return state, true
		}
	}
	return TrialStateRunning, false
}

func (s TrialState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *TrialState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	parsed, ok := ParseTrialState(name)
	if !ok {
		return fmt.Errorf("invalid trial state %q", name)
	}

	*s = parsed
	return nil
}

// FrozenStudy is a read-only snapshot of a study.
type FrozenStudy struct {
	StudyID       int              `json:"study_id"`
	StudyName     string           `json:"study_name"`
	Directions    []StudyDirection `json:"directions"`
	UserAttrs     map[string]any   `json:"user_attrs"`
	SystemAttrs   map[string]any   `json:"system_attrs"`
	DatetimeStart *time.Time       `json:"datetime_start,omitempty"`
}

// FrozenTrial is a read-only snapshot of a trial.
type FrozenTrial struct {
	TrialID          int                `json:"trial_id"`
	StudyID          int                `json:"study_id"`
	Number           int                `json:"number"`
	State            TrialState         `json:"state"`
	Values           []float64          `json:"values,omitempty"`
	Params           map[string]float64 `json:"params"`
	UserAttrs        map[string]any     `json:"user_attrs"`
	DatetimeStart    *time.Time         `json:"datetime_start,omitempty"`
	DatetimeComplete *time.Time         `json:"datetime_complete,omitempty"`
}
