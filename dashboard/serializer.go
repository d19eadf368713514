package dashboard

import (
	"slices"
	"sort"
	"time"

	"github.com/lambda-feedback/studyboard/storage"
)

type attribute struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type trialParam struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type studySummary struct {
	StudyID       int                      `json:"study_id"`
	StudyName     string                   `json:"study_name"`
	Directions    []storage.StudyDirection `json:"directions"`
	UserAttrs     []attribute              `json:"user_attrs"`
	SystemAttrs   []attribute              `json:"system_attrs"`
	DatetimeStart *time.Time               `json:"datetime_start,omitempty"`
}

type trialResponse struct {
	TrialID          int                `json:"trial_id"`
	StudyID          int                `json:"study_id"`
	Number           int                `json:"number"`
	State            storage.TrialState `json:"state"`
	Values           []float64          `json:"values,omitempty"`
	Params           []trialParam       `json:"params"`
	UserAttrs        []attribute        `json:"user_attrs"`
	DatetimeStart    *time.Time         `json:"datetime_start,omitempty"`
	DatetimeComplete *time.Time         `json:"datetime_complete,omitempty"`
}

type studyDetail struct {
	StudyID       int                      `json:"study_id"`
	Name          string                   `json:"name"`
	Directions    []storage.StudyDirection `json:"directions"`
	UserAttrs     []attribute              `json:"user_attrs"`
	DatetimeStart *time.Time               `json:"datetime_start,omitempty"`
	Trials        []trialResponse          `json:"trials"`
	BestTrials    []trialResponse          `json:"best_trials"`
}

// attributes flattens attrs into a list sorted by key.
func attributes(attrs map[string]any) []attribute {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]attribute, 0, len(keys))
	for _, k := range keys {
		out = append(out, attribute{Key: k, Value: attrs[k]})
	}
	return out
}

func serializeStudySummary(study storage.FrozenStudy) studySummary {
	return studySummary{
		StudyID:       study.StudyID,
		StudyName:     study.StudyName,
		Directions:    study.Directions,
		UserAttrs:     attributes(study.UserAttrs),
		SystemAttrs:   attributes(study.SystemAttrs),
		DatetimeStart: study.DatetimeStart,
	}
}

func serializeTrial(trial storage.FrozenTrial) trialResponse {
	names := make([]string, 0, len(trial.Params))
	for name := range trial.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]trialParam, 0, len(names))
	for _, name := range names {
		params = append(params, trialParam{Name: name, Value: trial.Params[name]})
	}

	return trialResponse{
		TrialID:          trial.TrialID,
		StudyID:          trial.StudyID,
		Number:           trial.Number,
		State:            trial.State,
		Values:           trial.Values,
		Params:           params,
		UserAttrs:        attributes(trial.UserAttrs),
		DatetimeStart:    trial.DatetimeStart,
		DatetimeComplete: trial.DatetimeComplete,
	}
}

func serializeStudyDetail(study storage.FrozenStudy, trials []storage.FrozenTrial) studyDetail {
	detail := studyDetail{
		StudyID:       study.StudyID,
		Name:          study.StudyName,
		Directions:    study.Directions,
		UserAttrs:     attributes(study.UserAttrs),
		DatetimeStart: study.DatetimeStart,
		Trials:        make([]trialResponse, 0, len(trials)),
		BestTrials:    []trialResponse{},
	}

	for _, trial := range trials {
		detail.Trials = append(detail.Trials, serializeTrial(trial))
	}

	for _, trial := range bestTrials(trials, study.Directions) {
		detail.BestTrials = append(detail.BestTrials, serializeTrial(trial))
	}

	return detail
}

// bestTrials returns the completed trials no other completed trial
// dominates. With one direction these are the trials sharing the best value.
func bestTrials(trials []storage.FrozenTrial, directions []storage.StudyDirection) []storage.FrozenTrial {
	complete := slices.DeleteFunc(slices.Clone(trials), func(t storage.FrozenTrial) bool {
		return t.State != storage.TrialStateComplete || len(t.Values) != len(directions)
	})

	var front []storage.FrozenTrial
	for _, candidate := range complete {
		dominated := slices.ContainsFunc(complete, func(other storage.FrozenTrial) bool {
			return dominates(other.Values, candidate.Values, directions)
		})
		if !dominated {
			front = append(front, candidate)
		}
	}

	return front
}

// dominates reports whether a is no worse than b in every objective and
// strictly better in at least one.
func dominates(a, b []float64, directions []storage.StudyDirection) bool {
	better := false
	for i, d := range directions {
		x, y := a[i], b[i]
		if d == storage.StudyDirectionMaximize {
			x, y = -x, -y
		}
		if x > y {
			return false
		}
		if x < y {
			better = true
		}
	}
	return better
}
