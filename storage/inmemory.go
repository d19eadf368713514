package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const generatedStudyNamePrefix = "no-name-"

type studyRecord struct {
	name        string
	directions  []StudyDirection
	userAttrs   map[string]any
	systemAttrs map[string]any
	trialIDs    []int
}

// InMemoryStorage keeps all studies in process memory.
type InMemoryStorage struct {
	mu sync.RWMutex

	studies     map[int]*studyRecord
	studyNames  map[string]int
	trials      map[int]*FrozenTrial
	nextStudyID int
	nextTrialID int

	now func() time.Time
}

var _ Storage = (*InMemoryStorage)(nil)

// NewInMemoryStorage creates an empty in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		studies:    make(map[int]*studyRecord),
		studyNames: make(map[string]int),
		trials:     make(map[int]*FrozenTrial),
		now:        time.Now,
	}
}

func generateStudyName() string {
	return generatedStudyNamePrefix + uuid.NewString()
}

func (s *InMemoryStorage) CreateNewStudy(_ context.Context, directions []StudyDirection, name string) (int, error) {
	if name == "" {
		name = generateStudyName()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createNewStudy(directions, name)
}

func (s *InMemoryStorage) createNewStudy(directions []StudyDirection, name string) (int, error) {
	if err := s.checkStudyName(name); err != nil {
		return 0, err
	}

	if len(directions) == 0 {
		directions = []StudyDirection{StudyDirectionMinimize}
	}

	id := s.nextStudyID
	s.nextStudyID++

	s.studies[id] = &studyRecord{
		name:        name,
		directions:  slices.Clone(directions),
		userAttrs:   make(map[string]any),
		systemAttrs: make(map[string]any),
	}
	s.studyNames[name] = id

	return id, nil
}

func (s *InMemoryStorage) DeleteStudy(_ context.Context, studyID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteStudy(studyID)
}

func (s *InMemoryStorage) deleteStudy(studyID int) error {
	study, err := s.getStudy(studyID)
	if err != nil {
		return err
	}

	for _, trialID := range study.trialIDs {
		delete(s.trials, trialID)
	}

	delete(s.studyNames, study.name)
	delete(s.studies, studyID)

	return nil
}

func (s *InMemoryStorage) GetStudyIDFromName(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.studyNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrStudyNotFound, name)
	}

	return id, nil
}

func (s *InMemoryStorage) GetStudyNameFromID(_ context.Context, studyID int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	study, err := s.getStudy(studyID)
	if err != nil {
		return "", err
	}

	return study.name, nil
}

func (s *InMemoryStorage) GetStudyDirections(_ context.Context, studyID int) ([]StudyDirection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	study, err := s.getStudy(studyID)
	if err != nil {
		return nil, err
	}

	return slices.Clone(study.directions), nil
}

func (s *InMemoryStorage) SetStudyUserAttr(_ context.Context, studyID int, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setStudyUserAttr(studyID, key, value)
}

func (s *InMemoryStorage) setStudyUserAttr(studyID int, key string, value any) error {
	study, err := s.getStudy(studyID)
	if err != nil {
		return err
	}

	study.userAttrs[key] = value
	return nil
}

// SetStudyUserAttrs sets all attrs on the study at once.
func (s *InMemoryStorage) SetStudyUserAttrs(_ context.Context, studyID int, attrs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setStudyUserAttrs(studyID, attrs)
}

func (s *InMemoryStorage) setStudyUserAttrs(studyID int, attrs map[string]any) error {
	study, err := s.getStudy(studyID)
	if err != nil {
		return err
	}

	maps.Copy(study.userAttrs, attrs)
	return nil
}

func (s *InMemoryStorage) GetAllStudies(_ context.Context) ([]FrozenStudy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.studies))
	for id := range s.studies {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	studies := make([]FrozenStudy, 0, len(ids))
	for _, id := range ids {
		studies = append(studies, s.freezeStudy(id, s.studies[id]))
	}

	return studies, nil
}

func (s *InMemoryStorage) freezeStudy(id int, study *studyRecord) FrozenStudy {
	frozen := FrozenStudy{
		StudyID:     id,
		StudyName:   study.name,
		Directions:  slices.Clone(study.directions),
		UserAttrs:   maps.Clone(study.userAttrs),
		SystemAttrs: maps.Clone(study.systemAttrs),
	}

	if len(study.trialIDs) > 0 {
		if first, ok := s.trials[study.trialIDs[0]]; ok && first.DatetimeStart != nil {
			start := *first.DatetimeStart
			frozen.DatetimeStart = &start
		}
	}

	return frozen
}

func (s *InMemoryStorage) CreateNewTrial(_ context.Context, studyID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createNewTrial(studyID, s.now())
}

func (s *InMemoryStorage) createNewTrial(studyID int, at time.Time) (int, error) {
	study, err := s.getStudy(studyID)
	if err != nil {
		return 0, err
	}

	id := s.nextTrialID
	s.nextTrialID++

	s.trials[id] = &FrozenTrial{
		TrialID:       id,
		StudyID:       studyID,
		Number:        len(study.trialIDs),
		State:         TrialStateRunning,
		Params:        make(map[string]float64),
		UserAttrs:     make(map[string]any),
		DatetimeStart: &at,
	}
	study.trialIDs = append(study.trialIDs, id)

	return id, nil
}

func (s *InMemoryStorage) SetTrialParam(_ context.Context, trialID int, name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setTrialParam(trialID, name, value)
}

func (s *InMemoryStorage) setTrialParam(trialID int, name string, value float64) error {
	trial, err := s.getUpdatableTrial(trialID)
	if err != nil {
		return err
	}

	trial.Params[name] = value
	return nil
}

func (s *InMemoryStorage) SetTrialUserAttr(_ context.Context, trialID int, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setTrialUserAttr(trialID, key, value)
}

func (s *InMemoryStorage) setTrialUserAttr(trialID int, key string, value any) error {
	trial, err := s.getUpdatableTrial(trialID)
	if err != nil {
		return err
	}

	trial.UserAttrs[key] = value
	return nil
}

func (s *InMemoryStorage) SetTrialStateValues(_ context.Context, trialID int, state TrialState, values []float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setTrialStateValues(trialID, state, values, s.now())
}

func (s *InMemoryStorage) setTrialStateValues(trialID int, state TrialState, values []float64, at time.Time) (bool, error) {
	trial, err := s.getUpdatableTrial(trialID)
	if err != nil {
		return false, err
	}

	if ok, err := s.checkTrialStateValues(trial, state, values); !ok || err != nil {
		return false, err
	}

	trial.State = state
	if values != nil {
		trial.Values = slices.Clone(values)
	}

	if state == TrialStateRunning {
		trial.DatetimeStart = &at
	}
	if state.IsFinished() {
		trial.DatetimeComplete = &at
	}

	return true, nil
}

func (s *InMemoryStorage) GetTrial(_ context.Context, trialID int) (FrozenTrial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trial, ok := s.trials[trialID]
	if !ok {
		return FrozenTrial{}, fmt.Errorf("%w: %d", ErrTrialNotFound, trialID)
	}

	return copyTrial(trial), nil
}

func (s *InMemoryStorage) GetAllTrials(_ context.Context, studyID int) ([]FrozenTrial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	study, err := s.getStudy(studyID)
	if err != nil {
		return nil, err
	}

	trials := make([]FrozenTrial, 0, len(study.trialIDs))
	for _, id := range study.trialIDs {
		trials = append(trials, copyTrial(s.trials[id]))
	}

	return trials, nil
}

func (s *InMemoryStorage) Close() error {
	return nil
}

func (s *InMemoryStorage) checkStudyName(name string) error {
	if _, ok := s.studyNames[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatedStudy, name)
	}
	return nil
}

// checkTrialStateValues reports whether moving trial to state changes it.
func (s *InMemoryStorage) checkTrialStateValues(trial *FrozenTrial, state TrialState, values []float64) (bool, error) {
	// only a waiting trial can be claimed
	if state == TrialStateRunning && trial.State != TrialStateWaiting {
		return false, nil
	}

	if state == TrialStateComplete {
		directions := s.studies[trial.StudyID].directions
		if len(values) != len(directions) {
			return false, fmt.Errorf("%w: got %d values for %d directions", ErrInvalidValues, len(values), len(directions))
		}
	}

	return true, nil
}

func (s *InMemoryStorage) getStudy(studyID int) (*studyRecord, error) {
	study, ok := s.studies[studyID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrStudyNotFound, studyID)
	}
	return study, nil
}

func (s *InMemoryStorage) getUpdatableTrial(trialID int) (*FrozenTrial, error) {
	trial, ok := s.trials[trialID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTrialNotFound, trialID)
	}

	if trial.State.IsFinished() {
		return nil, fmt.Errorf("%w: %d", ErrTrialFinished, trialID)
	}

	return trial, nil
}

func copyTrial(t *FrozenTrial) FrozenTrial {
	c := *t
	c.Values = slices.Clone(t.Values)
	c.Params = maps.Clone(t.Params)
	c.UserAttrs = maps.Clone(t.UserAttrs)
	return c
}
