package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/puddle/v2"
	"go.uber.org/zap"
)

type journalOp string

const (
	opCreateStudy         journalOp = "create_study"
	opDeleteStudy         journalOp = "delete_study"
	opSetStudyUserAttr    journalOp = "set_study_user_attr"
	opSetStudyUserAttrs   journalOp = "set_study_user_attrs"
	opCreateTrial         journalOp = "create_trial"
	opSetTrialParam       journalOp = "set_trial_param"
	opSetTrialUserAttr    journalOp = "set_trial_user_attr"
	opSetTrialStateValues journalOp = "set_trial_state_values"
)

// journalRecord is one line of the journal file.
type journalRecord struct {
	Op         journalOp        `json:"op"`
	Time       time.Time        `json:"time"`
	StudyID    int              `json:"study_id,omitempty"`
	TrialID    int              `json:"trial_id,omitempty"`
	Name       string           `json:"name,omitempty"`
	Directions []StudyDirection `json:"directions,omitempty"`
	Key        string           `json:"key,omitempty"`
	Value      any              `json:"value,omitempty"`
	Attrs      map[string]any   `json:"attrs,omitempty"`
	Param      float64          `json:"param,omitempty"`
	State      TrialState       `json:"state,omitempty"`
	Values     []float64        `json:"values,omitempty"`
}

// JournalStorage persists every mutation as a JSON line in an append-only
// file and serves reads from an in-memory replica rebuilt on open.
type JournalStorage struct {
	path string

	// mu orders mutations so the journal matches the replica.
	mu   sync.Mutex
	mem  *InMemoryStorage
	pool *puddle.Pool[*os.File]

	log *zap.Logger
}

var _ Storage = (*JournalStorage)(nil)

// NewJournalStorage opens the journal at path, creating it if needed, and
// replays its records.
func NewJournalStorage(path string, log *zap.Logger) (*JournalStorage, error) {
	if path == "" {
		return nil, errors.New("journal path is empty")
	}

	if log == nil {
		log = zap.NewNop()
	}

	s := &JournalStorage{
		path: path,
		mem:  NewInMemoryStorage(),
		log:  log.Named("journal").With(zap.String("path", path)),
	}

	if err := s.replay(); err != nil {
		return nil, err
	}

	pool, err := puddle.NewPool(&puddle.Config[*os.File]{
		Constructor: s.openAppendHandle,
		Destructor:  s.closeAppendHandle,
		MaxSize:     1,
	})
	if err != nil {
		return nil, err
	}
	s.pool = pool

	return s, nil
}

func (s *JournalStorage) openAppendHandle(context.Context) (*os.File, error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening journal: %w", err)
	}

	s.log.Debug("opened journal handle")

	return f, nil
}

func (s *JournalStorage) closeAppendHandle(f *os.File) {
	if err := f.Close(); err != nil {
		s.log.Error("error closing journal handle", zap.Error(err))
	}
}

// replay rebuilds the replica from the journal. A torn final record is
// cut off the file so the next append starts on a fresh line.
func (s *JournalStorage) replay() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading journal: %w", err)
	}

	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()

	var (
		records  int
		validEnd int
		torn     bool
	)

	for offset, lineNo := 0, 1; offset < len(data); lineNo++ {
		next := len(data)
		line := data[offset:]
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			next = offset + i + 1
			line = line[:i]
		}
		offset = next

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			validEnd = next
			continue
		}

		var rec journalRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// a torn final line is what an interrupted append leaves behind
			if len(bytes.TrimSpace(data[next:])) == 0 {
				s.log.Warn("dropping truncated journal record", zap.Int("line", lineNo), zap.Error(err))
				torn = true
				break
			}
			return fmt.Errorf("invalid journal record on line %d: %w", lineNo, err)
		}

		records++
		validEnd = next

		if err := s.apply(rec); err != nil {
			s.log.Warn("skipping journal record",
				zap.Int("line", lineNo),
				zap.String("op", string(rec.Op)),
				zap.Error(err),
			)
		}
	}

	if torn {
		if err := os.Truncate(s.path, int64(validEnd)); err != nil {
			return fmt.Errorf("error truncating journal: %w", err)
		}
	} else if validEnd > 0 && data[validEnd-1] != '\n' {
		if err := s.terminateLastRecord(); err != nil {
			return err
		}
	}

	s.log.Debug("replayed journal", zap.Int("records", records))

	return nil
}

// terminateLastRecord ends a complete final record that lacks its newline.
func (s *JournalStorage) terminateLastRecord() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("error opening journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("error terminating journal record: %w", err)
	}

	return nil
}

// apply mutates the replica. The caller holds s.mem.mu.
func (s *JournalStorage) apply(rec journalRecord) error {
	switch rec.Op {
	case opCreateStudy:
		_, err := s.mem.createNewStudy(rec.Directions, rec.Name)
		return err
	case opDeleteStudy:
		return s.mem.deleteStudy(rec.StudyID)
	case opSetStudyUserAttr:
		return s.mem.setStudyUserAttr(rec.StudyID, rec.Key, rec.Value)
	case opSetStudyUserAttrs:
		return s.mem.setStudyUserAttrs(rec.StudyID, rec.Attrs)
	case opCreateTrial:
		_, err := s.mem.createNewTrial(rec.StudyID, rec.Time)
		return err
	case opSetTrialParam:
		return s.mem.setTrialParam(rec.TrialID, rec.Name, rec.Param)
	case opSetTrialUserAttr:
		return s.mem.setTrialUserAttr(rec.TrialID, rec.Key, rec.Value)
	case opSetTrialStateValues:
		_, err := s.mem.setTrialStateValues(rec.TrialID, rec.State, rec.Values, rec.Time)
		return err
	default:
		return fmt.Errorf("unknown journal op %q", rec.Op)
	}
}

// check reports whether rec would be accepted by the replica, without
// changing it. The caller holds s.mem.mu.
func (s *JournalStorage) check(rec journalRecord) error {
	switch rec.Op {
	case opCreateStudy:
		return s.mem.checkStudyName(rec.Name)
	case opDeleteStudy, opSetStudyUserAttr, opSetStudyUserAttrs, opCreateTrial:
		_, err := s.mem.getStudy(rec.StudyID)
		return err
	case opSetTrialParam, opSetTrialUserAttr:
		_, err := s.mem.getUpdatableTrial(rec.TrialID)
		return err
	case opSetTrialStateValues:
		trial, err := s.mem.getUpdatableTrial(rec.TrialID)
		if err != nil {
			return err
		}
		ok, err := s.mem.checkTrialStateValues(trial, rec.State, rec.Values)
		if err == nil && !ok {
			return errNotApplied
		}
		return err
	default:
		return fmt.Errorf("unknown journal op %q", rec.Op)
	}
}

// commit checks rec against the replica, appends it to the journal and
// only then applies fn to the replica. s.mu serialises commits, so the
// replica cannot change between the check and fn.
func (s *JournalStorage) commit(ctx context.Context, rec journalRecord, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem.mu.RLock()
	err := s.check(rec)
	s.mem.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := s.append(ctx, rec); err != nil {
		return err
	}

	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()

	if err := fn(); err != nil {
		s.log.Error("journaled record rejected by replica", zap.String("op", string(rec.Op)), zap.Error(err))
		return err
	}

	return nil
}

func (s *JournalStorage) append(ctx context.Context, rec journalRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("error encoding journal record: %w", err)
	}
	line = append(line, '\n')

	res, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("error acquiring journal handle: %w", err)
	}

	if _, err := res.Value().Write(line); err != nil {
		s.log.Error("error appending journal record", zap.String("op", string(rec.Op)), zap.Error(err))
		res.Destroy()
		return fmt.Errorf("error appending journal record: %w", err)
	}

	res.Release()
	return nil
}

func (s *JournalStorage) CreateNewStudy(ctx context.Context, directions []StudyDirection, name string) (int, error) {
	if name == "" {
		name = generateStudyName()
	}
	if len(directions) == 0 {
		directions = []StudyDirection{StudyDirectionMinimize}
	}

	var id int
	rec := journalRecord{Op: opCreateStudy, Time: s.mem.now(), Name: name, Directions: directions}

	err := s.commit(ctx, rec, func() (err error) {
		id, err = s.mem.createNewStudy(directions, name)
		return err
	})

	return id, err
}

func (s *JournalStorage) DeleteStudy(ctx context.Context, studyID int) error {
	rec := journalRecord{Op: opDeleteStudy, Time: s.mem.now(), StudyID: studyID}

	return s.commit(ctx, rec, func() error {
		return s.mem.deleteStudy(studyID)
	})
}

func (s *JournalStorage) GetStudyIDFromName(ctx context.Context, name string) (int, error) {
	return s.mem.GetStudyIDFromName(ctx, name)
}

func (s *JournalStorage) GetStudyNameFromID(ctx context.Context, studyID int) (string, error) {
	return s.mem.GetStudyNameFromID(ctx, studyID)
}

func (s *JournalStorage) GetStudyDirections(ctx context.Context, studyID int) ([]StudyDirection, error) {
	return s.mem.GetStudyDirections(ctx, studyID)
}

func (s *JournalStorage) SetStudyUserAttr(ctx context.Context, studyID int, key string, value any) error {
	rec := journalRecord{Op: opSetStudyUserAttr, Time: s.mem.now(), StudyID: studyID, Key: key, Value: value}

	return s.commit(ctx, rec, func() error {
		return s.mem.setStudyUserAttr(studyID, key, value)
	})
}

func (s *JournalStorage) SetStudyUserAttrs(ctx context.Context, studyID int, attrs map[string]any) error {
	rec := journalRecord{Op: opSetStudyUserAttrs, Time: s.mem.now(), StudyID: studyID, Attrs: attrs}

	return s.commit(ctx, rec, func() error {
		return s.mem.setStudyUserAttrs(studyID, attrs)
	})
}

func (s *JournalStorage) GetAllStudies(ctx context.Context) ([]FrozenStudy, error) {
	return s.mem.GetAllStudies(ctx)
}

func (s *JournalStorage) CreateNewTrial(ctx context.Context, studyID int) (int, error) {
	var id int
	rec := journalRecord{Op: opCreateTrial, Time: s.mem.now(), StudyID: studyID}

	err := s.commit(ctx, rec, func() (err error) {
		id, err = s.mem.createNewTrial(studyID, rec.Time)
		return err
	})

	return id, err
}

func (s *JournalStorage) SetTrialParam(ctx context.Context, trialID int, name string, value float64) error {
	rec := journalRecord{Op: opSetTrialParam, Time: s.mem.now(), TrialID: trialID, Name: name, Param: value}

	return s.commit(ctx, rec, func() error {
		return s.mem.setTrialParam(trialID, name, value)
	})
}

func (s *JournalStorage) SetTrialUserAttr(ctx context.Context, trialID int, key string, value any) error {
	rec := journalRecord{Op: opSetTrialUserAttr, Time: s.mem.now(), TrialID: trialID, Key: key, Value: value}

	return s.commit(ctx, rec, func() error {
		return s.mem.setTrialUserAttr(trialID, key, value)
	})
}

func (s *JournalStorage) SetTrialStateValues(ctx context.Context, trialID int, state TrialState, values []float64) (bool, error) {
	var ok bool
	rec := journalRecord{Op: opSetTrialStateValues, Time: s.mem.now(), TrialID: trialID, State: state, Values: values}

	err := s.commit(ctx, rec, func() (err error) {
		ok, err = s.mem.setTrialStateValues(trialID, state, values, rec.Time)
		return err
	})
	if errors.Is(err, errNotApplied) {
		return false, nil
	}

	return ok, err
}

// errNotApplied keeps no-op state transitions out of the journal.
var errNotApplied = errors.New("not applied")

func (s *JournalStorage) GetTrial(ctx context.Context, trialID int) (FrozenTrial, error) {
	return s.mem.GetTrial(ctx, trialID)
}

func (s *JournalStorage) GetAllTrials(ctx context.Context, studyID int) ([]FrozenTrial, error) {
	return s.mem.GetAllTrials(ctx, studyID)
}

// Close releases the journal handles.
func (s *JournalStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pool.Close()
	return nil
}
