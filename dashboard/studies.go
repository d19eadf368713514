package dashboard

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/lambda-feedback/studyboard/dashboard/schema"
	"github.com/lambda-feedback/studyboard/storage"
)

type createStudyRequest struct {
	StudyName  string   `json:"study_name"`
	Direction  string   `json:"direction"`
	Directions []string `json:"directions"`
}

type tellTrialRequest struct {
	State  string    `json:"state"`
	Values []float64 `json:"values"`
}

type userAttrsRequest struct {
	UserAttrs map[string]any `json:"user_attrs"`
}

// ListStudies returns the summaries of all studies.
func (a *API) ListStudies(ctx context.Context, req Request) Response {
	studies, err := a.storage.GetAllStudies(ctx)
	if err != nil {
		a.logger(req).Error("failed to list studies", zap.Error(err))
		return newErrorResponse(err)
	}

	summaries := make([]studySummary, 0, len(studies))
	for _, study := range studies {
		summaries = append(summaries, serializeStudySummary(study))
	}

	return newJSONResponse(http.StatusOK, map[string]any{
		"study_summaries": summaries,
	})
}

// CreateStudy creates a study from a {"study_name", "direction(s)"} body.
func (a *API) CreateStudy(ctx context.Context, req Request) Response {
	log := a.logger(req)

	if err := a.validate(schema.SchemaTypeCreateStudy, req.Body); err != nil {
		return newErrorResponse(err)
	}

	var body createStudyRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		log.Debug("failed to decode body", zap.Error(err))
		return newErrorResponse(ErrInvalidBody)
	}

	names := body.Directions
	if body.Direction != "" {
		names = []string{body.Direction}
	}

	directions := make([]storage.StudyDirection, 0, len(names))
	for _, name := range names {
		d, ok := storage.ParseStudyDirection(name)
		if !ok {
			return newErrorResponse(ErrInvalidBody)
		}
		directions = append(directions, d)
	}

	log = log.With(zap.String("study_name", body.StudyName))

	studyID, err := a.storage.CreateNewStudy(ctx, directions, body.StudyName)
	if err != nil {
		log.Debug("failed to create study", zap.Error(err))
		return newErrorResponse(err)
	}

	summary, err := a.findStudy(ctx, studyID)
	if err != nil {
		log.Error("failed to load created study", zap.Error(err))
		return newErrorResponse(err)
	}

	log.Info("created study", zap.Int("study_id", studyID))

	return newJSONResponse(http.StatusCreated, map[string]any{
		"study_summary": serializeStudySummary(summary),
	})
}

// GetStudy returns a study with its trials.
func (a *API) GetStudy(ctx context.Context, req Request) Response {
	studyID, err := parseID(req.Param("study_id"), ErrInvalidStudyID)
	if err != nil {
		return newErrorResponse(err)
	}

	study, err := a.findStudy(ctx, studyID)
	if err != nil {
		return newErrorResponse(err)
	}

	trials, err := a.storage.GetAllTrials(ctx, studyID)
	if err != nil {
		return newErrorResponse(err)
	}

	return newJSONResponse(http.StatusOK, serializeStudyDetail(study, trials))
}

// DeleteStudy deletes a study and its trials.
func (a *API) DeleteStudy(ctx context.Context, req Request) Response {
	studyID, err := parseID(req.Param("study_id"), ErrInvalidStudyID)
	if err != nil {
		return newErrorResponse(err)
	}

	log := a.logger(req).With(zap.Int("study_id", studyID))

	if err := a.storage.DeleteStudy(ctx, studyID); err != nil {
		log.Debug("failed to delete study", zap.Error(err))
		return newErrorResponse(err)
	}

	log.Info("deleted study")

	return newEmptyResponse(http.StatusNoContent)
}

// SetStudyUserAttrs sets the user attributes of a study.
func (a *API) SetStudyUserAttrs(ctx context.Context, req Request) Response {
	studyID, err := parseID(req.Param("study_id"), ErrInvalidStudyID)
	if err != nil {
		return newErrorResponse(err)
	}

	if err := a.validate(schema.SchemaTypeUserAttrs, req.Body); err != nil {
		return newErrorResponse(err)
	}

	var body userAttrsRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return newErrorResponse(ErrInvalidBody)
	}

	if err := a.storage.SetStudyUserAttrs(ctx, studyID, body.UserAttrs); err != nil {
		a.logger(req).Debug("failed to set user attrs", zap.Error(err))
		return newErrorResponse(err)
	}

	return newEmptyResponse(http.StatusNoContent)
}

// TellTrial finishes a running trial.
func (a *API) TellTrial(ctx context.Context, req Request) Response {
	trialID, err := parseID(req.Param("trial_id"), ErrInvalidTrialID)
	if err != nil {
		return newErrorResponse(err)
	}

	log := a.logger(req).With(zap.Int("trial_id", trialID))

	if err := a.validate(schema.SchemaTypeTellTrial, req.Body); err != nil {
		return newErrorResponse(err)
	}

	var body tellTrialRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return newErrorResponse(ErrInvalidBody)
	}

	state, ok := storage.ParseTrialState(body.State)
	if !ok {
		return newErrorResponse(ErrInvalidBody)
	}

	if _, err := a.storage.SetTrialStateValues(ctx, trialID, state, body.Values); err != nil {
		log.Debug("failed to tell trial", zap.Error(err))
		return newErrorResponse(err)
	}

	log.Info("told trial", zap.Stringer("state", state))

	return newEmptyResponse(http.StatusNoContent)
}

// Meta returns information about the running application.
func (a *API) Meta(context.Context, Request) Response {
	return newJSONResponse(http.StatusOK, map[string]any{
		"version": a.info.Version,
	})
}

func (a *API) findStudy(ctx context.Context, studyID int) (storage.FrozenStudy, error) {
	studies, err := a.storage.GetAllStudies(ctx)
	if err != nil {
		return storage.FrozenStudy{}, err
	}

	for _, study := range studies {
		if study.StudyID == studyID {
			return study, nil
		}
	}

	return storage.FrozenStudy{}, storage.ErrStudyNotFound
}
