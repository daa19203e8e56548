package jobs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"narrate/internal/analysis"
	"narrate/internal/segments"
	"narrate/internal/services"
	"narrate/internal/synthesis"
)

const jobColumns = "id, input_ref, status, step, progress, message, options_json, units_json, analyses_json, result_json, error_code, error_message, error_detail, created_at, updated_at, revision"

func encodePayloads(job Job) (unitsJSON, analysesJSON, resultJSON, optionsJSON any, err error) {
	optionsBytes, err := json.Marshal(job.Options)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal options: %w", err)
	}
	optionsJSON = string(optionsBytes)

	if len(job.Units) > 0 {
		data, err := json.Marshal(job.Units)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal units: %w", err)
		}
		unitsJSON = string(data)
	}
	if len(job.Analyses) > 0 {
		data, err := json.Marshal(job.Analyses)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal analyses: %w", err)
		}
		analysesJSON = string(data)
	}
	if job.Result != nil {
		data, err := json.Marshal(job.Result)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal result: %w", err)
		}
		resultJSON = string(data)
	}
	return unitsJSON, analysesJSON, resultJSON, optionsJSON, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		inputRef     string
		statusStr    string
		stepStr      string
		progress     sql.NullFloat64
		message      sql.NullString
		optionsRaw   sql.NullString
		unitsRaw     sql.NullString
		analysesRaw  sql.NullString
		resultRaw    sql.NullString
		errorCode    sql.NullString
		errorMessage sql.NullString
		errorDetail  sql.NullString
		createdRaw   string
		updatedRaw   string
		revision     int64
	)

	if err := scanner.Scan(
		&id,
		&inputRef,
		&statusStr,
		&stepStr,
		&progress,
		&message,
		&optionsRaw,
		&unitsRaw,
		&analysesRaw,
		&resultRaw,
		&errorCode,
		&errorMessage,
		&errorDetail,
		&createdRaw,
		&updatedRaw,
		&revision,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:       id,
		InputRef: inputRef,
		Status:   Status(statusStr),
		Step:     Step(stepStr),
		Progress: progress.Float64,
		Message:  message.String,
		Revision: revision,
	}

	if optionsRaw.Valid && optionsRaw.String != "" {
		if err := json.Unmarshal([]byte(optionsRaw.String), &job.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
	}
	if unitsRaw.Valid && unitsRaw.String != "" {
		var units []segments.Unit
		if err := json.Unmarshal([]byte(unitsRaw.String), &units); err != nil {
			return nil, fmt.Errorf("decode units: %w", err)
		}
		job.Units = units
	}
	if analysesRaw.Valid && analysesRaw.String != "" {
		var analyses []analysis.UnitAnalysis
		if err := json.Unmarshal([]byte(analysesRaw.String), &analyses); err != nil {
			return nil, fmt.Errorf("decode analyses: %w", err)
		}
		job.Analyses = analyses
	}
	if resultRaw.Valid && resultRaw.String != "" {
		var result synthesis.Description
		if err := json.Unmarshal([]byte(resultRaw.String), &result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		job.Result = &result
	}
	if errorCode.Valid && errorCode.String != "" {
		job.Error = &Failure{
			Code:    services.Code(errorCode.String),
			Message: errorMessage.String,
			Detail:  errorDetail.String,
		}
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
