package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil && !errors.Is(cErr, sql.ErrTxDone) {
		*err = cErr
	}
}

// toConfigData accepts a string, []byte or any JSON-serializable value
func toConfigData(config any) (sql.NullString, error) {
	var configData sql.NullString

	switch c := config.(type) {
	case nil:
		return configData, nil

	case string:
		configData.Valid = true
		configData.String = c

	case []byte:
		configData.Valid = true
		configData.String = string(c)

	default:
		p, err := json.Marshal(config)
		if err != nil {
			return configData, fmt.Errorf("marshaling config: %w", err)
		}

		configData.Valid = true
		configData.String = string(p)
	}

	return configData, nil
}

func toInvocationData(sessionID int64, o teb.Outcome) *invocationData {
	data := invocationData{
		SessionID:     sessionID,
		SNR:           o.Invocation.SNR,
		Codeur:        o.Invocation.Codeur,
		Repetition:    o.Invocation.Repetition,
		MessageLength: o.Invocation.MessageLength,
		DurationMS:    o.Duration.Milliseconds(),
	}

	if o.Succeeded() {
		data.TEB = sql.NullFloat64{Float64: o.TEB, Valid: true}
	} else {
		data.Error = sql.NullString{String: o.Err.Error(), Valid: true}
	}

	return &data
}

func toResultData(row teb.Row) resultData {
	return resultData{
		SNR:           row.SNR,
		TEBWithout:    row.TEBWithout,
		TEBWithCodeur: row.TEBWithCodeur,
	}
}
