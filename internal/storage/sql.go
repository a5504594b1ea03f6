package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      modulation,
                      config)
VALUES (?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    modulation,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    modulation,
    config
FROM sessions
ORDER BY start_time, id`

	insertInvocationSQL = `
INSERT INTO invocations (session_id,
                         snr,
                         codeur,
                         repetition,
                         message_length,
                         teb,
                         error,
                         duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectInvocationsSQL = `
SELECT
    id,
    snr,
    codeur,
    repetition,
    message_length,
    teb,
    error,
    duration_ms
FROM invocations
WHERE
    session_id = ?
ORDER BY snr, codeur, repetition`

	insertResultSQL = `
    INSERT INTO results (
        session_id,
        snr,
        teb_without,
        teb_with_codeur
    )
    VALUES `

	selectSNRRangeSQL = `
SELECT
    MIN(snr),
    MAX(snr)
FROM results
WHERE session_id = ?`

	selectResultsSQL = `
SELECT
    snr,
    teb_without,
    teb_with_codeur
FROM results
WHERE
    session_id = ?
    AND snr BETWEEN ? AND ?
ORDER BY snr`
)

var (
	//go:embed schema.sql
	initSchemaSQL string

	//go:embed indexes.sql
	initIndexesSQL string
)
