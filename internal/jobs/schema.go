package jobs

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id            TEXT PRIMARY KEY,
    input_ref     TEXT NOT NULL,
    status        TEXT NOT NULL,
    step          TEXT NOT NULL,
    progress      REAL NOT NULL DEFAULT 0,
    message       TEXT,
    options_json  TEXT,
    units_json    TEXT,
    analyses_json TEXT,
    result_json   TEXT,
    error_code    TEXT,
    error_message TEXT,
    error_detail  TEXT,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL,
    revision      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`
