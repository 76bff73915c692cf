package history

// Schema creates the session tables.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    route_label TEXT NOT NULL DEFAULT '',
    total_meters REAL NOT NULL DEFAULT 0,
    point_count INTEGER NOT NULL DEFAULT 0,
    total_dwell REAL NOT NULL DEFAULT 0,
    completed INTEGER NOT NULL DEFAULT 0,
    started_at DATETIME NOT NULL,
    ended_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS session_points (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    order_index INTEGER NOT NULL,
    lat REAL NOT NULL,
    lng REAL NOT NULL,
    heading REAL NOT NULL,
    instruction TEXT NOT NULL DEFAULT '',
    junction_type TEXT NOT NULL,
    commitment TEXT NOT NULL,
    score INTEGER NOT NULL,
    is_decision INTEGER NOT NULL DEFAULT 0,
    is_lead_in INTEGER NOT NULL DEFAULT 0,
    reasons TEXT,
    dwell_seconds REAL NOT NULL DEFAULT 0,
    visits INTEGER NOT NULL DEFAULT 0,
    weighted_dwell REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (session_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
CREATE INDEX IF NOT EXISTS idx_points_instruction ON session_points(instruction, junction_type);
`
