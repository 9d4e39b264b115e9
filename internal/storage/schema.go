package storage

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    cache_key TEXT UNIQUE NOT NULL,
    tenant TEXT NOT NULL DEFAULT '',
    resource TEXT NOT NULL,
    body BLOB NOT NULL,
    fetched_at DATETIME NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS admin_actions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    action_uuid TEXT UNIQUE NOT NULL,
    kind TEXT NOT NULL,
    tenant TEXT NOT NULL DEFAULT '',
    project TEXT NOT NULL DEFAULT '',
    target TEXT NOT NULL DEFAULT '',
    requested_by TEXT NOT NULL DEFAULT '',
    requested_at DATETIME NOT NULL,
    outcome TEXT NOT NULL DEFAULT 'PENDING',
    message TEXT DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at DESC);
CREATE INDEX IF NOT EXISTS idx_admin_actions_requested_at ON admin_actions(requested_at DESC);
`
