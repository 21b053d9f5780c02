package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS report_cache (
    cache_key    TEXT PRIMARY KEY,
    fetched_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_records (
    cache_key    TEXT NOT NULL REFERENCES report_cache(cache_key) ON DELETE CASCADE,
    seq          INTEGER NOT NULL,
    login        TEXT NOT NULL,
    account      TEXT NOT NULL,
    used         REAL NOT NULL,
    PRIMARY KEY (cache_key, seq)
);
`
