package manifest

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	command TEXT NOT NULL,
	input TEXT NOT NULL,
	output TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	units INTEGER NOT NULL DEFAULT 0,
	converted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS units (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	input TEXT NOT NULL,
	output TEXT NOT NULL,
	status TEXT NOT NULL,
	box TEXT,
	error TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_units_run ON units(run_id);
`
