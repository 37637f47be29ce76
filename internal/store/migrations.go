package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// Calendar dates are stored as TEXT "YYYY-MM-DD" and timestamps as TEXT
// "YYYY-MM-DDTHH:MM:SSZ" in UTC so that range predicates compare lexically.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS lists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	color      TEXT NOT NULL DEFAULT '',
	archived   INTEGER NOT NULL DEFAULT 0 CHECK(archived IN (0, 1)),
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                  TEXT PRIMARY KEY,
	title               TEXT NOT NULL,
	notes               TEXT NOT NULL DEFAULT '',
	list_id             TEXT REFERENCES lists(id) ON DELETE SET NULL,
	priority            INTEGER CHECK(priority IS NULL OR priority BETWEEN 1 AND 4),
	due_date            TEXT,
	due_time            TEXT NOT NULL DEFAULT '',
	estimated_minutes   INTEGER CHECK(estimated_minutes IS NULL OR estimated_minutes > 0),
	recurrence_rule     TEXT NOT NULL DEFAULT '',
	recurrence_end_date TEXT,
	reminder_at         TEXT,
	completed           INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	completed_at        TEXT,
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	color      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS task_tags (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_list_id ON tasks(list_id);
CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(updated_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_tasks_due
	ON tasks(completed, due_date, due_time);

CREATE INDEX IF NOT EXISTS idx_tasks_reminder_at
	ON tasks(completed, reminder_at);

CREATE INDEX IF NOT EXISTS idx_tasks_recurring
	ON tasks(completed, recurrence_rule, due_date);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
