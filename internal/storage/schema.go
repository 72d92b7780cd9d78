package storage

const schema = `
CREATE TABLE IF NOT EXISTS files(
    file_id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS commits(
    commit_id INTEGER PRIMARY KEY AUTOINCREMENT,
    hex TEXT NOT NULL UNIQUE,
    date INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS commits_commits(
    parent_id INTEGER,
    child_id INTEGER,
    PRIMARY KEY (parent_id, child_id)
);

CREATE TABLE IF NOT EXISTS edits(
    edit_id INTEGER PRIMARY KEY AUTOINCREMENT,
    old_file_id INTEGER REFERENCES files(file_id),
    new_file_id INTEGER REFERENCES files(file_id),
    old_line INTEGER,
    new_line INTEGER,
    commit_id INTEGER REFERENCES commits(commit_id)
);

CREATE TABLE IF NOT EXISTS bugs(
    bug_id INTEGER PRIMARY KEY AUTOINCREMENT,
    bug_no INTEGER
);

CREATE TABLE IF NOT EXISTS bugs_commits(
    bug_id INTEGER REFERENCES bugs(bug_id),
    commit_id INTEGER REFERENCES commits(commit_id),
    PRIMARY KEY (bug_id, commit_id)
);

CREATE INDEX IF NOT EXISTS commits_hex_index ON commits(hex);
CREATE INDEX IF NOT EXISTS edits_old_file_index ON edits(old_file_id);
CREATE INDEX IF NOT EXISTS edits_new_file_index ON edits(new_file_id);
CREATE INDEX IF NOT EXISTS edits_new_file_line_index ON edits(new_file_id, new_line);
CREATE INDEX IF NOT EXISTS edits_commit_index ON edits(commit_id);
CREATE INDEX IF NOT EXISTS bugs_commits_bug_index ON bugs(bug_id);
CREATE INDEX IF NOT EXISTS bugs_commits_commits_index ON commits(commit_id);
`
