// Package storage persists mined repository history in an embedded SQLite
// database: files, commits, parent edges, line edits, bugs and bug-commit
// links.
package storage

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// File is a tracked path. An Edit references its old-side and new-side File
// separately, but ingestion does not detect renames: a renamed file arrives
// as a deletion under the old path and an addition under the new one, each
// Edit referencing the same File on both sides.
type File struct {
	ID   int64
	Path string
}

// Commit is a point in repository history.
type Commit struct {
	ID   int64
	Hex  string
	Date int64
}

// Bug is a referenced issue number.
type Bug struct {
	ID int64
	No int64
}

// Edit is one persisted line-level change. Exactly one of three shapes
// holds: deletion (OldLine set, NewLine null), addition (NewLine set,
// OldLine null), or change (both set).
type Edit struct {
	ID        int64
	OldFileID sql.NullInt64
	NewFileID sql.NullInt64
	OldLine   sql.NullInt64
	NewLine   sql.NullInt64
	CommitID  int64
}

// Store wraps the embedded database. It is owned exclusively by the active
// pipeline; concurrent ingest and query over one Store are not supported.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database file and applies the schema. Both the
// tables and the indexes are created idempotently, so opening an already
// built store is a no-op.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %s", path)
	}
	if _, err = db.Exec(`PRAGMA recursive_triggers = TRUE`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "configuring database")
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "closing database")
}

// Begin opens the transaction covering one ingested commit.
func (s *Store) Begin() (*sql.Tx, error) {
	tx, err := s.db.Begin()
	return tx, errors.Wrap(err, "beginning transaction")
}

// FindOrCreateFile returns the File row for path, creating it on first
// observation.
func (s *Store) FindOrCreateFile(tx *sql.Tx, path string) (File, error) {
	f := File{Path: path}
	err := tx.QueryRow(`SELECT file_id FROM files WHERE path = ?`, path).Scan(&f.ID)
	if err == nil {
		return f, nil
	}
	if err != sql.ErrNoRows {
		return f, errors.Wrapf(err, "looking up file %s", path)
	}
	res, err := tx.Exec(`INSERT INTO files(path) VALUES (?)`, path)
	if err != nil {
		return f, errors.Wrapf(err, "inserting file %s", path)
	}
	f.ID, err = res.LastInsertId()
	return f, errors.Wrap(err, "reading file id")
}

// FindOrCreateCommit returns the Commit row for hex, creating it with the
// given date on first observation. An existing row is returned as stored;
// commits are immutable after creation.
func (s *Store) FindOrCreateCommit(tx *sql.Tx, hex string, date int64) (Commit, error) {
	c := Commit{Hex: hex, Date: date}
	err := tx.QueryRow(`SELECT commit_id, date FROM commits WHERE hex = ?`, hex).
		Scan(&c.ID, &c.Date)
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return c, errors.Wrapf(err, "looking up commit %s", hex)
	}
	res, err := tx.Exec(`INSERT INTO commits(hex, date) VALUES (?, ?)`, hex, date)
	if err != nil {
		return c, errors.Wrapf(err, "inserting commit %s", hex)
	}
	c.ID, err = res.LastInsertId()
	return c, errors.Wrap(err, "reading commit id")
}

// FindOrCreateBug returns the Bug row for a bug number, creating it on first
// mention.
func (s *Store) FindOrCreateBug(tx *sql.Tx, no int64) (Bug, error) {
	b := Bug{No: no}
	err := tx.QueryRow(`SELECT bug_id FROM bugs WHERE bug_no = ?`, no).Scan(&b.ID)
	if err == nil {
		return b, nil
	}
	if err != sql.ErrNoRows {
		return b, errors.Wrapf(err, "looking up bug %d", no)
	}
	res, err := tx.Exec(`INSERT INTO bugs(bug_no) VALUES (?)`, no)
	if err != nil {
		return b, errors.Wrapf(err, "inserting bug %d", no)
	}
	b.ID, err = res.LastInsertId()
	return b, errors.Wrap(err, "reading bug id")
}

// LinkBugCommit records that a commit's message references a bug. Replaying
// an existing link is a no-op.
func (s *Store) LinkBugCommit(tx *sql.Tx, bugID, commitID int64) error {
	_, err := tx.Exec(
		`INSERT OR IGNORE INTO bugs_commits(bug_id, commit_id) VALUES (?, ?)`,
		bugID, commitID)
	return errors.Wrapf(err, "linking bug %d to commit %d", bugID, commitID)
}

// LinkParent records the parent→child edge. Replaying an existing edge is a
// no-op.
func (s *Store) LinkParent(tx *sql.Tx, parentID, childID int64) error {
	_, err := tx.Exec(
		`INSERT OR IGNORE INTO commits_commits(parent_id, child_id) VALUES (?, ?)`,
		parentID, childID)
	return errors.Wrapf(err, "linking parent %d to child %d", parentID, childID)
}

// InsertEdit persists one line-level change.
func (s *Store) InsertEdit(tx *sql.Tx, e Edit) error {
	_, err := tx.Exec(
		`INSERT INTO edits(old_file_id, new_file_id, old_line, new_line, commit_id)
		 VALUES (?, ?, ?, ?, ?)`,
		e.OldFileID, e.NewFileID, e.OldLine, e.NewLine, e.CommitID)
	return errors.Wrapf(err, "inserting edit for commit %d", e.CommitID)
}

// EditCount reports how many edits a commit already carries. The ingestor
// uses it to skip re-diffing commits that were fully processed by an earlier
// run.
func (s *Store) EditCount(tx *sql.Tx, commitID int64) (int64, error) {
	var n int64
	err := tx.QueryRow(
		`SELECT COUNT(*) FROM edits WHERE commit_id = ?`, commitID).Scan(&n)
	return n, errors.Wrapf(err, "counting edits of commit %d", commitID)
}

// Bugs returns every known bug ordered by id.
func (s *Store) Bugs() ([]Bug, error) {
	rows, err := s.db.Query(`SELECT bug_id, bug_no FROM bugs ORDER BY bug_id`)
	if err != nil {
		return nil, errors.Wrap(err, "listing bugs")
	}
	defer rows.Close()
	var bugs []Bug
	for rows.Next() {
		var b Bug
		if err = rows.Scan(&b.ID, &b.No); err != nil {
			return nil, errors.Wrap(err, "scanning bug")
		}
		bugs = append(bugs, b)
	}
	return bugs, errors.Wrap(rows.Err(), "listing bugs")
}

// FixCommits returns the commits linked to a bug, ordered by id, optionally
// restricted to an inclusive [from, to] window on the commit date. Nil
// bounds leave the corresponding side open.
func (s *Store) FixCommits(bugID int64, from, to *int64) ([]Commit, error) {
	query := `SELECT c.commit_id, c.hex, c.date FROM commits c
	          JOIN bugs_commits bc ON bc.commit_id = c.commit_id
	          WHERE bc.bug_id = ?`
	args := []interface{}{bugID}
	if from != nil {
		query += ` AND c.date >= ?`
		args = append(args, *from)
	}
	if to != nil {
		query += ` AND c.date <= ?`
		args = append(args, *to)
	}
	query += ` ORDER BY c.commit_id`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "listing fix commits of bug %d", bugID)
	}
	defer rows.Close()
	var commits []Commit
	for rows.Next() {
		var c Commit
		if err = rows.Scan(&c.ID, &c.Hex, &c.Date); err != nil {
			return nil, errors.Wrap(err, "scanning commit")
		}
		commits = append(commits, c)
	}
	return commits, errors.Wrapf(rows.Err(), "listing fix commits of bug %d", bugID)
}

// EditsOfCommit returns the edits persisted for one commit.
func (s *Store) EditsOfCommit(commitID int64) ([]Edit, error) {
	rows, err := s.db.Query(
		`SELECT edit_id, old_file_id, new_file_id, old_line, new_line, commit_id
		 FROM edits WHERE commit_id = ? ORDER BY edit_id`, commitID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing edits of commit %d", commitID)
	}
	defer rows.Close()
	var edits []Edit
	for rows.Next() {
		var e Edit
		if err = rows.Scan(&e.ID, &e.OldFileID, &e.NewFileID,
			&e.OldLine, &e.NewLine, &e.CommitID); err != nil {
			return nil, errors.Wrap(err, "scanning edit")
		}
		edits = append(edits, e)
	}
	return edits, errors.Wrapf(rows.Err(), "listing edits of commit %d", commitID)
}

// LatestOriginBefore finds the most recent commit older than beforeDate
// whose own edits introduced the given (file, line) on their new side. Ties
// on date resolve to the smallest commit id, keeping the result stable
// across runs. A nil Commit means no such origin exists.
func (s *Store) LatestOriginBefore(fileID, line, beforeDate int64) (*Commit, error) {
	var c Commit
	err := s.db.QueryRow(
		`SELECT c.commit_id, c.hex, c.date FROM commits c
		 JOIN edits e ON e.commit_id = c.commit_id
		 WHERE c.date < ? AND e.new_file_id = ? AND e.new_line = ?
		 ORDER BY c.date DESC, c.commit_id ASC LIMIT 1`,
		beforeDate, fileID, line).Scan(&c.ID, &c.Hex, &c.Date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "resolving origin of file %d line %d", fileID, line)
	}
	return &c, nil
}
