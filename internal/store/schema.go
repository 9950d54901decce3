package store

// schema contains the SQL statements to create the codegraph database schema.
// The nodes_fts virtual table is an external-content FTS5 index over nodes;
// the triggers keep it synchronized inside the same transaction as every
// insert, update, and delete of a node row.
const schema = `
-- Symbol nodes
CREATE TABLE IF NOT EXISTS nodes (
    id              TEXT PRIMARY KEY,
    kind            TEXT NOT NULL,
    name            TEXT NOT NULL,
    qualified_name  TEXT NOT NULL,
    file_path       TEXT NOT NULL,
    language        TEXT NOT NULL,
    start_line      INTEGER NOT NULL,
    end_line        INTEGER NOT NULL,
    start_column    INTEGER NOT NULL,
    end_column      INTEGER NOT NULL,
    docstring       TEXT,
    signature       TEXT,
    visibility      TEXT,
    is_exported     INTEGER NOT NULL DEFAULT 0,
    is_async        INTEGER NOT NULL DEFAULT 0,
    is_static       INTEGER NOT NULL DEFAULT 0,
    is_abstract     INTEGER NOT NULL DEFAULT 0,
    decorators      TEXT,
    type_parameters TEXT,
    updated_at      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_qualified ON nodes(qualified_name);
CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file_path);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);

-- Relationship edges; both endpoints must exist, deletes cascade
CREATE TABLE IF NOT EXISTS edges (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    source   TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    target   TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    kind     TEXT NOT NULL,
    metadata TEXT,
    line     INTEGER,
    col      INTEGER
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);
CREATE INDEX IF NOT EXISTS idx_edges_kind ON edges(kind);

-- Indexed files
CREATE TABLE IF NOT EXISTS files (
    path         TEXT PRIMARY KEY,
    content_hash TEXT NOT NULL,
    language     TEXT NOT NULL,
    size         INTEGER NOT NULL,
    modified_at  INTEGER NOT NULL,
    indexed_at   INTEGER NOT NULL,
    node_count   INTEGER NOT NULL DEFAULT 0,
    errors       TEXT
);

-- References not yet bound to a definition
CREATE TABLE IF NOT EXISTS unresolved_refs (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    from_node_id   TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    reference_name TEXT NOT NULL,
    reference_kind TEXT NOT NULL,
    line           INTEGER NOT NULL,
    col            INTEGER NOT NULL,
    arity          INTEGER NOT NULL DEFAULT 0,
    candidates     TEXT
);

CREATE INDEX IF NOT EXISTS idx_unresolved_from ON unresolved_refs(from_node_id);
CREATE INDEX IF NOT EXISTS idx_unresolved_name ON unresolved_refs(reference_name);

-- One embedding per (node, model)
CREATE TABLE IF NOT EXISTS vectors (
    node_id    TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    embedding  BLOB NOT NULL,
    model      TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (node_id, model)
);

-- Metadata table for index info
CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT
);

-- Full-text index over nodes, kept in sync by triggers
CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
    id UNINDEXED,
    name,
    qualified_name,
    docstring,
    content='nodes',
    content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS nodes_fts_insert AFTER INSERT ON nodes BEGIN
    INSERT INTO nodes_fts(rowid, id, name, qualified_name, docstring)
    VALUES (new.rowid, new.id, new.name, new.qualified_name, new.docstring);
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_delete AFTER DELETE ON nodes BEGIN
    INSERT INTO nodes_fts(nodes_fts, rowid, id, name, qualified_name, docstring)
    VALUES ('delete', old.rowid, old.id, old.name, old.qualified_name, old.docstring);
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_update AFTER UPDATE ON nodes BEGIN
    INSERT INTO nodes_fts(nodes_fts, rowid, id, name, qualified_name, docstring)
    VALUES ('delete', old.rowid, old.id, old.name, old.qualified_name, old.docstring);
    INSERT INTO nodes_fts(rowid, id, name, qualified_name, docstring)
    VALUES (new.rowid, new.id, new.name, new.qualified_name, new.docstring);
END;
`
