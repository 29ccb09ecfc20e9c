// Package sqlstore is a durable ratchet.Snapshot Store backed by SQLite
// via modernc.org/sqlite, the pure-Go driver. Schema is applied as two
// fixed CREATE TABLE statements rather than a migration chain, since
// this package owns a small, stable schema that never needs versioning.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/heratchet/heratchet"
	"github.com/heratchet/heratchet/store"
)

var _ store.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS ratchet_state (
	session_id   TEXT PRIMARY KEY,
	dhs_priv     BLOB NOT NULL,
	dhs_pub      BLOB NOT NULL,
	dhr_pub      BLOB NOT NULL,
	has_dhr      INTEGER NOT NULL,
	rk           BLOB NOT NULL,
	cks          BLOB NOT NULL,
	has_cks      INTEGER NOT NULL,
	ckr          BLOB NOT NULL,
	has_ckr      INTEGER NOT NULL,
	hks          BLOB NOT NULL,
	has_hks      INTEGER NOT NULL,
	hkr          BLOB NOT NULL,
	has_hkr      INTEGER NOT NULL,
	nhks         BLOB NOT NULL,
	nhkr         BLOB NOT NULL,
	ns           INTEGER NOT NULL,
	nr           INTEGER NOT NULL,
	pn           INTEGER NOT NULL,
	nonce_prefix_msg BLOB NOT NULL,
	nonce_ctr_msg    INTEGER NOT NULL,
	nonce_prefix_hdr BLOB NOT NULL,
	nonce_ctr_hdr    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS skipped_keys (
	session_id TEXT NOT NULL,
	hk         BLOB NOT NULL,
	idx        INTEGER NOT NULL,
	mk         BLOB NOT NULL,
	FOREIGN KEY (session_id) REFERENCES ratchet_state(session_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS skipped_keys_session_idx ON skipped_keys(session_id);
`

// ErrNotFound is returned by Store.Load when no row is recorded under
// the given session ID. It is store.ErrNotFound, as the store.Store
// contract requires.
var ErrNotFound = store.ErrNotFound

// Store is a durable ratchet.Snapshot store backed by a SQLite database.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if necessary) a SQLite database at path and
// applies the store's schema. log receives operational messages;
// passing nil uses slog.Default().
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: apply schema: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func sessionKey(id [32]byte) string {
	return hex.EncodeToString(id[:])
}

// Save persists snap under id, replacing any prior snapshot in a single
// transaction so a crash mid-write never leaves the state and skipped
// key tables inconsistent.
func (s *Store) Save(ctx context.Context, id [32]byte, snap ratchet.Snapshot) error {
	key := sessionKey(id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ratchet_state (
			session_id, dhs_priv, dhs_pub, dhr_pub, has_dhr, rk,
			cks, has_cks, ckr, has_ckr, hks, has_hks, hkr, has_hkr,
			nhks, nhkr, ns, nr, pn,
			nonce_prefix_msg, nonce_ctr_msg, nonce_prefix_hdr, nonce_ctr_hdr
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(session_id) DO UPDATE SET
			dhs_priv=excluded.dhs_priv, dhs_pub=excluded.dhs_pub, dhr_pub=excluded.dhr_pub,
			has_dhr=excluded.has_dhr, rk=excluded.rk,
			cks=excluded.cks, has_cks=excluded.has_cks, ckr=excluded.ckr, has_ckr=excluded.has_ckr,
			hks=excluded.hks, has_hks=excluded.has_hks, hkr=excluded.hkr, has_hkr=excluded.has_hkr,
			nhks=excluded.nhks, nhkr=excluded.nhkr, ns=excluded.ns, nr=excluded.nr, pn=excluded.pn,
			nonce_prefix_msg=excluded.nonce_prefix_msg, nonce_ctr_msg=excluded.nonce_ctr_msg,
			nonce_prefix_hdr=excluded.nonce_prefix_hdr, nonce_ctr_hdr=excluded.nonce_ctr_hdr
	`,
		key, snap.DHsPriv[:], snap.DHsPub[:], snap.DHrPub[:], snap.HasDHR, snap.RK[:],
		snap.CKs[:], snap.HasCKS, snap.CKr[:], snap.HasCKR,
		snap.HKs[:], snap.HasHKS, snap.HKr[:], snap.HasHKR,
		snap.NHKs[:], snap.NHKr[:], snap.Ns, snap.Nr, snap.Pn,
		snap.NoncePrefixMsg[:], snap.NonceCounterMsg, snap.NoncePrefixHdr[:], snap.NonceCounterHdr,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: upsert ratchet_state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM skipped_keys WHERE session_id = ?`, key); err != nil {
		return fmt.Errorf("sqlstore: clear skipped_keys: %w", err)
	}
	for _, e := range snap.Skipped {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO skipped_keys (session_id, hk, idx, mk) VALUES (?,?,?,?)`,
			key, e.HK[:], e.Idx, e.MK[:])
		if err != nil {
			return fmt.Errorf("sqlstore: insert skipped_keys: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit save: %w", err)
	}
	s.log.Debug("saved ratchet session", "session", key, "skipped", len(snap.Skipped))
	return nil
}

// Load retrieves the snapshot saved under id, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id [32]byte) (ratchet.Snapshot, error) {
	key := sessionKey(id)

	var snap ratchet.Snapshot
	var dhsPriv, dhsPub, dhrPub, rk, cks, ckr, hks, hkr, nhks, nhkr []byte
	var noncePrefixMsg, noncePrefixHdr []byte

	row := s.db.QueryRowContext(ctx, `
		SELECT dhs_priv, dhs_pub, dhr_pub, has_dhr, rk,
			cks, has_cks, ckr, has_ckr, hks, has_hks, hkr, has_hkr,
			nhks, nhkr, ns, nr, pn,
			nonce_prefix_msg, nonce_ctr_msg, nonce_prefix_hdr, nonce_ctr_hdr
		FROM ratchet_state WHERE session_id = ?
	`, key)
	err := row.Scan(
		&dhsPriv, &dhsPub, &dhrPub, &snap.HasDHR, &rk,
		&cks, &snap.HasCKS, &ckr, &snap.HasCKR, &hks, &snap.HasHKS, &hkr, &snap.HasHKR,
		&nhks, &nhkr, &snap.Ns, &snap.Nr, &snap.Pn,
		&noncePrefixMsg, &snap.NonceCounterMsg, &noncePrefixHdr, &snap.NonceCounterHdr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ratchet.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return ratchet.Snapshot{}, fmt.Errorf("sqlstore: load ratchet_state: %w", err)
	}

	copy(snap.DHsPriv[:], dhsPriv)
	copy(snap.DHsPub[:], dhsPub)
	copy(snap.DHrPub[:], dhrPub)
	copy(snap.RK[:], rk)
	copy(snap.CKs[:], cks)
	copy(snap.CKr[:], ckr)
	copy(snap.HKs[:], hks)
	copy(snap.HKr[:], hkr)
	copy(snap.NHKs[:], nhks)
	copy(snap.NHKr[:], nhkr)
	copy(snap.NoncePrefixMsg[:], noncePrefixMsg)
	copy(snap.NoncePrefixHdr[:], noncePrefixHdr)

	rows, err := s.db.QueryContext(ctx, `SELECT hk, idx, mk FROM skipped_keys WHERE session_id = ?`, key)
	if err != nil {
		return ratchet.Snapshot{}, fmt.Errorf("sqlstore: load skipped_keys: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var hk, mk []byte
		var idx uint32
		if err := rows.Scan(&hk, &idx, &mk); err != nil {
			return ratchet.Snapshot{}, fmt.Errorf("sqlstore: scan skipped_keys: %w", err)
		}
		var entry ratchet.SkippedKey
		copy(entry.HK[:], hk)
		copy(entry.MK[:], mk)
		entry.Idx = idx
		snap.Skipped = append(snap.Skipped, entry)
	}
	if err := rows.Err(); err != nil {
		return ratchet.Snapshot{}, fmt.Errorf("sqlstore: iterate skipped_keys: %w", err)
	}

	return snap, nil
}

// Delete removes any snapshot saved under id. Deleting a nonexistent id
// is not an error.
func (s *Store) Delete(ctx context.Context, id [32]byte) error {
	key := sessionKey(id)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ratchet_state WHERE session_id = ?`, key); err != nil {
		return fmt.Errorf("sqlstore: delete ratchet_state: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM skipped_keys WHERE session_id = ?`, key); err != nil {
		return fmt.Errorf("sqlstore: delete skipped_keys: %w", err)
	}
	s.log.Debug("deleted ratchet session", "session", key)
	return nil
}

// PruneSkipped deletes skipped keys beyond maxGlobal per session, oldest
// first, guarding against unbounded growth if a session is loaded and
// saved many times without its skip budget ever being exercised down.
func (s *Store) PruneSkipped(ctx context.Context, id [32]byte, maxGlobal int) error {
	key := sessionKey(id)
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM skipped_keys
		WHERE session_id = ? AND rowid NOT IN (
			SELECT rowid FROM skipped_keys WHERE session_id = ?
			ORDER BY rowid DESC LIMIT ?
		)
	`, key, key, maxGlobal)
	if err != nil {
		return fmt.Errorf("sqlstore: prune skipped_keys: %w", err)
	}
	return nil
}
