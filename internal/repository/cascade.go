package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
)

// cascadeDelete removes a catalog row whose deletion cascades to tickets.
// affectedSQL selects the reservation ids owning the tickets about to
// disappear; under the delete policy those that end up with no tickets are
// removed in the same transaction.
func cascadeDelete(ctx context.Context, db *sql.DB, policy config.EmptyReservationPolicy, what, affectedSQL, deleteSQL string, id uint64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var affected []uint64
	if policy == config.DeleteEmptyReservations {
		if affected, err = collectIDs(ctx, tx, affectedSQL, id); err != nil {
			return fmt.Errorf("collect reservations: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, deleteSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(what, id)
	}

	if len(affected) > 0 {
		if _, err := pruneEmptyReservationsTx(ctx, tx, affected); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// pruneEmptyReservationsTx deletes those of ids that own no tickets and
// returns how many rows went away.
func pruneEmptyReservationsTx(ctx context.Context, tx *sql.Tx, ids []uint64) (int64, error) {
	ids = dedupe(ids)
	q := "DELETE FROM reservations WHERE id IN (" + placeholders(len(ids)) + ")" +
		" AND NOT EXISTS (SELECT 1 FROM tickets t WHERE t.reservation_id = reservations.id)"
	res, err := tx.ExecContext(ctx, q, uintArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("prune empty reservations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
