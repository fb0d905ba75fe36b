// Package repo holds the indexing persistence: the postgres ledger, the redis key contract and the analytics sink
package repo

import (
	"context"
	"time"

	"quickgithub/internal/modkit/repokit"
	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/store"
	"quickgithub/internal/services/api/indexing/domain"

	"github.com/google/uuid"
)

// Ledger is the durable repository and user surface used by the service layer
type Ledger interface {
	FindRepo(ctx context.Context, fullName string) (domain.Repo, bool, error)
	FindUser(ctx context.Context, id string) (domain.User, bool, error)

	// UpsertPending resets or creates the row as a fresh PENDING run; inserted is true for a new row
	UpsertPending(ctx context.Context, in domain.UpsertInput) (r domain.Repo, inserted bool, err error)
	IncrementClaims(ctx context.Context, userID string) error
	ResetClaims(ctx context.Context, userID string) (bool, error)

	DeleteDocs(ctx context.Context, repoID string) error
	// MarkFailed only moves rows that are still in progress
	MarkFailed(ctx context.Context, repoID, msg string) (bool, error)
	// MarkStalled is MarkFailed for a row that must not have been touched after seen
	MarkStalled(ctx context.Context, repoID string, seen time.Time, msg string) (bool, error)

	Stamp(ctx context.Context, fullName string) (domain.Stamp, bool, error)
	LoadDocs(ctx context.Context, fullName string) (domain.Docs, bool, error)

	// ListStuck returns in-progress rows untouched since before
	ListStuck(ctx context.Context, before time.Time, limit int) ([]domain.Repo, error)
}

type (
	// PG is the postgres implementation of Ledger
	PG      struct{}
	queries struct {
		q     repokit.Queryer
		newID func() string
	}
)

// NewPG returns a binder for the postgres implementation
func NewPG() repokit.Binder[Ledger] { return PG{} }

// Bind attaches a Queryer (pool or tx)
func (PG) Bind(q repokit.Queryer) Ledger { return &queries{q: q, newID: uuid.NewString} }

const repoColumns = `id, owner, name, "fullName", status::text, progress,
	COALESCE("errorMessage", ''), COALESCE("claimedById", ''), COALESCE("indexedWith", ''),
	"createdAt", "updatedAt"`

func scanRepo(row store.Row) (domain.Repo, error) {
	var r domain.Repo
	var st string
	err := row.Scan(&r.ID, &r.Owner, &r.Name, &r.FullName, &st, &r.Progress,
		&r.ErrorMessage, &r.ClaimedByID, &r.IndexedWith, &r.CreatedAt, &r.UpdatedAt)
	r.Status = domain.Status(st)
	return r, err
}

// found folds "no row" into ok=false
func found[T any](v T, err error, msg string) (T, bool, error) {
	var zero T
	if err == nil {
		return v, true, nil
	}
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return zero, false, nil
	}
	return zero, false, perr.FromPostgres(err, msg)
}

func (r *queries) FindRepo(ctx context.Context, fullName string) (domain.Repo, bool, error) {
	v, err := store.One(ctx, r.q, scanRepo,
		`SELECT `+repoColumns+` FROM "Repo" WHERE "fullName" = $1`, fullName)
	return found(v, err, "find repo")
}

func (r *queries) FindUser(ctx context.Context, id string) (domain.User, bool, error) {
	v, err := store.One(ctx, r.q, func(row store.Row) (domain.User, error) {
		var u domain.User
		var tier string
		err := row.Scan(&u.ID, &u.ReposClaimed, &tier)
		u.Tier = domain.ParseTier(tier)
		return u, err
	}, `SELECT id, "reposClaimed", COALESCE(tier::text, 'FREE') FROM "User" WHERE id = $1`, id)
	return found(v, err, "find user")
}

// UpsertPending relies on xmax = 0 only for freshly inserted tuples
func (r *queries) UpsertPending(ctx context.Context, in domain.UpsertInput) (domain.Repo, bool, error) {
	const sql = `
		INSERT INTO "Repo" (id, owner, name, "fullName", status, progress, "errorMessage", "claimedById", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, 'PENDING', 0, NULL, NULLIF($5, ''), now(), now())
		ON CONFLICT ("fullName") DO UPDATE
		SET status        = 'PENDING',
		    progress      = 0,
		    "errorMessage" = NULL,
		    "claimedById"  = EXCLUDED."claimedById",
		    "updatedAt"    = now()
		RETURNING ` + repoColumns + `, (xmax = 0) AS inserted`

	var inserted bool
	out, err := store.One(ctx, r.q, func(row store.Row) (domain.Repo, error) {
		var x domain.Repo
		var st string
		err := row.Scan(&x.ID, &x.Owner, &x.Name, &x.FullName, &st, &x.Progress,
			&x.ErrorMessage, &x.ClaimedByID, &x.IndexedWith, &x.CreatedAt, &x.UpdatedAt, &inserted)
		x.Status = domain.Status(st)
		return x, err
	}, sql, r.newID(), in.Key.Owner, in.Key.Repo, in.Key.FullName(), in.ClaimedByID)
	if err != nil {
		return domain.Repo{}, false, perr.FromPostgresf(err, "upsert repo %s", in.Key.FullName())
	}
	return out, inserted, nil
}

func (r *queries) IncrementClaims(ctx context.Context, userID string) error {
	err := store.ExecOne(ctx, r.q, `UPDATE "User" SET "reposClaimed" = "reposClaimed" + 1 WHERE id = $1`, userID)
	if err == store.ErrNoRowsAffected {
		return perr.NotFoundf("User not found")
	}
	return perr.FromPostgres(err, "increment claims")
}

func (r *queries) ResetClaims(ctx context.Context, userID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `UPDATE "User" SET "reposClaimed" = 0 WHERE id = $1`, userID)
	if err != nil {
		return false, perr.FromPostgres(err, "reset claims")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) DeleteDocs(ctx context.Context, repoID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM "Documentation" WHERE "repoId" = $1`, repoID)
	return perr.FromPostgres(err, "delete documentation")
}

func (r *queries) MarkFailed(ctx context.Context, repoID, msg string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE "Repo"
		SET status = 'FAILED', "errorMessage" = $2, "updatedAt" = now()
		WHERE id = $1 AND status IN ('PENDING', 'FETCHING', 'PARSING', 'ANALYZING')`, repoID, msg)
	if err != nil {
		return false, perr.FromPostgres(err, "mark failed")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) MarkStalled(ctx context.Context, repoID string, seen time.Time, msg string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE "Repo"
		SET status = 'FAILED', "errorMessage" = $2, "updatedAt" = now()
		WHERE id = $1 AND status IN ('PENDING', 'FETCHING', 'PARSING', 'ANALYZING') AND "updatedAt" <= $3`,
		repoID, msg, seen)
	if err != nil {
		return false, perr.FromPostgres(err, "mark stalled")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) Stamp(ctx context.Context, fullName string) (domain.Stamp, bool, error) {
	v, err := store.One(ctx, r.q, func(row store.Row) (domain.Stamp, error) {
		var s domain.Stamp
		var st string
		err := row.Scan(&st, &s.UpdatedAt)
		s.Status = domain.Status(st)
		return s, err
	}, `SELECT status::text, "updatedAt" FROM "Repo" WHERE "fullName" = $1`, fullName)
	return found(v, err, "read repo stamp")
}

func (r *queries) LoadDocs(ctx context.Context, fullName string) (domain.Docs, bool, error) {
	const sql = `
		SELECT r.id, r.owner, r.name, r."fullName", r.status::text, r."updatedAt", COALESCE(r."indexedWith", ''),
		       d."systemOverview", d.architecture, d."techStack", d."keyModules", d."entryPoints", d.dependencies,
		       COALESCE(d."repoContext", '')
		FROM "Repo" r
		JOIN "Documentation" d ON d."repoId" = r.id
		WHERE r."fullName" = $1`
	v, err := store.One(ctx, r.q, func(row store.Row) (domain.Docs, error) {
		var d domain.Docs
		var st string
		err := row.Scan(&d.ID, &d.Owner, &d.Name, &d.FullName, &st, &d.UpdatedAt, &d.IndexedWith,
			&d.SystemOverview, &d.Architecture, &d.TechStack, &d.KeyModules, &d.EntryPoints, &d.Dependencies,
			&d.RepoContext)
		d.Status = domain.Status(st)
		return d, err
	}, sql, fullName)
	return found(v, err, "load documentation")
}

func (r *queries) ListStuck(ctx context.Context, before time.Time, limit int) ([]domain.Repo, error) {
	out, err := store.Many(ctx, r.q, scanRepo, `
		SELECT `+repoColumns+`
		FROM "Repo"
		WHERE status IN ('PENDING', 'FETCHING', 'PARSING', 'ANALYZING') AND "updatedAt" < $1
		ORDER BY "updatedAt"
		LIMIT $2`, before, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "list stuck repos")
	}
	return out, nil
}
