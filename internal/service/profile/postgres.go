package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	profilesTable            = "profiles"
	uniqueViolation          = "23505"
	usernameUniqueConstraint = "profiles_username_key"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var profileColumns = []string{
	"id", "owner_id", "username",
	"name", "title", "location", "bio",
	"email", "website", "github", "linkedin", "twitter",
	"experience", "education", "skills", "sections_order",
	"is_public", "created_at", "updated_at",
}

// PostgresStore implements Service on PostgreSQL. Lists are stored as JSONB;
// UNIQUE constraints on owner_id and username back the claim guarantees.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed profile store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p                                  Profile
		experience, education, skills, ord []byte
	)
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Username,
		&p.Name, &p.Title, &p.Location, &p.Bio,
		&p.Email, &p.Website, &p.GitHub, &p.LinkedIn, &p.Twitter,
		&experience, &education, &skills, &ord,
		&p.IsPublic, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{experience, &p.Experience},
		{education, &p.Education},
		{skills, &p.Skills},
		{ord, &p.SectionsOrder},
	} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", p.ID, err)
		}
	}
	p.Experience = nonNil(p.Experience)
	p.Education = nonNil(p.Education)
	p.Skills = nonNil(p.Skills)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

type jsonLists struct {
	experience, education, skills, order []byte
}

func marshalLists(p *Profile) (jsonLists, error) {
	var (
		l   jsonLists
		err error
	)
	if l.experience, err = json.Marshal(nonNil(p.Experience)); err != nil {
		return l, err
	}
	if l.education, err = json.Marshal(nonNil(p.Education)); err != nil {
		return l, err
	}
	if l.skills, err = json.Marshal(nonNil(p.Skills)); err != nil {
		return l, err
	}
	if l.order, err = json.Marshal(nonNil(p.SectionsOrder)); err != nil {
		return l, err
	}
	return l, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == usernameUniqueConstraint {
			return ErrUsernameTaken
		}
		return ErrAlreadyExists
	}
	return err
}

func (s *PostgresStore) exists(ctx context.Context, q pgx.Tx, column, value string) (bool, error) {
	query, args, err := psql.Select("1").From(profilesTable).Where(sq.Eq{column: value}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}
	var one int
	switch err := q.QueryRow(ctx, query, args...).Scan(&one); {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("check %s: %w", column, err)
	}
}

func (s *PostgresStore) Create(ctx context.Context, ownerID string, params CreateParams) (*Profile, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if taken, err := s.exists(ctx, tx, "username", params.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if owned, err := s.exists(ctx, tx, "owner_id", ownerID); err != nil {
		return nil, err
	} else if owned {
		return nil, ErrAlreadyExists
	}

	p := newProfile(uuid.NewString(), ownerID, params, time.Now().UTC())
	lists, err := marshalLists(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	query, args, err := psql.Insert(profilesTable).
		Columns(profileColumns...).
		Values(
			p.ID, p.OwnerID, p.Username,
			p.Name, p.Title, p.Location, p.Bio,
			p.Email, p.Website, p.GitHub, p.LinkedIn, p.Twitter,
			lists.experience, lists.education, lists.skills, lists.order,
			p.IsPublic, p.CreatedAt, p.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	// Concurrent creators that passed the checks above collide here.
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) selectOne(ctx context.Context, where sq.Sqlizer) (*Profile, error) {
	query, args, err := psql.Select(profileColumns...).From(profilesTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return scanProfile(s.db.QueryRow(ctx, query, args...))
}

func (s *PostgresStore) Get(ctx context.Context, ownerID string) (*Profile, error) {
	return s.selectOne(ctx, sq.Eq{"owner_id": ownerID})
}

func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	return s.selectOne(ctx, sq.Eq{"username": username, "is_public": true})
}

func (s *PostgresStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	query, args, err := psql.Select().
		Column(sq.Expr("EXISTS (SELECT 1 FROM "+profilesTable+" WHERE username = ?)", username)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var exists bool
	if err := s.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Replace(ctx context.Context, ownerID string, params ReplaceParams) (*Profile, error) {
	if err := params.Check(); err != nil {
		return nil, err
	}

	var draft Profile
	draft.applyReplace(params, time.Now().UTC())
	lists, err := marshalLists(&draft)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	query, args, err := psql.Update(profilesTable).
		SetMap(map[string]any{
			"name":           draft.Name,
			"title":          draft.Title,
			"location":       draft.Location,
			"bio":            draft.Bio,
			"email":          draft.Email,
			"website":        draft.Website,
			"github":         draft.GitHub,
			"linkedin":       draft.LinkedIn,
			"twitter":        draft.Twitter,
			"experience":     lists.experience,
			"education":      lists.education,
			"skills":         lists.skills,
			"sections_order": lists.order,
			"is_public":      draft.IsPublic,
			"updated_at":     draft.UpdatedAt,
		}).
		Where(sq.Eq{"owner_id": ownerID}).
		Suffix("RETURNING " + strings.Join(profileColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	return scanProfile(s.db.QueryRow(ctx, query, args...))
}

func (s *PostgresStore) ListPublic(ctx context.Context) ([]*Profile, error) {
	query, args, err := psql.Select(profileColumns...).
		From(profilesTable).
		Where(sq.Eq{"is_public": true}).
		OrderBy("username ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list public profiles: %w", err)
	}
	defer rows.Close()

	out := make([]*Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

var _ Service = (*PostgresStore)(nil)
