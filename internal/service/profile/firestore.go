package profile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/janisto/cv-builder/internal/platform/logging"
)

const (
	profilesCollection  = "profiles"
	usernamesCollection = "usernames"
)

// FirestoreStore implements Service on Cloud Firestore.
//
// Profiles live in profiles/{ownerID}. Each claimed handle has a companion
// document usernames/{username} pointing back at its owner; creating both in
// one transaction is what makes the handle unique.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed profile store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

type profileDoc struct {
	ID            string       `firestore:"id"`
	OwnerID       string       `firestore:"ownerId"`
	Username      string       `firestore:"username"`
	Name          string       `firestore:"name"`
	Title         string       `firestore:"title"`
	Location      string       `firestore:"location"`
	Bio           string       `firestore:"bio"`
	Email         string       `firestore:"email"`
	Website       string       `firestore:"website"`
	GitHub        string       `firestore:"github"`
	LinkedIn      string       `firestore:"linkedin"`
	Twitter       string       `firestore:"twitter"`
	Experience    []Experience `firestore:"experience"`
	Education     []Education  `firestore:"education"`
	Skills        []string     `firestore:"skills"`
	SectionsOrder []string     `firestore:"sectionsOrder"`
	IsPublic      bool         `firestore:"isPublic"`
	CreatedAt     time.Time    `firestore:"createdAt"`
	UpdatedAt     time.Time    `firestore:"updatedAt"`
}

type usernameDoc struct {
	OwnerID   string    `firestore:"ownerId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func toDoc(p *Profile) profileDoc {
	return profileDoc{
		ID:            p.ID,
		OwnerID:       p.OwnerID,
		Username:      p.Username,
		Name:          p.Name,
		Title:         p.Title,
		Location:      p.Location,
		Bio:           p.Bio,
		Email:         p.Email,
		Website:       p.Website,
		GitHub:        p.GitHub,
		LinkedIn:      p.LinkedIn,
		Twitter:       p.Twitter,
		Experience:    p.Experience,
		Education:     p.Education,
		Skills:        p.Skills,
		SectionsOrder: p.SectionsOrder,
		IsPublic:      p.IsPublic,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (d profileDoc) toProfile() *Profile {
	return &Profile{
		ID:            d.ID,
		OwnerID:       d.OwnerID,
		Username:      d.Username,
		Name:          d.Name,
		Title:         d.Title,
		Location:      d.Location,
		Bio:           d.Bio,
		Email:         d.Email,
		Website:       d.Website,
		GitHub:        d.GitHub,
		LinkedIn:      d.LinkedIn,
		Twitter:       d.Twitter,
		Experience:    nonNil(d.Experience),
		Education:     nonNil(d.Education),
		Skills:        nonNil(d.Skills),
		SectionsOrder: d.SectionsOrder,
		IsPublic:      d.IsPublic,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *FirestoreStore) Create(ctx context.Context, ownerID string, params CreateParams) (*Profile, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}

	profileRef := s.client.Collection(profilesCollection).Doc(ownerID)
	usernameRef := s.client.Collection(usernamesCollection).Doc(params.Username)

	var created *Profile
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(usernameRef); err == nil {
			return ErrUsernameTaken
		} else if !isNotFound(err) {
			return fmt.Errorf("read username: %w", err)
		}

		if _, err := tx.Get(profileRef); err == nil {
			return ErrAlreadyExists
		} else if !isNotFound(err) {
			return fmt.Errorf("read profile: %w", err)
		}

		now := time.Now().UTC()
		p := newProfile(uuid.NewString(), ownerID, params, now)

		if err := tx.Create(usernameRef, usernameDoc{OwnerID: ownerID, CreatedAt: now}); err != nil {
			return fmt.Errorf("create username: %w", err)
		}
		if err := tx.Create(profileRef, toDoc(p)); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		created = p
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "create", ownerID, err)
		return nil, err
	}
	return created, nil
}

func (s *FirestoreStore) Get(ctx context.Context, ownerID string) (*Profile, error) {
	snap, err := s.client.Collection(profilesCollection).Doc(ownerID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return doc.toProfile(), nil
}

func (s *FirestoreStore) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	snap, err := s.client.Collection(usernamesCollection).Doc(username).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get username: %w", err)
	}

	var u usernameDoc
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode username: %w", err)
	}

	p, err := s.Get(ctx, u.OwnerID)
	if err != nil {
		return nil, err
	}
	if !p.IsPublic {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *FirestoreStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.client.Collection(usernamesCollection).Doc(username).Get(ctx)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("get username: %w", err)
	}
}

func (s *FirestoreStore) Replace(ctx context.Context, ownerID string, params ReplaceParams) (*Profile, error) {
	if err := params.Check(); err != nil {
		return nil, err
	}

	ref := s.client.Collection(profilesCollection).Doc(ownerID)

	var updated *Profile
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("read profile: %w", err)
		}

		var doc profileDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}

		p := doc.toProfile()
		p.applyReplace(params, time.Now().UTC())

		if err := tx.Set(ref, toDoc(p)); err != nil {
			return fmt.Errorf("write profile: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "replace", ownerID, err)
		return nil, err
	}
	return updated, nil
}

func (s *FirestoreStore) ListPublic(ctx context.Context) ([]*Profile, error) {
	snaps, err := s.client.Collection(profilesCollection).
		Where("isPublic", "==", true).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("list public profiles: %w", err)
	}

	out := make([]*Profile, 0, len(snaps))
	for _, snap := range snaps {
		var doc profileDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", snap.Ref.ID, err)
		}
		out = append(out, doc.toProfile())
	}
	slices.SortFunc(out, func(a, b *Profile) int {
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}

func (s *FirestoreStore) logFailure(ctx context.Context, op, ownerID string, err error) {
	category := categorizeError(err)
	if category == "internal_error" {
		applog.LogError(ctx, "firestore "+op+" failed", err,
			slog.String("owner_id", ownerID))
		return
	}
	applog.LogInfo(ctx, "firestore "+op+" rejected",
		slog.String("owner_id", ownerID),
		slog.String("reason", category))
}

var _ Service = (*FirestoreStore)(nil)
