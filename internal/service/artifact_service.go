package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akademika-dev/letter-office-api/internal/dto"
	"github.com/akademika-dev/letter-office-api/internal/models"
	appErrors "github.com/akademika-dev/letter-office-api/pkg/errors"
	"github.com/akademika-dev/letter-office-api/pkg/render"
)

type letterRenderer interface {
	Render(letter render.Letter) ([]byte, error)
}

type artifactStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	Exists(filename string) bool
}

type urlSigner interface {
	Generate(letterID, relPath string) (string, time.Time, error)
	Parse(token string) (letterID, relPath string, expiresAt time.Time, err error)
}

type userNameSource interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ArtifactService renders completed letters into PDF artifacts and hands out
// signed download links. Only completed, numbered letters ever reach the
// renderer.
type ArtifactService struct {
	letters  letterStore
	users    userNameSource
	renderer letterRenderer
	storage  artifactStorage
	signer   urlSigner
	logger   *zap.Logger
}

// NewArtifactService constructs the service.
func NewArtifactService(letters letterStore, users userNameSource, renderer letterRenderer, storage artifactStorage, signer urlSigner, logger *zap.Logger) *ArtifactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactService{
		letters:  letters,
		users:    users,
		renderer: renderer,
		storage:  storage,
		signer:   signer,
		logger:   logger,
	}
}

// Link renders the letter artifact if needed and returns a signed download
// link for it.
func (s *ArtifactService) Link(ctx context.Context, letterID string, actor *models.JWTClaims) (*dto.ArtifactLink, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	letter, err := s.letters.GetByID(ctx, letterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load letter")
	}
	if actor.Role == models.RoleStudent && letter.OwnerID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	if letter.Stage != models.StageCompleted || letter.DocumentNumber == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "letter has no issued document number")
	}

	relPath := artifactPath(letter.ID)
	if !s.storage.Exists(relPath) {
		data, err := s.renderer.Render(s.buildRenderModel(ctx, letter))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render letter artifact")
		}
		if _, err := s.storage.Save(relPath, data); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to store letter artifact")
		}
		s.logger.Info("rendered letter artifact", zap.String("letter_id", letter.ID))
	}

	token, expiresAt, err := s.signer.Generate(letter.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign artifact link")
	}
	return &dto.ArtifactLink{
		LetterID:  letter.ID,
		URL:       "/artifacts/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// Open validates a signed token and returns the artifact bytes. Tokens are the
// only credential; the endpoint serving this is unauthenticated.
func (s *ArtifactService) Open(_ context.Context, token string) ([]byte, string, error) {
	letterID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired artifact link")
	}
	data, err := s.storage.Read(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "artifact not found")
	}
	return data, fmt.Sprintf("%s.pdf", letterID), nil
}

func (s *ArtifactService) buildRenderModel(ctx context.Context, letter *models.LetterRequest) render.Letter {
	model := render.Letter{
		Number:   *letter.DocumentNumber,
		Category: letter.Category,
		Subject:  letter.Subject,
	}
	if letter.OrgUnitID != nil {
		model.OrgUnit = *letter.OrgUnitID
	}
	if letter.DecidedAt != nil {
		model.DecidedAt = *letter.DecidedAt
	}
	if letter.DecisionNotes != nil {
		model.Notes = *letter.DecisionNotes
	}
	model.RequestedBy = s.displayName(ctx, letter.OwnerID)
	if letter.DecidedBy != nil {
		model.DecidedBy = s.displayName(ctx, *letter.DecidedBy)
	}
	return model
}

func (s *ArtifactService) displayName(ctx context.Context, userID string) string {
	if s.users == nil {
		return userID
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return userID
	}
	return user.FullName
}

func artifactPath(letterID string) string {
	return fmt.Sprintf("letters/%s.pdf", letterID)
}
