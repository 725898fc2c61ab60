package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/akademika-dev/letter-office-api/internal/models"
)

func newLetterRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func letterRowColumns() []string {
	return []string{
		"id", "category", "subject", "owner_id", "org_unit_id", "stage", "assigned_to",
		"forwarded_by", "forwarded_at", "decided_by", "decided_at", "decision_notes",
		"document_number", "created_at", "updated_at",
	}
}

func TestLetterRepositoryCreateWritesHistory(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO letter_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO letter_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assigned := models.RoleAdmin
	letter := &models.LetterRequest{
		Category:   "SKL",
		Subject:    "Surat keterangan lulus",
		OwnerID:    "student-1",
		Stage:      models.StageInReview,
		AssignedTo: &assigned,
	}
	entry := &models.LetterHistoryEntry{
		Action:    models.ActionSubmitted,
		ActorID:   "student-1",
		ActorRole: models.RoleStudent,
	}
	require.NoError(t, repo.Create(context.Background(), letter, entry))
	require.NotEmpty(t, letter.ID)
	require.Equal(t, letter.ID, entry.LetterID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryForward(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE letter_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO letter_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	rows := sqlmock.NewRows(letterRowColumns()).
		AddRow("letter-1", "SKL", "Surat keterangan lulus", "student-1", nil, "UNIT_APPROVAL", "UNIT_HEAD",
			"admin-1", time.Now(), nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, category, subject")).
		WithArgs("letter-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	letter, err := repo.Forward(context.Background(), ForwardParams{
		ID:            "letter-1",
		ActorID:       "admin-1",
		ActorRole:     models.RoleAdmin,
		ExpectedStage: models.StageInReview,
		AssignTo:      models.RoleUnitHead,
	})
	require.NoError(t, err)
	require.Equal(t, models.StageUnitApproval, letter.Stage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryForwardStaleStage(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE letter_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Forward(context.Background(), ForwardParams{
		ID:            "letter-1",
		ActorID:       "admin-1",
		ActorRole:     models.RoleAdmin,
		ExpectedStage: models.StageInReview,
		AssignTo:      models.RoleUnitHead,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryDecideApproveAllocatesInTx(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE letter_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE letter_requests SET document_number")).
		WithArgs("003/SKL/UNIV/IX/1448", "letter-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO letter_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	rows := sqlmock.NewRows(letterRowColumns()).
		AddRow("letter-1", "SKL", "Surat keterangan lulus", "student-1", nil, "COMPLETED", nil,
			"admin-1", time.Now(), "head-1", time.Now(), nil, "003/SKL/UNIV/IX/1448", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, category, subject")).
		WithArgs("letter-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	allocated := false
	letter, err := repo.Decide(context.Background(), DecideParams{
		ID:            "letter-1",
		ActorID:       "head-1",
		ActorRole:     models.RoleUnitHead,
		ExpectedStage: models.StageUnitApproval,
		Stage:         models.StageCompleted,
		Action:        models.ActionApproved,
		Allocate: func(ctx context.Context, tx *sqlx.Tx) (string, error) {
			allocated = true
			return "003/SKL/UNIV/IX/1448", nil
		},
	})
	require.NoError(t, err)
	require.True(t, allocated)
	require.NotNil(t, letter.DocumentNumber)
	require.Equal(t, "003/SKL/UNIV/IX/1448", *letter.DocumentNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryDecideAllocationFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE letter_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	allocErr := errors.New("no template")
	_, err := repo.Decide(context.Background(), DecideParams{
		ID:            "letter-1",
		ActorID:       "head-1",
		ActorRole:     models.RoleUnitHead,
		ExpectedStage: models.StageUnitApproval,
		Stage:         models.StageCompleted,
		Action:        models.ActionApproved,
		Allocate: func(ctx context.Context, tx *sqlx.Tx) (string, error) {
			return "", allocErr
		},
	})
	require.ErrorIs(t, err, allocErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryDecideRejectSkipsAllocation(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE letter_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO letter_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	rows := sqlmock.NewRows(letterRowColumns()).
		AddRow("letter-1", "SKL", "Surat keterangan lulus", "student-1", nil, "REJECTED", nil,
			nil, nil, "admin-1", time.Now(), "incomplete attachments", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, category, subject")).
		WithArgs("letter-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	notes := "incomplete attachments"
	letter, err := repo.Decide(context.Background(), DecideParams{
		ID:            "letter-1",
		ActorID:       "admin-1",
		ActorRole:     models.RoleAdmin,
		ExpectedStage: models.StageInReview,
		Stage:         models.StageRejected,
		Action:        models.ActionRejected,
		Notes:         &notes,
	})
	require.NoError(t, err)
	require.Nil(t, letter.DocumentNumber)
	require.Equal(t, models.StageRejected, letter.Stage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryHistoryOrdersBySeq(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	// Both entries share a timestamp; seq keeps the append order.
	at := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "seq", "letter_id", "action", "actor_id", "actor_role", "notes", "created_at"}).
		AddRow("hist-1", int64(1), "letter-1", "SUBMITTED", "student-1", "STUDENT", nil, at).
		AddRow("hist-2", int64(2), "letter-1", "FORWARDED", "admin-1", "ADMIN", nil, at)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq ASC")).
		WithArgs("letter-1").
		WillReturnRows(rows)

	entries, err := repo.History(context.Background(), "letter-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(1), entries[0].Seq)
	require.Equal(t, models.ActionSubmitted, entries[0].Action)
	require.Equal(t, int64(2), entries[1].Seq)
	require.Equal(t, models.ActionForwarded, entries[1].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLetterRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newLetterRepoMock(t)
	defer cleanup()

	repo := NewLetterRepository(db)
	rows := sqlmock.NewRows(letterRowColumns()).
		AddRow("letter-1", "SKL", "Surat keterangan lulus", "student-1", "FK", "IN_REVIEW", "ADMIN",
			nil, nil, nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, category, subject")).
		WithArgs("IN_REVIEW", "SKL", "student-1").
		WillReturnRows(rows)

	letters, err := repo.List(context.Background(), models.LetterFilter{
		Stage:    []models.LetterStage{models.StageInReview},
		Category: "SKL",
		OwnerID:  "student-1",
	})
	require.NoError(t, err)
	require.Len(t, letters, 1)
	require.Equal(t, "letter-1", letters[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
