package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestCurrentJoinCode_ReturnsNewest(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewOrganizationRepository(gormDB)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "org_join_codes" WHERE org_id = .* ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "code", "expires_at", "max_uses", "uses", "created_at"}).
			AddRow("jc-1", "org-1", "abc123def456", nil, nil, 3, now))

	joinCode, err := repo.CurrentJoinCode("org-1")
	require.NoError(t, err)
	require.NotNil(t, joinCode)
	assert.Equal(t, "abc123def456", joinCode.Code)
	assert.Equal(t, 3, joinCode.Uses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentJoinCode_NoneIsNotAnError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewOrganizationRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "org_join_codes" WHERE org_id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	joinCode, err := repo.CurrentJoinCode("org-1")
	require.NoError(t, err)
	assert.Nil(t, joinCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemJoinCode_UnknownCodeRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewOrganizationRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "org_join_codes" WHERE code = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.RedeemJoinCode("nope", "user-1")
	assert.ErrorIs(t, err, ErrJoinCodeInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAdmins(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewOrganizationRepository(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "org_memberships" WHERE org_id = .* AND role = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountAdmins("org-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
