package target

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLSession_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		stmt      cql.Statement
		expectErr bool
		errMsg    string
	}{
		{
			name:      "exec without connection",
			stmt:      cql.Raw("CREATE TABLE users (id UUID, PRIMARY KEY(id))"),
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "exec binds arguments",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id,name) VALUES (?,?)")).
					WithArgs("k1", "Alice").
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			stmt: cql.Insert("users", core.NewRow("id", "k1", "name", "Alice")),
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE").WillReturnError(assert.AnError)
			},
			stmt:      cql.Raw("CREATE TABLE users (id UUID, PRIMARY KEY(id))"),
			expectErr: true,
			errMsg:    "failed to execute statement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &SQLSession{}
			var mock sqlmock.Sqlmock
			if tt.setupDB {
				db, m, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()
				sess.DB = db
				mock = m
				tt.setupMock(mock)
			}

			err := sess.Exec(context.Background(), tt.stmt)
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
			if mock != nil {
				assert.NoError(t, mock.ExpectationsWereMet())
			}
		})
	}
}

func TestSQLSession_Query(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sess := &SQLSession{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE pre_mongified_id = ? LIMIT 1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "pre_mongified_id"}).
			AddRow([]byte("k1"), "Alice", int64(7)))

	rows, err := sess.Query(context.Background(), cql.Select("users", core.NewRow("pre_mongified_id", 7), 1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, core.NewRow("id", "k1", "name", "Alice", "pre_mongified_id", int64(7)), rows[0])

	mock.ExpectClose()
	require.NoError(t, sess.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSession_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	sess := &SQLSession{DB: db}

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)
	_, err = sess.Query(context.Background(), cql.Select("users", nil, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute query")
}
