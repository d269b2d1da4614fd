package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/bissquit/rental-portal/internal/domain"
	"github.com/bissquit/rental-portal/internal/listings"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "title", "description", "address", "monthly_rent", "bedrooms", "bathrooms", "owner_name", "image_url"}

func cottage() domain.Property {
	image := "/uploads/cottage.jpg"
	return domain.Property{
		ID:          3,
		Title:       "Cottage",
		Description: "Two rooms by the lake",
		Address:     "1 Lake Rd",
		MonthlyRent: 1200.5,
		Bedrooms:    2,
		Bathrooms:   1,
		OwnerName:   "Ann",
		ImageURL:    &image,
	}
}

func addRow(rows *pgxmock.Rows, p domain.Property) *pgxmock.Rows {
	return rows.AddRow(p.ID, p.Title, p.Description, p.Address, p.MonthlyRent, p.Bedrooms, p.Bathrooms, p.OwnerName, p.ImageURL)
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRepository_CreateProperty(t *testing.T) {
	mock := newMock(t)
	p := cottage()
	p.ID = 0

	mock.ExpectQuery(`INSERT INTO properties`).
		WithArgs(p.Title, p.Description, p.Address, p.MonthlyRent, p.Bedrooms, p.Bathrooms, p.OwnerName, p.ImageURL).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	require.NoError(t, NewRepository(mock).CreateProperty(context.Background(), &p))
	assert.Equal(t, int64(11), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetProperty(t *testing.T) {
	mock := newMock(t)
	want := cottage()

	mock.ExpectQuery(`SELECT .+ FROM properties WHERE id = \$1`).
		WithArgs(want.ID).
		WillReturnRows(addRow(pgxmock.NewRows(columns), want))

	got, err := NewRepository(mock).GetProperty(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, &want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetProperty_NotFound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM properties WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewRepository(mock).GetProperty(context.Background(), 9)
	assert.ErrorIs(t, err, listings.ErrPropertyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListProperties(t *testing.T) {
	owner := "Ann"

	tests := []struct {
		name   string
		filter listings.PropertyFilter
		expect func(mock pgxmock.PgxPoolIface, rows *pgxmock.Rows)
	}{
		{
			name: "all",
			expect: func(mock pgxmock.PgxPoolIface, rows *pgxmock.Rows) {
				mock.ExpectQuery(`SELECT .+ FROM properties ORDER BY id`).WillReturnRows(rows)
			},
		},
		{
			name:   "by owner",
			filter: listings.PropertyFilter{OwnerName: &owner},
			expect: func(mock pgxmock.PgxPoolIface, rows *pgxmock.Rows) {
				mock.ExpectQuery(`WHERE owner_name = \$1`).WithArgs(owner).WillReturnRows(rows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.expect(mock, addRow(pgxmock.NewRows(columns), cottage()))

			got, err := NewRepository(mock).ListProperties(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "Cottage", got[0].Title)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_GetProperties(t *testing.T) {
	mock := newMock(t)
	ids := []int64{3, 4}

	mock.ExpectQuery(`WHERE id = ANY\(\$1\)`).
		WithArgs(ids).
		WillReturnRows(addRow(pgxmock.NewRows(columns), cottage()))

	got, err := NewRepository(mock).GetProperties(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateProperty(t *testing.T) {
	p := cottage()

	t.Run("updated", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE properties`).
			WithArgs(p.ID, p.Title, p.Description, p.Address, p.MonthlyRent, p.Bedrooms, p.Bathrooms, p.OwnerName, p.ImageURL).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, NewRepository(mock).UpdateProperty(context.Background(), &p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE properties`).
			WithArgs(p.ID, p.Title, p.Description, p.Address, p.MonthlyRent, p.Bedrooms, p.Bathrooms, p.OwnerName, p.ImageURL).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, NewRepository(mock).UpdateProperty(context.Background(), &p), listings.ErrPropertyNotFound)
	})
}

func TestRepository_DeleteProperty(t *testing.T) {
	tests := []struct {
		name    string
		result  func(e *pgxmock.ExpectedExec)
		wantErr error
		anyErr  bool
	}{
		{
			name:   "deleted",
			result: func(e *pgxmock.ExpectedExec) { e.WillReturnResult(pgxmock.NewResult("DELETE", 1)) },
		},
		{
			name:    "missing",
			result:  func(e *pgxmock.ExpectedExec) { e.WillReturnResult(pgxmock.NewResult("DELETE", 0)) },
			wantErr: listings.ErrPropertyNotFound,
		},
		{
			name:   "store failure",
			result: func(e *pgxmock.ExpectedExec) { e.WillReturnError(errors.New("connection refused")) },
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.result(mock.ExpectExec(`DELETE FROM properties`).WithArgs(int64(3)))

			err := NewRepository(mock).DeleteProperty(context.Background(), 3)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				require.Error(t, err)
				assert.NotErrorIs(t, err, listings.ErrPropertyNotFound)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
