package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
)

func intPtr(n int) *int { return &n }

func TestValidatorReportsJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&domeBody{Rows: intPtr(0)})
	var ve *repository.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "rows", ve.Field)
	assert.Equal(t, "ensure this value is greater than or equal to 1.", ve.Message)

	one := uint64(1)
	err = v.Validate(&reservationBody{Tickets: []ticketBody{
		{Row: intPtr(1), Seat: intPtr(1), ShowSession: &one},
		{Row: intPtr(1), ShowSession: &one},
	}})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "tickets[1].seat", ve.Field)
	assert.Equal(t, "this field is required.", ve.Message)

	assert.NoError(t, v.Validate(&domeBody{}))
}

func TestPaginatorParse(t *testing.T) {
	p := Paginator{Default: 5, Max: 100}
	e := echo.New()
	ctx := func(q string) echo.Context {
		return e.NewContext(httptest.NewRequest(http.MethodGet, "/x?"+q, nil), httptest.NewRecorder())
	}

	req, err := p.parse(ctx(""))
	require.NoError(t, err)
	assert.Equal(t, pageRequest{Page: 1, Size: 5}, req)

	req, err = p.parse(ctx("page=3&page_size=1000"))
	require.NoError(t, err)
	assert.Equal(t, pageRequest{Page: 3, Size: 100}, req)
	assert.Equal(t, 200, req.Offset())

	_, err = p.parse(ctx("page=0"))
	assert.Error(t, err)
	_, err = p.parse(ctx("page_size=abc"))
	assert.Error(t, err)
}

func TestShapeTableDispatch(t *testing.T) {
	s := NewSerializer(nil)
	show := model.Show{ID: 1, Title: "Cosmos", Themes: []model.Theme{{ID: 4, Name: "Stars"}}}

	list, err := s.shows.render(actionList, show)
	require.NoError(t, err)
	assert.IsType(t, showListOut{}, list)
	detail, err := s.shows.render(actionRetrieve, show)
	require.NoError(t, err)
	assert.IsType(t, showDetailOut{}, detail)
	write, err := s.shows.render(actionWrite, show)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, write.(showWriteOut).ShowThemes)

	_, err = shapeTable[model.Show]{}.render(actionList, show)
	assert.ErrorContains(t, err, "no list shape registered")
}
