package validate

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openShift struct {
	StartingCash string `json:"starting_cash" validate:"required"`
	Note         string `json:"note" validate:"max=5"`
}

func TestBindAndValidate(t *testing.T) {
	e := echo.New()
	e.Validator = New()

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "ok", body: `{"starting_cash":"10"}`},
		{name: "missing", body: `{}`, code: http.StatusBadRequest},
		{name: "too long", body: `{"starting_cash":"1","note":"abcdefg"}`, code: http.StatusBadRequest},
		{name: "broken json", body: `{`, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			c := e.NewContext(req, httptest.NewRecorder())

			var dst openShift
			err := BindAndValidate(c, &dst)
			if tt.code == 0 {
				require.NoError(t, err)
				return
			}
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tt.code, he.Code)
		})
	}
}
