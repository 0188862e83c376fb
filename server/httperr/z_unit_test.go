package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/tablelab/dto"
	"github.com/zintix-labs/tablelab/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.InvalidBet("bet=x"), http.StatusBadRequest},
		{errs.InsufficientFunds("stake=1 balance=0"), http.StatusBadRequest},
		{errs.InvalidRoundState("resolved"), http.StatusConflict},
		{errs.WithExtra(errs.ErrConflict, "dup"), http.StatusConflict},
		{errs.WithExtra(errs.ErrNotFound, "acct"), http.StatusNotFound},
		{errs.NewWarn("bad"), http.StatusBadRequest},
		{errs.NewFatal("boom"), http.StatusInternalServerError},
		{errs.ErrDeckExhausted, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{errs.WrapWarn(context.Canceled, "canceled"), http.StatusRequestTimeout},
		{errs.Wrap(context.DeadlineExceeded, "timeout"), http.StatusGatewayTimeout},
	}
	for _, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Fatalf("%v: got %d want %d", c.err, got, c.want)
		}
	}
}

func TestErrsBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, errs.InsufficientFunds("stake=10 balance=5"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	var body dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != string(errs.CodeInsufficientFunds) || body.Error == "" {
		t.Fatalf("unexpected body: %+v", body)
	}

	rec = httptest.NewRecorder()
	Errs(rec, errs.NewFatal("db password leaked"))
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if rec.Code != http.StatusInternalServerError || body.Error != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("5xx must hide details: %+v", body)
	}
}
