package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zintix-labs/tablelab"
	"github.com/zintix-labs/tablelab/configs"
	"github.com/zintix-labs/tablelab/house"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/server/netsvr"
	"github.com/zintix-labs/tablelab/server/svrcfg"
	"github.com/zintix-labs/tablelab/store/sqlite"
)

func newSvr(t *testing.T) (*netsvr.ChiAdapter, *tablelab.Runtime) {
	t.Helper()
	lab, err := tablelab.NewFromFS(core.Default(), configs.FS, configs.DefaultName)
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	rt, err := lab.BuildRuntimeWithSeed(1, 1)
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	t.Cleanup(rt.Close)
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	hs, err := house.New(st, rt, nil)
	if err != nil {
		t.Fatalf("house: %v", err)
	}
	sCfg := &svrcfg.SvrCfg{Lab: lab, House: hs}
	if err := sCfg.Vaild(); err != nil {
		t.Fatalf("cfg: %v", err)
	}
	svr := netsvr.NewChiServer("")
	if err := RegisterRoutes(svr, sCfg); err != nil {
		t.Fatalf("routes: %v", err)
	}
	return svr, rt
}

func TestHealth(t *testing.T) {
	svr, rt := newSvr(t)
	rec := httptest.NewRecorder()
	svr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id middleware not mounted")
	}

	rt.Close()
	rec = httptest.NewRecorder()
	svr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("closed runtime must report 503, got %d", rec.Code)
	}
}

func TestRoutesMounted(t *testing.T) {
	svr, _ := newSvr(t)
	rec := httptest.NewRecorder()
	svr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/table", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("table status=%d", rec.Code)
	}
	rec = httptest.NewRecorder()
	svr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", rec.Code)
	}
}
