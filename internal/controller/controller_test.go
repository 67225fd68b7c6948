package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
	"igdb_mirror_v1_202610/internal/service"
	"igdb_mirror_v1_202610/internal/task"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试替身 ====================

type fakeTrigger struct {
	lastKind model.Kind
	lastOpts service.SyncOptions
	result   *service.SyncResult
	err      error
	allErr   error
}

func (f *fakeTrigger) TriggerKindSync(ctx context.Context, kind model.Kind, opts service.SyncOptions) (*service.SyncResult, error) {
	f.lastKind = kind
	f.lastOpts = opts
	return f.result, f.err
}

func (f *fakeTrigger) TriggerAllSync(opts service.SyncOptions) (bool, error) {
	f.lastOpts = opts
	return f.allErr == nil, f.allErr
}

func (f *fakeTrigger) Status() task.TaskStatus {
	return task.TaskStatus{CatalogAvailable: true, CatalogRunning: true}
}

func (f *fakeTrigger) TriggerTokenRefresh(ctx context.Context) error { return f.err }

type fakeQuery struct {
	runs []model.SyncRun
}

func (f *fakeQuery) Kinds(ctx context.Context) ([]service.KindInfo, error) {
	return []service.KindInfo{{Kind: model.KindPlatform, Mode: service.ModeBulk, Count: 3}}, nil
}

func (f *fakeQuery) Runs(ctx context.Context, kind model.Kind, limit int) ([]model.SyncRun, error) {
	return f.runs, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func perform(t *testing.T, r http.Handler, method, url string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func syncRouter(ctl *SyncController) *gin.Engine {
	r := gin.New()
	g := r.Group("/api/v1/sync")
	g.POST("/all", ctl.SyncAll)
	g.POST("/:kind", ctl.SyncKind)
	g.GET("/runs", ctl.ListRuns)
	g.GET("/kinds", ctl.ListKinds)
	g.GET("/status", ctl.Status)
	return r
}

// ==================== SyncController 测试 ====================

func TestSyncController_SyncKind(t *testing.T) {
	trigger := &fakeTrigger{result: &service.SyncResult{Kind: model.KindPlatform, Success: true, New: 1, Message: "同步完成"}}
	r := syncRouter(NewSyncController(trigger, &fakeQuery{}))

	w, body := perform(t, r, http.MethodPost, "/api/v1/sync/platforms?platform_id=3&full=true")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.KindPlatform, trigger.lastKind)
	require.NotNil(t, trigger.lastOpts.PlatformID)
	assert.Equal(t, int64(3), *trigger.lastOpts.PlatformID)
	assert.True(t, trigger.lastOpts.Full)

	var result service.SyncResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, 1, result.New)
}

func TestSyncController_ErrorMapping(t *testing.T) {
	partial := &service.SyncResult{Kind: model.KindCover, New: 500}
	tests := []struct {
		name     string
		err      error
		result   *service.SyncResult
		want     int
		withData bool
	}{
		{name: "未知类型", err: service.ErrUnknownKind, want: http.StatusBadRequest},
		{name: "平台不存在", err: service.ErrPlatformNotFound, want: http.StatusNotFound},
		{name: "同步中", err: service.ErrSyncInProgress, want: http.StatusConflict},
		{name: "无凭证", err: service.ErrCredentialsMissing, want: http.StatusFailedDependency},
		{name: "上游失败", err: &service.UpstreamFetchError{Kind: model.KindCover, Status: 500}, result: partial, want: http.StatusBadGateway, withData: true},
		{name: "凭证被拒", err: &service.UpstreamAuthError{Status: 401}, want: http.StatusBadGateway},
		{name: "任务不可用", err: task.ErrTaskDisabled, want: http.StatusServiceUnavailable},
		{name: "其他", err: errors.New("db down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := &fakeTrigger{err: tt.err, result: tt.result}
			r := syncRouter(NewSyncController(trigger, &fakeQuery{}))

			w, body := perform(t, r, http.MethodPost, "/api/v1/sync/covers")
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.want, body.Code)
			if tt.withData {
				assert.Contains(t, string(body.Data), `"new":500`)
			} else {
				assert.Empty(t, body.Data)
			}
		})
	}
}

func TestSyncController_InvalidPlatform(t *testing.T) {
	r := syncRouter(NewSyncController(&fakeTrigger{}, &fakeQuery{}))
	w, _ := perform(t, r, http.MethodPost, "/api/v1/sync/platforms?platform_id=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncController_SyncAll(t *testing.T) {
	trigger := &fakeTrigger{}
	r := syncRouter(NewSyncController(trigger, &fakeQuery{}))

	w, _ := perform(t, r, http.MethodPost, "/api/v1/sync/all?full=true")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, trigger.lastOpts.Full)

	trigger.allErr = task.ErrTaskRunning
	w, _ = perform(t, r, http.MethodPost, "/api/v1/sync/all")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSyncController_ListRuns(t *testing.T) {
	finished := time.Date(2026, 10, 1, 3, 5, 0, 0, time.UTC)
	query := &fakeQuery{runs: []model.SyncRun{
		{RunID: "a", Kind: model.KindGenre, Status: model.SyncRunSuccess, Created: 2, FinishedAt: &finished},
		{RunID: "b", Kind: model.KindCover, Status: model.SyncRunFailed, Warnings: []byte(`["covers.cover on record 3"]`)},
	}}
	r := syncRouter(NewSyncController(&fakeTrigger{}, query))

	w, body := perform(t, r, http.MethodGet, "/api/v1/sync/runs?limit=10")
	require.Equal(t, http.StatusOK, w.Code)

	var runs []map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, float64(2), runs[0]["new"])
	assert.Equal(t, []interface{}{}, runs[0]["warnings"])
	assert.Equal(t, []interface{}{"covers.cover on record 3"}, runs[1]["warnings"])

	w, _ = perform(t, r, http.MethodGet, "/api/v1/sync/runs?limit=100000")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncController_KindsAndStatus(t *testing.T) {
	r := syncRouter(NewSyncController(&fakeTrigger{}, &fakeQuery{}))

	w, body := perform(t, r, http.MethodGet, "/api/v1/sync/kinds")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"kind":"platforms"`)

	w, body = perform(t, r, http.MethodGet, "/api/v1/sync/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"catalog_running":true`)
}

// ==================== CatalogController 测试 ====================

func setupCatalogRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	repos := repository.NewCatalogRepositories(db)
	users := repository.NewUserPlatformRepository(db)
	games := repository.NewGameRepository(db)
	scopes := service.NewScopeService(users, games)
	catalog := service.NewCatalogService(service.NewKindRegistry(repos, scopes), service.NewResolver(repos), users, games)

	ctl := NewCatalogController(catalog)
	r := gin.New()
	g := r.Group("/api/v1/catalog")
	g.GET("/games", ctl.ListGames)
	g.GET("/user_platforms", ctl.ListUserPlatforms)
	g.GET("/platforms/:igdb_id", ctl.GetPlatform)
	g.GET("/:kind/:igdb_id", ctl.GetRecord)
	return r, db
}

func TestCatalogController_GetPlatform(t *testing.T) {
	r, db := setupCatalogRouter(t)
	repos := repository.NewCatalogRepositories(db)
	family := int64(5)
	_, err := repos.Platforms.BulkCreateSkipDuplicates(context.Background(), []model.Platform{{
		MirrorBase:     model.MirrorBase{IGDBID: 19},
		Name:           "Super Nintendo Entertainment System",
		PlatformFamily: &family,
		Versions:       model.IDList([]int64{18}),
	}})
	require.NoError(t, err)

	w, body := perform(t, r, http.MethodGet, "/api/v1/catalog/platforms/19")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Kind string                     `json:"kind"`
		Refs map[string]json.RawMessage `json:"refs"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "platforms", data.Kind)
	assert.Equal(t, "null", string(data.Refs["platform_family"]))
	assert.Equal(t, "[]", string(data.Refs["versions"]))

	w, _ = perform(t, r, http.MethodGet, "/api/v1/catalog/platforms/20")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = perform(t, r, http.MethodGet, "/api/v1/catalog/platforms/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogController_GetRecord(t *testing.T) {
	r, db := setupCatalogRouter(t)
	repos := repository.NewCatalogRepositories(db)
	_, err := repos.Genres.BulkCreateSkipDuplicates(context.Background(), []model.Genre{
		{MirrorBase: model.MirrorBase{IGDBID: 5}, Name: "Puzzle"},
	})
	require.NoError(t, err)

	w, body := perform(t, r, http.MethodGet, "/api/v1/catalog/genres/5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"Puzzle"`)

	w, _ = perform(t, r, http.MethodGet, "/api/v1/catalog/consoles/5")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogController_Lists(t *testing.T) {
	r, db := setupCatalogRouter(t)
	ctx := context.Background()
	users := repository.NewUserPlatformRepository(db)
	games := repository.NewGameRepository(db)

	snes := &model.UserPlatform{Name: "My SNES"}
	require.NoError(t, users.Create(ctx, snes))
	require.NoError(t, games.Create(ctx, &model.Game{Title: "Tetris Attack", PlatformID: snes.ID}))

	w, body := perform(t, r, http.MethodGet, "/api/v1/catalog/games")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), "Tetris Attack")

	w, body = perform(t, r, http.MethodGet, "/api/v1/catalog/user_platforms")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), "My SNES")

	w, _ = perform(t, r, http.MethodGet, "/api/v1/catalog/games?platform_id=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== TokenController 测试 ====================

type stubTokens struct {
	status  service.TokenStatus
	cleared bool
}

func (s *stubTokens) Token(ctx context.Context) (string, error)   { return "t", nil }
func (s *stubTokens) Refresh(ctx context.Context) (string, error) { return "t", nil }
func (s *stubTokens) Clear()                                      { s.cleared = true }
func (s *stubTokens) Inspect() service.TokenStatus                { return s.status }

func tokenRouter(ctl *TokenController) *gin.Engine {
	r := gin.New()
	r.GET("/api/v1/token", ctl.Inspect)
	r.DELETE("/api/v1/token", ctl.Clear)
	r.POST("/api/v1/token/refresh", ctl.Refresh)
	return r
}

func TestTokenController(t *testing.T) {
	tokens := &stubTokens{status: service.TokenStatus{HasToken: true, SecondsRemaining: 120}}
	r := tokenRouter(NewTokenController(tokens, &fakeTrigger{}))

	w, body := perform(t, r, http.MethodGet, "/api/v1/token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"seconds_remaining":120`)
	assert.Contains(t, string(body.Data), `"configured":true`)

	w, _ = perform(t, r, http.MethodDelete, "/api/v1/token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, tokens.cleared)

	w, _ = perform(t, r, http.MethodPost, "/api/v1/token/refresh")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenController_NotConfigured(t *testing.T) {
	r := tokenRouter(NewTokenController(nil, &fakeTrigger{err: task.ErrTaskDisabled}))

	w, body := perform(t, r, http.MethodGet, "/api/v1/token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"configured":false`)

	w, _ = perform(t, r, http.MethodDelete, "/api/v1/token")
	assert.Equal(t, http.StatusFailedDependency, w.Code)

	w, _ = perform(t, r, http.MethodPost, "/api/v1/token/refresh")
	assert.Equal(t, http.StatusFailedDependency, w.Code)
}
