package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
)

// ==================== 测试辅助函数 ====================

func setupMirrorTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取连接池失败: %v", err)
	}
	// :memory: 每个连接是独立的库
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func genreBatch(n int, now time.Time) []model.Genre {
	out := make([]model.Genre, n)
	for i := range out {
		out[i] = model.Genre{
			MirrorBase: model.MirrorBase{IGDBID: int64(i + 1), LastSynced: now},
			Name:       fmt.Sprintf("Genre %d", i+1),
			Slug:       fmt.Sprintf("genre-%d", i+1),
		}
	}
	return out
}

// failingGenreStore 指定 key 更新失败
type failingGenreStore struct {
	repository.MirrorRepository[model.Genre]
	failKey int64
}

func (s *failingGenreStore) UpdateByKey(ctx context.Context, key int64, fields map[string]interface{}) error {
	if key == s.failKey {
		return errors.New("disk full")
	}
	return s.MirrorRepository.UpdateByKey(ctx, key, fields)
}

// ==================== Reconcile 测试 ====================

func TestReconcile_Idempotent(t *testing.T) {
	db := setupMirrorTestDB(t)
	store := repository.NewMirrorRepository[model.Genre](db)
	ctx := context.Background()
	now := time.Now()
	opts := ReconcileOptions{SubBatchSize: 100, Concurrency: 4}

	first := Reconcile(ctx, model.KindGenre, store, genreBatch(250, now), opts)
	assert.Equal(t, 250, first.Created)
	assert.Equal(t, 0, first.Updated)
	assert.Equal(t, 0, first.Failed)

	second := Reconcile(ctx, model.KindGenre, store, genreBatch(250, now), opts)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 250, second.Unchanged)

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250), total)
}

func TestReconcile_UpdatesOnlyChangedRecords(t *testing.T) {
	db := setupMirrorTestDB(t)
	store := repository.NewMirrorRepository[model.Genre](db)
	ctx := context.Background()
	synced := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := synced.Add(time.Hour)

	Reconcile(ctx, model.KindGenre, store, genreBatch(3, synced), ReconcileOptions{})

	batch := genreBatch(3, later)
	batch[1].Name = "Platformer"
	result := Reconcile(ctx, model.KindGenre, store, batch, ReconcileOptions{Now: func() time.Time { return later }})

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Unchanged)

	got, err := store.FindByKey(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Platformer", got.Name)
	assert.True(t, got.LastSynced.Equal(later))

	untouched, err := store.FindByKey(ctx, 1)
	require.NoError(t, err)
	assert.True(t, untouched.LastSynced.Equal(synced), "无差异的记录不应被写")
}

func TestReconcile_ReferenceArraysCompareBySet(t *testing.T) {
	db := setupMirrorTestDB(t)
	store := repository.NewMirrorRepository[model.Platform](db)
	ctx := context.Background()

	p := model.Platform{
		MirrorBase: model.MirrorBase{IGDBID: 19},
		Name:       "Super Nintendo Entertainment System",
		Versions:   model.IDList([]int64{3, 1, 2}),
	}
	first := Reconcile(ctx, model.KindPlatform, store, []model.Platform{p}, ReconcileOptions{})
	require.Equal(t, 1, first.Created)

	p.Versions = model.IDList([]int64{1, 2, 3, 3})
	second := Reconcile(ctx, model.KindPlatform, store, []model.Platform{p}, ReconcileOptions{})
	assert.Equal(t, 1, second.Unchanged)
	assert.Equal(t, 0, second.Updated)
}

func TestReconcile_DuplicateKeysInBatch(t *testing.T) {
	db := setupMirrorTestDB(t)
	store := repository.NewMirrorRepository[model.Genre](db)
	ctx := context.Background()

	batch := genreBatch(2, time.Now())
	dup := batch[0]
	dup.Name = "Shooter"
	batch = append(batch, dup)

	result := Reconcile(ctx, model.KindGenre, store, batch, ReconcileOptions{})
	assert.Equal(t, 2, result.Created)

	got, err := store.FindByKey(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Shooter", got.Name)
}

func TestReconcile_FailedUpdateIsCounted(t *testing.T) {
	db := setupMirrorTestDB(t)
	base := repository.NewMirrorRepository[model.Genre](db)
	ctx := context.Background()

	Reconcile(ctx, model.KindGenre, base, genreBatch(3, time.Now()), ReconcileOptions{})

	store := &failingGenreStore{MirrorRepository: base, failKey: 2}
	batch := genreBatch(3, time.Now())
	for i := range batch {
		batch[i].Name += " (renamed)"
	}

	result := Reconcile(ctx, model.KindGenre, store, batch, ReconcileOptions{Concurrency: 2})
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)

	var writeErr *StoreWriteError
	require.True(t, errors.As(result.Errors[0], &writeErr))
	assert.Equal(t, "update", writeErr.Op)
	assert.Equal(t, []int64{2}, writeErr.Keys)
}

func TestReconcile_EmptyBatch(t *testing.T) {
	db := setupMirrorTestDB(t)
	store := repository.NewMirrorRepository[model.Genre](db)

	result := Reconcile(context.Background(), model.KindGenre, store, nil, ReconcileOptions{})
	assert.Equal(t, ReconcileResult{}, result)
}

func TestFieldEqual(t *testing.T) {
	one, other := 1, 1
	tests := []struct {
		name string
		a, b interface{}
		want bool
	}{
		{"相同字符串", "a", "a", true},
		{"不同字符串", "a", "b", false},
		{"指针按值比较", &one, &other, true},
		{"nil 与非 nil", (*int64)(nil), func() *int64 { v := int64(1); return &v }(), false},
		{"JSON 空白差异", model.IDList([]int64{1, 2}), datatypes.JSON("[1, 2]"), true},
		{"JSON 内容不同", model.IDList([]int64{1, 2}), model.IDList([]int64{1, 3}), false},
		{"JSON 语义相同", model.IDList([]int64{1, 2}), model.IDList([]int64{2, 1}), true},
		{"JSON null 等于空数组", model.IDList(nil), model.IDList([]int64{}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldEqual(tt.a, tt.b))
		})
	}
}
