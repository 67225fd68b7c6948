package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "空", raw: "", want: nil},
		{name: "null", raw: "null", want: nil},
		{name: "空数组", raw: "[]", want: []int64{}},
		{name: "数字数组", raw: "[3, 1, 2]", want: []int64{3, 1, 2}},
		{name: "单个数字", raw: "42", want: []int64{42}},
		{name: "对象数组", raw: `[{"id":5},{"id":6,"name":"x"}]`, want: []int64{5, 6}},
		{name: "字符串包裹", raw: `"[7,8]"`, want: []int64{7, 8}},
		{name: "字符串数组", raw: `["abc"]`, wantErr: true},
		{name: "小数", raw: "[1.5]", wantErr: true},
		{name: "负数", raw: "[-1]", wantErr: true},
		{name: "对象缺 id", raw: `[{"name":"x"}]`, wantErr: true},
		{name: "多层字符串", raw: `"\"[1]\""`, wantErr: true},
		{name: "对象", raw: `{"id":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDs(datatypes.JSON(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractIDs_UnionAndSkipMalformed(t *testing.T) {
	sources := []RefSource{
		{OwnerID: 1, Field: "games.artworks", Raw: datatypes.JSON("[1,2,3]")},
		{OwnerID: 2, Field: "games.artworks", Raw: datatypes.JSON("[3,4]")},
		{OwnerID: 3, Field: "games.artworks", Raw: datatypes.JSON("{broken")},
		{OwnerID: 4, Field: "games.artworks", Raw: nil},
		{OwnerID: 5, Field: "games.artworks", Raw: datatypes.JSON("5")},
	}

	set, malformed := ExtractIDs(model.KindArtwork, sources)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, sortedIDs(set))
	require.Len(t, malformed, 1)
	assert.Equal(t, int64(3), malformed[0].OwnerID)
	assert.Equal(t, model.KindArtwork, malformed[0].Kind)
}

func TestMissingIDs_MinimalFetchSet(t *testing.T) {
	db := setupMirrorTestDB(t)
	store := repository.NewMirrorRepository[model.AgeRating](db)
	ctx := context.Background()

	_, err := store.BulkCreateSkipDuplicates(ctx, []model.AgeRating{
		{MirrorBase: model.MirrorBase{IGDBID: 1}},
		{MirrorBase: model.MirrorBase{IGDBID: 2}},
		{MirrorBase: model.MirrorBase{IGDBID: 3}},
	})
	require.NoError(t, err)

	set, malformed := ExtractIDs(model.KindAgeRating, []RefSource{
		{OwnerID: 10, Field: "games.age_ratings", Raw: model.IDList([]int64{1, 2, 3})},
		{OwnerID: 11, Field: "games.age_ratings", Raw: model.IDList([]int64{4, 5})},
	})
	require.Empty(t, malformed)

	missing, err := MissingIDs(ctx, store, set)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, missing)
}

func TestMissingIDs_EmptySet(t *testing.T) {
	db := setupMirrorTestDB(t)
	store := repository.NewMirrorRepository[model.AgeRating](db)

	missing, err := MissingIDs(context.Background(), store, map[int64]struct{}{})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestGameRefSources_SingleValuedField(t *testing.T) {
	games := []model.Game{
		{BaseModel: model.BaseModel{ID: 1}, Cover: int64Ptr(77)},
		{BaseModel: model.BaseModel{ID: 2}},
	}

	set, malformed := ExtractIDs(model.KindCover, gameRefSources(games, "cover"))
	assert.Empty(t, malformed)
	assert.Equal(t, []int64{77}, sortedIDs(set))
}
