package igdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_String(t *testing.T) {
	tests := []struct {
		name  string
		query *Query
		want  string
	}{
		{
			name:  "全部字段",
			query: NewQuery(),
			want:  "fields *;",
		},
		{
			name:  "分页",
			query: NewQuery("name", "slug").Sort("id asc").Limit(500).Offset(1000),
			want:  "fields id,name,slug; sort id asc; limit 500; offset 1000;",
		},
		{
			name:  "首页不输出 offset",
			query: NewQuery("id", "name").Limit(500).Offset(0),
			want:  "fields id,name; limit 500;",
		},
		{
			name:  "ID 过滤与增量条件",
			query: NewQuery("name").WhereIDs([]int64{1, 2, 3}).Where("updated_at > 1700000000").Limit(3),
			want:  "fields id,name; where id = (1,2,3) & updated_at > 1700000000; limit 3;",
		},
		{
			name:  "空条件忽略",
			query: NewQuery("name").Where("  ").WhereIDs(nil),
			want:  "fields id,name;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.String())
		})
	}
}
