package igdb

import (
	"strconv"
	"strings"
)

// MaxLimit 单次请求的最大返回条数，同时也是 id = (...) 过滤的最大 ID 数
const MaxLimit = 500

// Query IGDB 查询体构建器
// 生成形如: fields name,slug; where id = (1,2,3); sort id asc; limit 500; offset 0;
type Query struct {
	fields []string
	where  []string
	sort   string
	limit  int
	offset int
}

// NewQuery 创建查询，fields 为空时请求全部字段
func NewQuery(fields ...string) *Query {
	return &Query{fields: fields}
}

// Where 追加过滤条件，多个条件以 & 连接
func (q *Query) Where(clause string) *Query {
	if clause = strings.TrimSpace(clause); clause != "" {
		q.where = append(q.where, clause)
	}
	return q
}

// WhereIDs 追加 id = (a,b,c) 过滤
func (q *Query) WhereIDs(ids []int64) *Query {
	if len(ids) == 0 {
		return q
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return q.Where("id = (" + strings.Join(parts, ",") + ")")
}

func (q *Query) Sort(sort string) *Query {
	q.sort = sort
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// String 输出请求体
func (q *Query) String() string {
	var b strings.Builder

	b.WriteString("fields ")
	if len(q.fields) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(withID(q.fields), ","))
	}
	b.WriteString(";")

	if len(q.where) > 0 {
		b.WriteString(" where ")
		b.WriteString(strings.Join(q.where, " & "))
		b.WriteString(";")
	}
	if q.sort != "" {
		b.WriteString(" sort ")
		b.WriteString(q.sort)
		b.WriteString(";")
	}
	if q.limit > 0 {
		b.WriteString(" limit ")
		b.WriteString(strconv.Itoa(q.limit))
		b.WriteString(";")
	}
	if q.offset > 0 {
		b.WriteString(" offset ")
		b.WriteString(strconv.Itoa(q.offset))
		b.WriteString(";")
	}
	return b.String()
}

// withID 保证返回结果总是带 id
func withID(fields []string) []string {
	for _, f := range fields {
		if f == "id" || f == "*" {
			return fields
		}
	}
	return append([]string{"id"}, fields...)
}
