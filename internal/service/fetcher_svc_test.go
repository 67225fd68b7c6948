package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igdb_mirror_v1_202610/internal/model"
)

// fakeCatalogClient 按调用顺序返回预设页
type fakeCatalogClient struct {
	mu     sync.Mutex
	pages  []int // 每次调用返回的条数
	fail   map[int]error
	bodies []string
	at     []time.Time
}

func (c *fakeCatalogClient) Query(_ context.Context, _ model.Kind, body string) ([]json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := len(c.bodies)
	c.bodies = append(c.bodies, body)
	c.at = append(c.at, time.Now())

	if err, ok := c.fail[call]; ok {
		return nil, err
	}

	size := 0
	if call < len(c.pages) {
		size = c.pages[call]
	}
	items := make([]json.RawMessage, size)
	for i := range items {
		items[i] = json.RawMessage(fmt.Sprintf(`{"id":%d}`, call*10000+i+1))
	}
	return items, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestFetcher_FetchAllPagination(t *testing.T) {
	client := &fakeCatalogClient{pages: []int{500, 500, 137}}
	f := NewFetcher(client, FetcherConfig{PageSize: 500, Delay: 250 * time.Millisecond})
	f.sleep = noSleep

	items, err := f.CollectAll(context.Background(), model.KindPlatform, []string{"name"}, "")
	require.NoError(t, err)

	assert.Len(t, items, 1137)
	require.Len(t, client.bodies, 3)
	assert.Contains(t, client.bodies[0], "limit 500;")
	assert.NotContains(t, client.bodies[0], "offset")
	assert.Contains(t, client.bodies[1], "offset 500;")
	assert.Contains(t, client.bodies[2], "offset 1000;")
}

func TestFetcher_FullLastPageTriggersBoundaryRequest(t *testing.T) {
	client := &fakeCatalogClient{pages: []int{500, 500, 0}}
	f := NewFetcher(client, FetcherConfig{PageSize: 500})
	f.sleep = noSleep

	items, err := f.CollectAll(context.Background(), model.KindGenre, nil, "")
	require.NoError(t, err)

	assert.Len(t, items, 1000)
	assert.Len(t, client.bodies, 3, "整除时仍需请求边界页")
}

func TestFetcher_FetchByIDsChunking(t *testing.T) {
	client := &fakeCatalogClient{pages: []int{500, 500, 203}}
	f := NewFetcher(client, FetcherConfig{PageSize: 500})
	f.sleep = noSleep

	ids := make([]int64, 1203)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	total, err := f.FetchByIDs(context.Background(), model.KindAgeRating, []string{"rating_category"}, ids,
		func(items []json.RawMessage) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1203, total)

	re := regexp.MustCompile(`id = \(([0-9,]+)\)`)
	var sizes []int
	for _, body := range client.bodies {
		m := re.FindStringSubmatch(body)
		require.Len(t, m, 2, body)
		sizes = append(sizes, len(strings.Split(m[1], ",")))
	}
	assert.Equal(t, []int{500, 500, 203}, sizes)
	assert.Contains(t, client.bodies[2], "limit 203;")
}

func TestFetcher_RespectsRequestDelay(t *testing.T) {
	client := &fakeCatalogClient{pages: []int{2, 2, 1}}
	f := NewFetcher(client, FetcherConfig{PageSize: 2, Delay: 250 * time.Millisecond})

	start := time.Now()
	items, err := f.CollectAll(context.Background(), model.KindCompany, nil, "")
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Len(t, items, 5)
	require.Len(t, client.at, 3)
	assert.GreaterOrEqual(t, elapsed, 2*250*time.Millisecond)
	for i := 1; i < len(client.at); i++ {
		assert.GreaterOrEqual(t, client.at[i].Sub(client.at[i-1]), 250*time.Millisecond)
	}
}

func TestFetcher_DelayFloor(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
		want  time.Duration
	}{
		{"zero", 0, MinRequestDelay},
		{"below floor", 10 * time.Millisecond, MinRequestDelay},
		{"above floor", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeCatalogClient{pages: []int{2, 1}}
			f := NewFetcher(client, FetcherConfig{PageSize: 2, Delay: tt.delay})

			var waits []time.Duration
			f.sleep = func(_ context.Context, d time.Duration) error {
				waits = append(waits, d)
				return nil
			}

			_, err := f.CollectAll(context.Background(), model.KindGenre, nil, "")
			require.NoError(t, err)
			assert.Equal(t, []time.Duration{tt.want}, waits)
		})
	}
}

func TestFetcher_NoDelayAfterLastPage(t *testing.T) {
	client := &fakeCatalogClient{pages: []int{3, 3, 1}}
	f := NewFetcher(client, FetcherConfig{PageSize: 3, Delay: time.Hour})

	var sleeps int
	f.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}

	_, err := f.CollectAll(context.Background(), model.KindCompany, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 2, sleeps)
}

func TestFetcher_ErrorAbortsAndKeepsPriorPages(t *testing.T) {
	fetchErr := &UpstreamFetchError{Kind: model.KindPlatform, Status: 500, Body: "boom"}
	client := &fakeCatalogClient{
		pages: []int{500, 500, 500},
		fail:  map[int]error{1: fetchErr},
	}
	f := NewFetcher(client, FetcherConfig{PageSize: 500})
	f.sleep = noSleep

	var handled int
	total, err := f.FetchAll(context.Background(), model.KindPlatform, nil, "",
		func(items []json.RawMessage) error {
			handled += len(items)
			return nil
		})

	var fe *UpstreamFetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 500, fe.Status)
	assert.Equal(t, 500, total)
	assert.Equal(t, 500, handled)
	assert.Len(t, client.bodies, 2)
}

func TestFetcher_CancelledDuringDelay(t *testing.T) {
	client := &fakeCatalogClient{pages: []int{2, 2}}
	f := NewFetcher(client, FetcherConfig{PageSize: 2, Delay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.CollectAll(ctx, model.KindCompany, nil, "")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Len(t, client.bodies, 1)
}

func TestFetcher_FilterAndSort(t *testing.T) {
	client := &fakeCatalogClient{pages: []int{1}}
	f := NewFetcher(client, FetcherConfig{PageSize: 500})

	_, err := f.CollectAll(context.Background(), model.KindPlatform, []string{"name"}, "updated_at > 100")
	require.NoError(t, err)
	assert.Equal(t, "fields id,name; where updated_at > 100; sort id asc; limit 500;", client.bodies[0])
}
