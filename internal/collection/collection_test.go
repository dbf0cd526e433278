package collection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/client/clienttest"
	"github.com/sol1corejz/linkly/internal/models"
	"github.com/sol1corejz/linkly/internal/validation"
)

type alerts struct {
	mu   sync.Mutex
	msgs []string
}

func (a *alerts) Alert(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, msg)
}

func (a *alerts) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.msgs...)
}

type openRecorder struct {
	mu     sync.Mutex
	opened []string
}

func (o *openRecorder) CopyText(string) error { return nil }
func (o *openRecorder) CurrentOrigin() string { return "http://localhost:3000" }
func (o *openRecorder) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, url)
	return nil
}

var (
	day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day1 = day0.Add(24 * time.Hour)
)

func seeded(t *testing.T, opts ...Option) (*clienttest.Server, *Collection, *alerts) {
	t.Helper()

	srv := clienttest.NewServer(t)
	srv.Seed(
		models.LinkRecord{ShortCode: "abc123", OriginalURL: "https://www.example.com/some/long/url", AccessCount: 42, CreatedAt: day0},
		models.LinkRecord{ShortCode: "def456", OriginalURL: "https://www.anotherexample.com/different/path", AccessCount: 18, CreatedAt: day1},
	)

	a := &alerts{}
	opts = append([]Option{WithNotifier(a)}, opts...)
	c := New(srv.Client(t), opts...)
	t.Cleanup(c.Close)

	require.NoError(t, c.Refresh(context.Background()))
	return srv, c, a
}

func codes(v View) []string {
	out := make([]string, 0, len(v.Records))
	for _, r := range v.Records {
		out = append(out, r.ShortCode)
	}
	return out
}

func TestCollection_Refresh(t *testing.T) {
	_, c, _ := seeded(t)

	v := c.Snapshot()
	assert.True(t, v.Loaded)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Error)
	assert.Equal(t, []string{"abc123", "def456"}, codes(v))
	assert.Equal(t, 2, c.Len())
}

func TestCollection_RefreshError(t *testing.T) {
	srv, c, _ := seeded(t)

	srv.Fail(http.MethodGet, http.StatusInternalServerError, "")
	err := c.Refresh(context.Background())
	require.Error(t, err)

	v := c.Snapshot()
	assert.Equal(t, "HTTP error! status: 500", v.Error)
	assert.False(t, v.Loading)

	srv.Recover(http.MethodGet)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Empty(t, c.Snapshot().Error)
}

func TestCollection_RefreshSharesRequest(t *testing.T) {
	srv, c, _ := seeded(t)
	before := srv.Calls(http.MethodGet)

	release := srv.Hold(http.MethodGet)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Refresh(context.Background()))
		}()
	}

	require.Eventually(t, func() bool { return c.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	assert.Equal(t, before+1, srv.Calls(http.MethodGet))
}

func TestCollection_RequestSort(t *testing.T) {
	tests := []struct {
		name   string
		clicks []SortField
		want   []string
		dir    Direction
	}{
		{
			name:   "access count ascending",
			clicks: []SortField{SortAccessCount},
			want:   []string{"def456", "abc123"},
			dir:    Ascending,
		},
		{
			name:   "access count descending",
			clicks: []SortField{SortAccessCount, SortAccessCount},
			want:   []string{"abc123", "def456"},
			dir:    Descending,
		},
		{
			name:   "third click goes back to ascending",
			clicks: []SortField{SortAccessCount, SortAccessCount, SortAccessCount},
			want:   []string{"def456", "abc123"},
			dir:    Ascending,
		},
		{
			name:   "new field resets direction",
			clicks: []SortField{SortShortCode, SortShortCode, SortCreatedAt},
			want:   []string{"abc123", "def456"},
			dir:    Ascending,
		},
		{
			name:   "original url descending",
			clicks: []SortField{SortOriginalURL, SortOriginalURL},
			want:   []string{"abc123", "def456"},
			dir:    Descending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, c, _ := seeded(t)
			gets := srv.Calls(http.MethodGet)

			for _, f := range tt.clicks {
				require.NoError(t, c.RequestSort(f))
			}

			v := c.Snapshot()
			assert.Equal(t, tt.want, codes(v))
			assert.Equal(t, tt.dir, v.Sort.Direction)
			assert.Equal(t, tt.clicks[len(tt.clicks)-1], v.Sort.Field)
			assert.Equal(t, gets, srv.Calls(http.MethodGet))
		})
	}
}

func TestCollection_RequestSortUnknownField(t *testing.T) {
	_, c, _ := seeded(t)
	assert.Error(t, c.RequestSort("clicks"))
	assert.Equal(t, SortConfig{}, c.Snapshot().Sort)
}

func TestSortRecords_StableAndReversible(t *testing.T) {
	recs := []models.LinkRecord{
		{ShortCode: "a", AccessCount: 1},
		{ShortCode: "b", AccessCount: 2},
		{ShortCode: "c", AccessCount: 1},
		{ShortCode: "d", AccessCount: 3},
	}

	asc := sortRecords(recs, SortConfig{Field: SortAccessCount})
	assert.Equal(t, []string{"a", "c", "b", "d"}, []string{asc[0].ShortCode, asc[1].ShortCode, asc[2].ShortCode, asc[3].ShortCode})

	byCode := sortRecords(recs, SortConfig{Field: SortShortCode})
	desc := sortRecords(recs, SortConfig{Field: SortShortCode, Direction: Descending})
	for i := range byCode {
		assert.Equal(t, byCode[i], desc[len(desc)-1-i])
	}

	assert.Equal(t, recs, sortRecords(recs, SortConfig{}))
}

func TestParseSortField(t *testing.T) {
	f, err := ParseSortField("ACCESSCOUNT")
	require.NoError(t, err)
	assert.Equal(t, SortAccessCount, f)

	_, err = ParseSortField("")
	assert.Error(t, err)
}

func TestCollection_DeleteSuccess(t *testing.T) {
	srv, c, a := seeded(t)

	err := c.Delete(WithConfirmation(context.Background()), "abc123")
	require.NoError(t, err)

	assert.Equal(t, []string{"def456"}, codes(c.Snapshot()))
	assert.Equal(t, []string{MsgDeleted}, a.all())
	_, ok := srv.Link("abc123")
	assert.False(t, ok)
}

func TestCollection_DeleteFailure(t *testing.T) {
	srv, c, a := seeded(t)
	srv.Fail(http.MethodDelete, http.StatusInternalServerError, "")

	err := c.Delete(WithConfirmation(context.Background()), "abc123")
	require.Error(t, err)

	assert.Equal(t, []string{"abc123", "def456"}, codes(c.Snapshot()))
	assert.Equal(t, []string{MsgDeleteFailed}, a.all())
}

func TestCollection_DeleteCancelled(t *testing.T) {
	var prompts []string
	confirmer := ConfirmFunc(func(_ context.Context, prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	})
	srv, c, a := seeded(t, WithConfirmer(confirmer))

	err := c.Delete(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, []string{MsgConfirmDelete}, prompts)
	assert.Equal(t, 0, srv.Calls(http.MethodDelete))
	assert.Len(t, c.Snapshot().Records, 2)
	assert.Empty(t, a.all())
}

func TestCollection_DeleteUnknownCode(t *testing.T) {
	srv, c, a := seeded(t)

	err := c.Delete(WithConfirmation(context.Background()), "zzz999")
	assert.ErrorIs(t, err, ErrUnknownCode)
	assert.Equal(t, 0, srv.Calls(http.MethodDelete))
	assert.Equal(t, []string{MsgDeleteFailed}, a.all())
}

func TestCollection_EditRoundTrip(t *testing.T) {
	srv, c, a := seeded(t)

	require.NoError(t, c.BeginEdit("abc123"))
	v := c.Snapshot()
	assert.True(t, v.Editing("abc123"))
	assert.Equal(t, "https://www.example.com/some/long/url", v.EditBuffer)

	require.NoError(t, c.SetEditBuffer("abc123", "https://example.org"))
	rec, err := c.SaveEdit(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", rec.OriginalURL)

	v = c.Snapshot()
	assert.Empty(t, v.EditingCode)
	assert.Equal(t, "https://example.org", v.Records[0].OriginalURL)
	assert.True(t, v.Records[0].UpdatedAt.After(day0))
	assert.Equal(t, []string{MsgUpdated}, a.all())

	stored, ok := srv.Link("abc123")
	require.True(t, ok)
	assert.Equal(t, "https://example.org", stored.OriginalURL)
}

func TestCollection_EditFailureKeepsBuffer(t *testing.T) {
	srv, c, a := seeded(t)
	srv.Fail(http.MethodPut, http.StatusInternalServerError, "")

	require.NoError(t, c.BeginEdit("abc123"))
	require.NoError(t, c.SetEditBuffer("abc123", "https://example.org"))
	_, err := c.SaveEdit(context.Background(), "abc123")
	require.Error(t, err)

	v := c.Snapshot()
	assert.True(t, v.Editing("abc123"))
	assert.Equal(t, "https://example.org", v.EditBuffer)
	assert.Equal(t, "https://www.example.com/some/long/url", v.Records[0].OriginalURL)
	assert.Equal(t, []string{MsgUpdateFailed}, a.all())
}

func TestCollection_EditInvalidURL(t *testing.T) {
	srv, c, a := seeded(t)

	require.NoError(t, c.BeginEdit("abc123"))
	require.NoError(t, c.SetEditBuffer("abc123", "   "))
	_, err := c.SaveEdit(context.Background(), "abc123")

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 0, srv.Calls(http.MethodPut))
	assert.True(t, c.Snapshot().Editing("abc123"))
	assert.Equal(t, []string{validation.MsgInvalidURL}, a.all())
}

func TestCollection_EditStateErrors(t *testing.T) {
	_, c, _ := seeded(t)

	assert.ErrorIs(t, c.BeginEdit("missing"), ErrUnknownCode)
	assert.ErrorIs(t, c.SetEditBuffer("abc123", "x"), ErrNotEditing)
	_, err := c.SaveEdit(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNotEditing)

	require.NoError(t, c.BeginEdit("abc123"))
	require.NoError(t, c.BeginEdit("def456"))
	assert.Equal(t, "def456", c.Snapshot().EditingCode)

	c.CancelEdit()
	v := c.Snapshot()
	assert.Empty(t, v.EditingCode)
	assert.Empty(t, v.EditBuffer)
}

func TestCollection_LatestSaveWins(t *testing.T) {
	srv, c, a := seeded(t)

	require.NoError(t, c.BeginEdit("abc123"))
	require.NoError(t, c.SetEditBuffer("abc123", "https://first.example"))

	release := srv.Hold(http.MethodPut)
	first := make(chan error, 1)
	go func() {
		_, err := c.SaveEdit(context.Background(), "abc123")
		first <- err
	}()
	require.Eventually(t, func() bool { return srv.Calls(http.MethodPut) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.SetEditBuffer("abc123", "https://second.example"))
	_, err := c.SaveEdit(context.Background(), "abc123")
	require.NoError(t, err)

	release()
	assert.ErrorIs(t, <-first, ErrStale)

	v := c.Snapshot()
	assert.Equal(t, "https://second.example", v.Records[0].OriginalURL)
	assert.Equal(t, []string{MsgUpdated}, a.all())
}

func TestCollection_DeleteWhileEditing(t *testing.T) {
	_, c, _ := seeded(t)

	require.NoError(t, c.BeginEdit("abc123"))
	require.NoError(t, c.Delete(WithConfirmation(context.Background()), "abc123"))
	assert.Empty(t, c.Snapshot().EditingCode)
}

func TestCollection_SortSurvivesEdit(t *testing.T) {
	_, c, _ := seeded(t)
	require.NoError(t, c.RequestSort(SortOriginalURL))
	assert.Equal(t, []string{"def456", "abc123"}, codes(c.Snapshot()))

	require.NoError(t, c.BeginEdit("abc123"))
	require.NoError(t, c.SetEditBuffer("abc123", "https://aaa.example"))
	_, err := c.SaveEdit(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, []string{"abc123", "def456"}, codes(c.Snapshot()))
}

func TestCollection_OpenOriginal(t *testing.T) {
	p := &openRecorder{}
	srv, c, a := seeded(t, WithPlatform(p))

	target, err := c.OpenOriginal(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.com/some/long/url", target)
	assert.Equal(t, []string{target}, p.opened)

	_, err = c.OpenOriginal(context.Background(), "missing")
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, []string{MsgRedirectFailed}, a.all())

	rec, _ := srv.Link("abc123")
	assert.Equal(t, int64(43), rec.AccessCount)
}

func TestCollection_StatsUpdatesCount(t *testing.T) {
	srv, c, _ := seeded(t)

	// Переход по ссылке увеличивает счётчик на сервере.
	_, err := srv.Client(t).GetOriginalURL(context.Background(), "def456")
	require.NoError(t, err)

	rec, err := c.Stats(context.Background(), "def456")
	require.NoError(t, err)
	assert.Equal(t, int64(19), rec.AccessCount)

	for _, r := range c.Snapshot().Records {
		if r.ShortCode == "def456" {
			assert.Equal(t, int64(19), r.AccessCount)
		}
	}
}

func TestCollection_Close(t *testing.T) {
	srv, c, _ := seeded(t)

	release := srv.Hold(http.MethodDelete)
	defer release()

	done := make(chan error, 1)
	go func() {
		done <- c.Delete(WithConfirmation(context.Background()), "abc123")
	}()
	require.Eventually(t, func() bool { return srv.Calls(http.MethodDelete) == 1 }, time.Second, 5*time.Millisecond)

	c.Close()
	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Len(t, c.Snapshot().Records, 2)

	assert.ErrorIs(t, c.Refresh(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.RequestSort(SortShortCode), ErrClosed)
	assert.ErrorIs(t, c.BeginEdit("abc123"), ErrClosed)
}

func TestCollection_AutoRefresh(t *testing.T) {
	srv, c, _ := seeded(t)
	c.StartAutoRefresh(10 * time.Millisecond)

	srv.Seed(models.LinkRecord{ShortCode: "ghi789", OriginalURL: "https://go.dev"})
	assert.Eventually(t, func() bool { return c.Len() == 3 }, time.Second, 5*time.Millisecond)
}

func ExampleParseSortField() {
	f, err := ParseSortField("ACCESSCOUNT")
	fmt.Println(f, err)

	_, err = ParseSortField("title")
	fmt.Println(err)

	// Output:
	// accessCount <nil>
	// unknown sort field "title"
}
