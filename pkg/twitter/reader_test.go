package twitter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpha-radar/pkg/config"
)

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"new SOLANA gem just launched", true},
		{"CA: DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", true},
		{"this token is pumping hard", true},
		{"$WIF to the moon", true},
		{"good morning everyone", false},
		{"watching the game tonight", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRelevant(tt.text), "text=%q", tt.text)
	}
}

func TestTweetIDAfter(t *testing.T) {
	assert.True(t, tweetIDAfter("100", "99"))
	assert.True(t, tweetIDAfter("101", "100"))
	assert.False(t, tweetIDAfter("99", "100"))
	assert.False(t, tweetIDAfter("100", "100"))
}

func newTestReader(t *testing.T, handler http.Handler) (*Reader, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r := NewReader(&config.Config{TwitterBearerToken: "test-token", MaxTweets: 20})
	r.apiBase = srv.URL
	return r, srv
}

func apiHandler(t *testing.T, tweetsJSON string, sawSinceID *string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/by/username/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"42"}}`)
	})
	mux.HandleFunc("/2/users/42/tweets", func(w http.ResponseWriter, r *http.Request) {
		if sawSinceID != nil {
			*sawSinceID = r.URL.Query().Get("since_id")
		}
		fmt.Fprint(w, tweetsJSON)
	})
	return mux
}

const twoTweets = `{"data":[
	{"id":"200","text":"CA: DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263 gem alert","created_at":"2026-08-30T12:00:00Z","public_metrics":{"like_count":50,"retweet_count":10}},
	{"id":"150","text":"gm, nothing else today","created_at":"2026-08-30T10:00:00Z","public_metrics":{"like_count":5,"retweet_count":1}}
]}`

func TestFetchRecent_FiltersAndAdvancesCursor(t *testing.T) {
	var sinceID string
	r, _ := newTestReader(t, apiHandler(t, twoTweets, &sinceID))

	src := &Source{Handle: "tester"}
	posts := r.FetchRecent(context.Background(), src, 20)

	// Only the relevant post survives the keyword filter.
	require.Len(t, posts, 1)
	assert.Equal(t, "200", posts[0].ID)
	assert.Equal(t, 50, posts[0].Likes)
	assert.Equal(t, 10, posts[0].Shares)

	// Cursor advanced to the newest fetched id, even though the other
	// post was filtered out.
	assert.Equal(t, "200", src.LastTweetID)
	assert.Empty(t, sinceID, "first fetch must omit since_id")
	assert.Equal(t, "42", src.UserID, "user id cached on source")
}

func TestFetchRecent_PassesCursor(t *testing.T) {
	var sinceID string
	r, _ := newTestReader(t, apiHandler(t, `{"data":[]}`, &sinceID))

	src := &Source{Handle: "tester", UserID: "42", LastTweetID: "180"}
	posts := r.FetchRecent(context.Background(), src, 20)

	assert.Empty(t, posts)
	assert.Equal(t, "180", sinceID)
	assert.Equal(t, "180", src.LastTweetID, "cursor untouched when nothing new")
}

func TestFetchRecent_APIFailureReturnsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit", http.StatusTooManyRequests)
	})
	r, _ := newTestReader(t, mux)
	r.cfg.NitterInstances = nil // no fallback either

	src := &Source{Handle: "tester"}
	posts := r.FetchRecent(context.Background(), src, 20)
	assert.Empty(t, posts)
	assert.Empty(t, src.LastTweetID, "cursor untouched on failure")
}

func TestFetchRecent_NitterFallback(t *testing.T) {
	rss := `<?xml version="1.0"?>
<rss><channel>
  <item>
    <title>t</title>
    <description>&lt;p&gt;pump incoming CA: DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263&lt;/p&gt;</description>
    <link>https://nitter.net/tester/status/987654321#m</link>
    <pubDate>Sun, 30 Aug 2026 12:00:00 +0000</pubDate>
  </item>
</channel></rss>`

	nitter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/rss") {
			fmt.Fprint(w, rss)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(nitter.Close)

	// No bearer token: reader goes straight to nitter.
	r := NewReader(&config.Config{NitterInstances: []string{nitter.URL}})

	src := &Source{Handle: "tester"}
	posts := r.FetchRecent(context.Background(), src, 20)
	require.Len(t, posts, 1)
	assert.Equal(t, "987654321", posts[0].ID)
	assert.Contains(t, posts[0].Text, "pump incoming")
	assert.Zero(t, posts[0].Likes, "RSS carries no engagement")
	assert.Equal(t, "987654321", src.LastTweetID)
}
