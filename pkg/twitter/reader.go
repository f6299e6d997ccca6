package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alpha-radar/pkg/config"
)

// Source is one monitored alpha-hunter account. UserID is resolved lazily
// and cached for the process lifetime; LastTweetID is the incremental-fetch
// cursor, advanced after each successful read.
type Source struct {
	Handle      string `json:"handle"`
	UserID      string `json:"-"`
	LastTweetID string `json:"last_tweet_id"`
}

func (s *Source) ProfileURL() string {
	return "https://x.com/" + s.Handle
}

// Post is one fetched social post, newest first in FetchRecent results.
type Post struct {
	ID        string
	Text      string
	CreatedAt time.Time
	Likes     int
	Shares    int
}

// Reader fetches recent posts for sources, via the official API when a
// bearer token is configured and Nitter RSS otherwise.
type Reader struct {
	cfg     *config.Config
	client  *http.Client
	apiBase string

	idMu    sync.Mutex
	idCache map[string]string // handle -> user id
}

func NewReader(cfg *config.Config) *Reader {
	return &Reader{
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		apiBase: "https://api.twitter.com",
		idCache: make(map[string]string),
	}
}

// relevanceKeywords gate posts before address extraction. A hunter account
// posts plenty of banter; only posts touching the domain vocabulary are
// worth the downstream RPC budget.
var relevanceKeywords = []string{
	"solana", "sol ", "$sol", "token", "contract", "mint", "liquidity",
	"pump", "gem", "alpha", "launch", "ca:", "ca ", "raydium", "dex",
	"degen", "moon", "ape",
}

// IsRelevant reports whether a post passes the case-insensitive keyword
// filter. A "$" ticker mention alone also qualifies.
func IsRelevant(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return strings.Contains(text, "$")
}

// FetchRecent returns up to max relevant posts newer than the source's
// cursor, newest first, and advances the cursor. Any failure is logged and
// returns an empty slice so one dead source never aborts a scan.
func (r *Reader) FetchRecent(ctx context.Context, src *Source, max int) []Post {
	var posts []Post
	var err error

	if r.cfg.TwitterBearerToken != "" {
		posts, err = r.fetchViaAPI(ctx, src, max)
		if err != nil {
			log.Warn().Err(err).Str("handle", src.Handle).Msg("API fetch failed, trying nitter")
			posts, err = r.fetchViaNitter(ctx, src)
		}
	} else {
		posts, err = r.fetchViaNitter(ctx, src)
	}
	if err != nil {
		log.Warn().Err(err).Str("handle", src.Handle).Msg("source fetch failed, skipping this cycle")
		return nil
	}

	// Drop anything at or behind the cursor (nitter has no since_id).
	if src.LastTweetID != "" {
		kept := posts[:0]
		for _, p := range posts {
			if tweetIDAfter(p.ID, src.LastTweetID) {
				kept = append(kept, p)
			}
		}
		posts = kept
	}
	if len(posts) > max {
		posts = posts[:max]
	}

	var relevant []Post
	for _, p := range posts {
		if IsRelevant(p.Text) {
			relevant = append(relevant, p)
		}
	}

	if len(posts) > 0 {
		newest := posts[0].ID
		for _, p := range posts {
			if tweetIDAfter(p.ID, newest) {
				newest = p.ID
			}
		}
		src.LastTweetID = newest
	}

	log.Debug().Str("handle", src.Handle).Int("fetched", len(posts)).Int("relevant", len(relevant)).Msg("source read")
	return relevant
}

// resolveUserID looks up and caches the numeric id behind a handle.
func (r *Reader) resolveUserID(ctx context.Context, handle string) (string, error) {
	r.idMu.Lock()
	if id, ok := r.idCache[handle]; ok {
		r.idMu.Unlock()
		return id, nil
	}
	r.idMu.Unlock()

	reqURL := r.apiBase + "/2/users/by/username/" + url.PathEscape(handle)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.TwitterBearerToken)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		return "", fmt.Errorf("rate limited resolving @%s", handle)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("user lookup status %d", resp.StatusCode)
	}

	var userData struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userData); err != nil || userData.Data.ID == "" {
		return "", fmt.Errorf("user @%s not found", handle)
	}

	r.idMu.Lock()
	r.idCache[handle] = userData.Data.ID
	r.idMu.Unlock()
	return userData.Data.ID, nil
}

func (r *Reader) fetchViaAPI(ctx context.Context, src *Source, max int) ([]Post, error) {
	if src.UserID == "" {
		id, err := r.resolveUserID(ctx, src.Handle)
		if err != nil {
			return nil, err
		}
		src.UserID = id
	}

	if max < 5 {
		max = 5 // API minimum for max_results
	}
	tweetsURL := fmt.Sprintf(
		"%s/2/users/%s/tweets?max_results=%d&tweet.fields=created_at,public_metrics",
		r.apiBase, src.UserID, max)
	if src.LastTweetID != "" {
		tweetsURL += "&since_id=" + src.LastTweetID
	}

	req, err := http.NewRequestWithContext(ctx, "GET", tweetsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.TwitterBearerToken)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		return nil, fmt.Errorf("rate limited")
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("tweets status %d", resp.StatusCode)
	}

	var tweetsData struct {
		Data []struct {
			ID            string `json:"id"`
			Text          string `json:"text"`
			CreatedAt     string `json:"created_at"`
			PublicMetrics struct {
				LikeCount    int `json:"like_count"`
				RetweetCount int `json:"retweet_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tweetsData); err != nil {
		return nil, err
	}

	var posts []Post
	for _, t := range tweetsData.Data {
		ts, _ := time.Parse(time.RFC3339, t.CreatedAt)
		posts = append(posts, Post{
			ID:        t.ID,
			Text:      t.Text,
			CreatedAt: ts,
			Likes:     t.PublicMetrics.LikeCount,
			Shares:    t.PublicMetrics.RetweetCount,
		})
	}
	return posts, nil
}

// tweetIDAfter compares snowflake ids numerically: longer means larger,
// same length falls back to lexicographic.
func tweetIDAfter(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}
