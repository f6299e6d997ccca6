package twitter

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Nitter RSS fallback for when no API credential is configured. Engagement
// counts are not present in RSS; posts come back with zero likes/shares,
// which the scorer reads as a low-engagement penalty.

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

func (r *Reader) fetchViaNitter(ctx context.Context, src *Source) ([]Post, error) {
	for _, instance := range r.cfg.NitterInstances {
		feedURL := fmt.Sprintf("%s/%s/rss", strings.TrimRight(instance, "/"), src.Handle)

		req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := r.client.Do(req)
		if err != nil {
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		resp.Body.Close()
		if err != nil || resp.StatusCode != 200 {
			continue
		}

		var feed rssFeed
		if err := xml.Unmarshal(body, &feed); err != nil {
			continue
		}

		var posts []Post
		for _, item := range feed.Channel.Items {
			text := htmlTagRe.ReplaceAllString(item.Description, " ")
			text = strings.TrimSpace(html.UnescapeString(text))
			if text == "" {
				text = item.Title
			}
			if text == "" {
				continue
			}

			ts, _ := time.Parse(time.RFC1123Z, item.PubDate)
			if ts.IsZero() {
				ts = time.Now().UTC()
			}

			posts = append(posts, Post{
				ID:        tweetIDFromLink(item.Link),
				Text:      text,
				CreatedAt: ts,
			})
		}

		if len(posts) > 0 {
			log.Debug().Str("handle", src.Handle).Int("count", len(posts)).Str("via", instance).Msg("fetched via nitter")
			return posts, nil
		}
	}

	return nil, fmt.Errorf("all nitter instances failed for @%s", src.Handle)
}

// tweetIDFromLink pulls the status id out of a nitter item link like
// https://nitter.net/user/status/1234567890#m.
func tweetIDFromLink(link string) string {
	parts := strings.Split(strings.TrimRight(link, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	id := parts[len(parts)-1]
	if idx := strings.Index(id, "#"); idx > 0 {
		id = id[:idx]
	}
	return id
}
