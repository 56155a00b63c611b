package ytmusic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/neonpi/anton/pkg/music"
)

const (
	innertubeClientName    = "WEB_REMIX"
	innertubeClientVersion = "1.20240401.01.00"
	maxSearchResults       = 5
)

// innertubeContext identifies the web client to the API.
type innertubeContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl"`
}

func defaultContext() innertubeContext {
	return innertubeContext{
		Client: innertubeClient{
			ClientName:    innertubeClientName,
			ClientVersion: innertubeClientVersion,
			HL:            "en",
		},
	}
}

// searchRequest is the body for the search endpoint.
type searchRequest struct {
	Context innertubeContext `json:"context"`
	Query   string           `json:"query"`
}

// playerRequest is the body for the player endpoint.
type playerRequest struct {
	Context innertubeContext `json:"context"`
	VideoID string           `json:"videoId"`
}

// The search response nests results several renderer layers deep.
// Only the fields on the path to song items are modeled.
type searchResponse struct {
	Contents struct {
		TabbedSearchResultsRenderer struct {
			Tabs []struct {
				TabRenderer struct {
					Content struct {
						SectionListRenderer struct {
							Contents []searchSection `json:"contents"`
						} `json:"sectionListRenderer"`
					} `json:"content"`
				} `json:"tabRenderer"`
			} `json:"tabs"`
		} `json:"tabbedSearchResultsRenderer"`
	} `json:"contents"`
}

type searchSection struct {
	MusicShelfRenderer *struct {
		Contents []shelfItem `json:"contents"`
	} `json:"musicShelfRenderer,omitempty"`
}

type shelfItem struct {
	MusicResponsiveListItemRenderer *listItem `json:"musicResponsiveListItemRenderer,omitempty"`
}

type listItem struct {
	FlexColumns []struct {
		MusicResponsiveListItemFlexColumnRenderer struct {
			Text textRuns `json:"text"`
		} `json:"musicResponsiveListItemFlexColumnRenderer"`
	} `json:"flexColumns"`
	Thumbnail *struct {
		MusicThumbnailRenderer struct {
			Thumbnail struct {
				Thumbnails []thumbnail `json:"thumbnails"`
			} `json:"thumbnail"`
		} `json:"musicThumbnailRenderer"`
	} `json:"thumbnail,omitempty"`
	PlaylistItemData *struct {
		VideoID string `json:"videoId"`
	} `json:"playlistItemData,omitempty"`
}

type textRuns struct {
	Runs []textRun `json:"runs"`
}

type textRun struct {
	Text               string `json:"text"`
	NavigationEndpoint *struct {
		WatchEndpoint *struct {
			VideoID string `json:"videoId"`
		} `json:"watchEndpoint,omitempty"`
	} `json:"navigationEndpoint,omitempty"`
}

type thumbnail struct {
	URL string `json:"url"`
}

// playerResponse carries the video details for the now playing view.
type playerResponse struct {
	VideoDetails *videoDetails `json:"videoDetails,omitempty"`
}

type videoDetails struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	LengthSeconds string `json:"lengthSeconds"`
	Thumbnail     struct {
		Thumbnails []thumbnail `json:"thumbnails"`
	} `json:"thumbnail"`
}

// durationRe matches "3:45" style track durations.
var durationRe = regexp.MustCompile(`^\d+:\d{2}(:\d{2})?$`)

// searchSongs queries the search endpoint and extracts song items.
func (c *Client) searchSongs(ctx context.Context, query string) ([]music.SongInfo, error) {
	body, err := c.doRequest(ctx, "/search", searchRequest{
		Context: defaultContext(),
		Query:   query,
	})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal search response: %w", err)
	}

	var results []music.SongInfo
	for _, tab := range resp.Contents.TabbedSearchResultsRenderer.Tabs {
		for _, section := range tab.TabRenderer.Content.SectionListRenderer.Contents {
			if section.MusicShelfRenderer == nil {
				continue
			}
			for _, item := range section.MusicShelfRenderer.Contents {
				if item.MusicResponsiveListItemRenderer == nil {
					continue
				}
				info := parseListItem(item.MusicResponsiveListItemRenderer)
				if info == nil {
					continue
				}
				results = append(results, *info)
				if len(results) >= maxSearchResults {
					return results, nil
				}
			}
		}
	}
	return results, nil
}

// parseListItem extracts song info from a search result item. Items
// without a video ID (albums, artists, playlists) are skipped.
func parseListItem(item *listItem) *music.SongInfo {
	if len(item.FlexColumns) == 0 {
		return nil
	}

	titleRuns := item.FlexColumns[0].MusicResponsiveListItemFlexColumnRenderer.Text.Runs
	if len(titleRuns) == 0 {
		return nil
	}

	info := music.SongInfo{Title: titleRuns[0].Text}

	if ep := titleRuns[0].NavigationEndpoint; ep != nil && ep.WatchEndpoint != nil {
		info.VideoID = ep.WatchEndpoint.VideoID
	}
	if info.VideoID == "" && item.PlaylistItemData != nil {
		info.VideoID = item.PlaylistItemData.VideoID
	}
	if info.VideoID == "" {
		return nil
	}

	// The secondary column carries "Artist • Album • 3:45" as
	// separate runs.
	if len(item.FlexColumns) > 1 {
		runs := item.FlexColumns[1].MusicResponsiveListItemFlexColumnRenderer.Text.Runs
		var fields []string
		for _, run := range runs {
			if run.Text == " • " {
				continue
			}
			fields = append(fields, run.Text)
		}
		if len(fields) > 0 {
			info.Artist = fields[0]
		}
		if len(fields) > 1 && durationRe.MatchString(fields[len(fields)-1]) {
			info.Duration = fields[len(fields)-1]
			fields = fields[:len(fields)-1]
		}
		if len(fields) > 1 {
			info.Album = fields[len(fields)-1]
		}
	}
	if info.Artist == "" {
		info.Artist = "Unknown"
	}

	if item.Thumbnail != nil {
		info.Thumbnail = lastThumbnail(item.Thumbnail.MusicThumbnailRenderer.Thumbnail.Thumbnails)
	}

	return &info
}

// playerDetails fetches video details for a video ID.
func (c *Client) playerDetails(ctx context.Context, videoID string) (*videoDetails, error) {
	body, err := c.doRequest(ctx, "/player", playerRequest{
		Context: defaultContext(),
		VideoID: videoID,
	})
	if err != nil {
		return nil, err
	}

	var resp playerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal player response: %w", err)
	}
	return resp.VideoDetails, nil
}

// doRequest posts a JSON body to an InnerTube endpoint.
func (c *Client) doRequest(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://music.youtube.com")

	c.mu.Lock()
	for k, v := range c.authHeaders {
		req.Header.Set(k, v)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("innertube returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func lastThumbnail(thumbs []thumbnail) string {
	if len(thumbs) == 0 {
		return ""
	}
	return thumbs[len(thumbs)-1].URL
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
