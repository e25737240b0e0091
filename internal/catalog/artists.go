package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Image is one variant of an artist image.
type Image struct {
	Height int    `json:"height"`
	Width  int    `json:"width"`
	URL    string `json:"url"`
}

// Followers is the follower block on a raw artist record.
type Followers struct {
	Total int `json:"total"`
}

// RawArtist is an artist record as returned by the catalog service.
// Followers is a pointer so a missing follower block is distinguishable
// from zero followers.
type RawArtist struct {
	ID         string     `json:"id"`
	URI        string     `json:"uri"`
	Name       string     `json:"name"`
	Popularity int        `json:"popularity"`
	Genres     []string   `json:"genres"`
	Images     []Image    `json:"images"`
	Followers  *Followers `json:"followers"`
}

// TopArtists lists the authenticated user's top artists, most listened
// first. Pass limit <= 0 for the default page size.
func (c *Client) TopArtists(ctx context.Context, accessToken string, limit int) ([]RawArtist, error) {
	if limit <= 0 {
		limit = DefaultTopArtistLimit
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}

	body, err := c.get(ctx, c.apiURL+"/me/top/artists?"+query.Encode(), accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetching top artists: %w", err)
	}

	var page struct {
		Items []RawArtist `json:"items"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parsing top artists response: %w", err)
	}
	return page.Items, nil
}

// RelatedArtists lists the artists related to the given artist, in
// relevance order, most related first. The order is preserved end to end
// so rank and recommendation queries can recover it.
func (c *Client) RelatedArtists(ctx context.Context, accessToken, artistID string) ([]RawArtist, error) {
	body, err := c.get(ctx, c.apiURL+"/artists/"+url.PathEscape(artistID)+"/related-artists", accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetching related artists: %w", err)
	}

	var page struct {
		Artists []RawArtist `json:"artists"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parsing related artists response: %w", err)
	}
	return page.Artists, nil
}

func (c *Client) get(ctx context.Context, reqURL, accessToken string) ([]byte, error) {
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		return req, nil
	})
}
