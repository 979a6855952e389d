package resolver

import (
	"context"
	"fmt"
)

// RaiPlay resolves state-broadcaster channels through the RaiPlay direct
// stream API. Playback of the resolved URL additionally requires a browser
// user agent on the playlist record; that annotation is applied at render
// time, not here.
type RaiPlay struct {
	Client  *Client
	BaseURL string
}

type raiDirette struct {
	Video struct {
		ContentURL string `json:"content_url"`
	} `json:"video"`
}

// Resolve fetches the channel descriptor and extracts the live stream URL
func (r *RaiPlay) Resolve(ctx context.Context, id string) (string, error) {
	var payload raiDirette
	if err := r.Client.GetJSON(ctx, fmt.Sprintf("%s/dirette/%s.json", r.BaseURL, id), &payload); err != nil {
		return "", err
	}

	if payload.Video.ContentURL == "" {
		return "", fmt.Errorf(`%w: missing "video.content_url"`, ErrMalformedResponse)
	}

	return payload.Video.ContentURL, nil
}
