package dispatcharr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Channel is a Dispatcharr channel record.
type Channel struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	ChannelNumber   float64 `json:"channel_number"`
	ChannelGroupID  *int    `json:"channel_group_id,omitempty"`
	TvgID           string  `json:"tvg_id,omitempty"`
	EPGDataID       *int    `json:"epg_data_id,omitempty"`
	StreamProfileID *int    `json:"stream_profile_id,omitempty"`
	LogoID          *int    `json:"logo_id,omitempty"`
	Streams         []int   `json:"streams,omitempty"`
}

// Stream is one IPTV stream row.
type Stream struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	ChannelGroup *int   `json:"channel_group,omitempty"`
	M3UAccount   *int   `json:"m3u_account,omitempty"`
}

// Group is an M3U/channel group.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Logo is an uploaded channel logo.
type Logo struct {
	ID  int    `json:"id"`
	URL string `json:"url,omitempty"`
}

// ListChannels returns every channel.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var out []Channel
	if err := c.do(ctx, http.MethodGet, "/api/channels/channels/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChannel fetches one channel by id.
func (c *Client) GetChannel(ctx context.Context, id int) (*Channel, error) {
	var out Channel
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/channels/channels/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateChannel creates a channel and returns the stored record.
func (c *Client) CreateChannel(ctx context.Context, ch Channel) (*Channel, error) {
	var out Channel
	if err := c.do(ctx, http.MethodPost, "/api/channels/channels/", ch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateChannel patches selected fields.
func (c *Client) UpdateChannel(ctx context.Context, id int, fields map[string]interface{}) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/channels/channels/%d/", id), fields, nil)
}

// DeleteChannel removes a channel.
func (c *Client) DeleteChannel(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/channels/channels/%d/", id), nil, nil)
}

// SetChannelStreams replaces the ordered stream list of a channel.
func (c *Client) SetChannelStreams(ctx context.Context, id int, streamIDs []int) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/channels/channels/%d/", id),
		map[string]interface{}{"streams": streamIDs}, nil)
}

// ListStreams returns streams, optionally filtered by group name.
func (c *Client) ListStreams(ctx context.Context, groupName string) ([]Stream, error) {
	path := "/api/channels/streams/"
	if groupName != "" {
		path += "?channel_group=" + url.QueryEscape(groupName)
	}
	var out []Stream
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListGroups returns channel groups.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	var out []Group
	if err := c.do(ctx, http.MethodGet, "/api/channels/groups/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OccupiedNumbers returns every channel number currently in use.
func (c *Client) OccupiedNumbers(ctx context.Context) (map[int]bool, error) {
	channels, err := c.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]bool, len(channels))
	for _, ch := range channels {
		out[int(ch.ChannelNumber)] = true
	}
	return out, nil
}

// UploadEPG pushes an XMLTV payload to the named EPG source and triggers a
// refresh.
func (c *Client) UploadEPG(ctx context.Context, epgID int, xmltv []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "teamarr.xml")
	if err != nil {
		return err
	}
	if _, err := part.Write(xmltv); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/api/epg/sources/%d/upload/", c.baseURL, epgID), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dispatcharr epg upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dispatcharr epg upload: status %d: %s", resp.StatusCode, snippet)
	}
	return c.RefreshEPG(ctx, epgID)
}

// RefreshEPG asks the instance to re-parse the EPG source.
func (c *Client) RefreshEPG(ctx context.Context, epgID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/epg/sources/%d/refresh/", epgID), nil, nil)
}

// UploadLogo registers a logo by URL and returns its id.
func (c *Client) UploadLogo(ctx context.Context, name, logoURL string) (*Logo, error) {
	var out Logo
	err := c.do(ctx, http.MethodPost, "/api/channels/logos/",
		map[string]string{"name": name, "url": logoURL}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// marshalNumber keeps channel_number as a bare number in PATCH payloads.
func marshalNumber(n int) json.Number {
	return json.Number(fmt.Sprintf("%d", n))
}

// SetChannelNumber updates just the channel number.
func (c *Client) SetChannelNumber(ctx context.Context, id, number int) error {
	return c.UpdateChannel(ctx, id, map[string]interface{}{
		"channel_number": marshalNumber(number),
	})
}
