// Package homeassistant queries a Home Assistant instance for the
// situational context (weather, calendar, geofence) fed into decisions.
package homeassistant

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Snapshot is the current weather condition.
type Snapshot struct {
	Condition   string
	Temperature float64
	Unit        string
}

func (s Snapshot) String() string {
	if s.Unit == "" {
		return fmt.Sprintf("%s, %.1f degrees", s.Condition, s.Temperature)
	}
	return fmt.Sprintf("%s, %.1f%s", s.Condition, s.Temperature, s.Unit)
}

// Event is one upcoming calendar entry.
type Event struct {
	Summary string
	Start   time.Time
	End     time.Time
}

// Client talks to the Home Assistant REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	weatherEntity  string
	calendarEntity string
	personEntity   string
}

func NewClient(baseURL, token, weatherEntity, calendarEntity, personEntity string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		httpClient:     http.DefaultClient,
		weatherEntity:  weatherEntity,
		calendarEntity: calendarEntity,
		personEntity:   personEntity,
	}
}

// SetHTTPClient overrides the transport (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) get(ctx context.Context, path string) (gjson.Result, error) {
	if c.baseURL == "" {
		return gjson.Result{}, fmt.Errorf("home assistant not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("query home assistant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("query home assistant: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read home assistant body: %w", err)
	}
	return gjson.ParseBytes(body), nil
}

// Weather returns the current weather snapshot.
func (c *Client) Weather(ctx context.Context) (Snapshot, error) {
	if c.weatherEntity == "" {
		return Snapshot{}, fmt.Errorf("weather entity not configured")
	}
	state, err := c.get(ctx, "/api/states/"+url.PathEscape(c.weatherEntity))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Condition:   state.Get("state").String(),
		Temperature: state.Get("attributes.temperature").Float(),
		Unit:        state.Get("attributes.temperature_unit").String(),
	}, nil
}

// Calendar returns events in the next 24 hours.
func (c *Client) Calendar(ctx context.Context) ([]Event, error) {
	if c.calendarEntity == "" {
		return nil, fmt.Errorf("calendar entity not configured")
	}
	now := time.Now().UTC()
	path := fmt.Sprintf("/api/calendars/%s?start=%s&end=%s",
		url.PathEscape(c.calendarEntity),
		url.QueryEscape(now.Format(time.RFC3339)),
		url.QueryEscape(now.Add(24*time.Hour).Format(time.RFC3339)))

	parsed, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var events []Event
	parsed.ForEach(func(_, item gjson.Result) bool {
		ev := Event{Summary: item.Get("summary").String()}
		ev.Start = parseCalendarTime(item.Get("start"))
		ev.End = parseCalendarTime(item.Get("end"))
		events = append(events, ev)
		return true
	})
	return events, nil
}

// Geofence returns the coarse location of the tracked person, e.g. "home".
func (c *Client) Geofence(ctx context.Context) (string, error) {
	if c.personEntity == "" {
		return "", fmt.Errorf("person entity not configured")
	}
	state, err := c.get(ctx, "/api/states/"+url.PathEscape(c.personEntity))
	if err != nil {
		return "", err
	}
	location := state.Get("state").String()
	if location == "" {
		return "", fmt.Errorf("person entity has no state")
	}
	if location == "not_home" {
		location = "away"
	}
	return location, nil
}

// parseCalendarTime handles both all-day ("date") and timed ("dateTime")
// calendar entries.
func parseCalendarTime(node gjson.Result) time.Time {
	if raw := node.Get("dateTime").String(); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts
		}
	}
	if raw := node.Get("date").String(); raw != "" {
		if ts, err := time.Parse("2006-01-02", raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}
