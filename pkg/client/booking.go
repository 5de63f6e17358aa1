package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"courtbook/pkg/model"
)

type NewBooking struct {
	UserID    int64     `json:"user_id"`
	CourtID   int64     `json:"court_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     string    `json:"notes,omitempty"`
}

type Reschedule struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     *string   `json:"notes,omitempty"`
}

type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Availability struct {
	CourtID     int64  `json:"court_id"`
	Date        string `json:"date"`
	SlotMinutes int    `json:"slot_minutes"`
	Open        string `json:"open"`
	Close       string `json:"close"`
	Slots       []Slot `json:"slots"`
}

type NotificationChannel struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type Revenue struct {
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// BookingClient calls the courtbook HTTP API.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// AsUser tags subsequent requests with X-User-ID, the rate limiter key.
func (c *BookingClient) AsUser(userID int64) *BookingClient {
	c.httpClient.Headers["X-User-ID"] = strconv.FormatInt(userID, 10)
	return c
}

// Create books a court. A non-empty idempotencyKey makes retries safe.
func (c *BookingClient) Create(ctx context.Context, req NewBooking, idempotencyKey string) (*model.Booking, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	resp, err := c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", req, headers)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *BookingClient) Get(ctx context.Context, id int64) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, bookingPath(id, ""))
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

// List passes filters straight through as query parameters
// (user_id, court_id, date, from, to).
func (c *BookingClient) List(ctx context.Context, filters url.Values) ([]*model.Booking, error) {
	path := "/api/v1/bookings"
	if len(filters) > 0 {
		path += "?" + filters.Encode()
	}
	var bookings []*model.Booking
	if err := c.getData(ctx, path, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *BookingClient) Modify(ctx context.Context, id int64, req Reschedule) (*model.Booking, error) {
	resp, err := c.httpClient.PATCH(ctx, bookingPath(id, ""), req)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *BookingClient) Cancel(ctx context.Context, id int64) (*model.Booking, error) {
	return c.action(ctx, id, "cancel")
}

func (c *BookingClient) Confirm(ctx context.Context, id int64) (*model.Booking, error) {
	return c.action(ctx, id, "confirm")
}

func (c *BookingClient) Complete(ctx context.Context, id int64) (*model.Booking, error) {
	return c.action(ctx, id, "complete")
}

func (c *BookingClient) Availability(ctx context.Context, courtID int64, day time.Time, slotMinutes int) (*Availability, error) {
	q := url.Values{}
	q.Set("date", day.Format(time.DateOnly))
	if slotMinutes > 0 {
		q.Set("slot_minutes", strconv.Itoa(slotMinutes))
	}
	var out Availability
	if err := c.getData(ctx, fmt.Sprintf("/api/v1/courts/%d/availability?%s", courtID, q.Encode()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BookingClient) Notifications(ctx context.Context) ([]string, error) {
	var messages []string
	if err := c.getData(ctx, "/api/v1/notifications", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// ClearNotifications empties the in-app feed and returns how many messages it held.
func (c *BookingClient) ClearNotifications(ctx context.Context) (int, error) {
	resp, err := c.httpClient.DELETE(ctx, "/api/v1/notifications")
	if err != nil {
		return 0, err
	}
	var out struct {
		Cleared int `json:"cleared"`
	}
	if err := resp.DecodeData(&out); err != nil {
		return 0, err
	}
	return out.Cleared, nil
}

func (c *BookingClient) NotificationChannels(ctx context.Context) ([]NotificationChannel, error) {
	var channels []NotificationChannel
	if err := c.getData(ctx, "/api/v1/notifications/channels", &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (c *BookingClient) SetNotificationChannel(ctx context.Context, name string, enabled bool) (*NotificationChannel, error) {
	resp, err := c.httpClient.PUT(ctx, "/api/v1/notifications/channels/"+url.PathEscape(name), map[string]bool{"enabled": enabled})
	if err != nil {
		return nil, err
	}
	var out NotificationChannel
	if err := resp.DecodeData(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BookingClient) Revenue(ctx context.Context, from, to time.Time) (*Revenue, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.DateOnly))
	q.Set("to", to.Format(time.DateOnly))
	var out Revenue
	if err := c.getData(ctx, "/api/v1/reports/revenue?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BookingClient) action(ctx context.Context, id int64, action string) (*model.Booking, error) {
	resp, err := c.httpClient.request(ctx, http.MethodPost, bookingPath(id, action), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp)
}

func (c *BookingClient) getData(ctx context.Context, path string, target any) error {
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return err
	}
	return resp.DecodeData(target)
}

func bookingPath(id int64, action string) string {
	path := "/api/v1/bookings/" + strconv.FormatInt(id, 10)
	if action != "" {
		path += "/" + action
	}
	return path
}

func decodeBooking(resp *Response) (*model.Booking, error) {
	var booking model.Booking
	if err := resp.DecodeData(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}
