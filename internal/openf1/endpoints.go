package openf1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Query timestamps are sent without a zone; the API treats them as UTC.
const carDataTimeLayout = "2006-01-02T15:04:05.000"

// Session is one timed session of a race weekend as the API reports it.
type Session struct {
	SessionKey       int       `json:"session_key"`
	MeetingKey       int       `json:"meeting_key"`
	SessionName      string    `json:"session_name"`
	Location         string    `json:"location"`
	CountryName      string    `json:"country_name"`
	CircuitShortName string    `json:"circuit_short_name"`
	Year             int       `json:"year"`
	DateStart        time.Time `json:"date_start"`
	DateEnd          time.Time `json:"date_end"`
}

// Sessions lists a season's sessions with the given name, e.g. "Qualifying".
func (c *Client) Sessions(ctx context.Context, year int, sessionName string) ([]Session, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(year))
	params.Set("session_name", sessionName)

	body, err := c.get(ctx, "/sessions", params)
	if err != nil {
		return nil, err
	}

	var sessions []Session
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal sessions: %w", err)
	}
	return sessions, nil
}

// Driver is a session roster entry.
type Driver struct {
	DriverNumber int    `json:"driver_number"`
	NameAcronym  string `json:"name_acronym"`
	FullName     string `json:"full_name"`
	TeamName     string `json:"team_name"`
}

// Drivers lists the roster for a session.
func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]Driver, error) {
	params := url.Values{}
	params.Set("session_key", strconv.Itoa(sessionKey))

	body, err := c.get(ctx, "/drivers", params)
	if err != nil {
		return nil, err
	}

	var drivers []Driver
	if err := json.Unmarshal(body, &drivers); err != nil {
		return nil, fmt.Errorf("unmarshal drivers: %w", err)
	}
	return drivers, nil
}

// Lap is one lap of a session. Duration and start time are null for laps
// the timing system never completed, so both are pointers.
type Lap struct {
	LapNumber   int        `json:"lap_number"`
	LapDuration *float64   `json:"lap_duration"` // seconds
	DateStart   *time.Time `json:"date_start"`
}

// Laps lists a driver's laps in a session.
func (c *Client) Laps(ctx context.Context, sessionKey, driverNumber int) ([]Lap, error) {
	params := url.Values{}
	params.Set("session_key", strconv.Itoa(sessionKey))
	params.Set("driver_number", strconv.Itoa(driverNumber))

	body, err := c.get(ctx, "/laps", params)
	if err != nil {
		return nil, err
	}

	var laps []Lap
	if err := json.Unmarshal(body, &laps); err != nil {
		return nil, fmt.Errorf("unmarshal laps: %w", err)
	}
	return laps, nil
}

// CarSample is a raw car telemetry point. Speed is km/h, throttle and
// brake are percentages, and drs is the API's coded DRS status.
type CarSample struct {
	Date     time.Time `json:"date"`
	Speed    float64   `json:"speed"`
	Throttle float64   `json:"throttle"`
	Brake    float64   `json:"brake"`
	NGear    int       `json:"n_gear"`
	RPM      float64   `json:"rpm"`
	DRS      int       `json:"drs"`
}

// CarData lists a driver's car telemetry between two instants.
func (c *Client) CarData(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]CarSample, error) {
	params := url.Values{}
	params.Set("session_key", strconv.Itoa(sessionKey))
	params.Set("driver_number", strconv.Itoa(driverNumber))
	params.Set("date>=", from.UTC().Format(carDataTimeLayout))
	params.Set("date<=", to.UTC().Format(carDataTimeLayout))

	body, err := c.get(ctx, "/car_data", params)
	if err != nil {
		return nil, err
	}

	var samples []CarSample
	if err := json.Unmarshal(body, &samples); err != nil {
		return nil, fmt.Errorf("unmarshal car data: %w", err)
	}
	return samples, nil
}
