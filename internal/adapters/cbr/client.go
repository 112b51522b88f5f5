package cbr

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cbrrates/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"
)

const requestDateLayout = "02/01/2006"

// Client reads the daily rates snapshot (XML_daily.asp) of the Central Bank of Russia.
type Client struct {
	http    *http.Client
	baseURL string
}

type valCurs struct {
	XMLName xml.Name `xml:"ValCurs"`
	Date    string   `xml:"Date,attr"`
	Valutes []valute `xml:"Valute"`
}

type valute struct {
	ID       string `xml:"ID,attr"`
	NumCode  string `xml:"NumCode"`
	CharCode string `xml:"CharCode"`
	Nominal  string `xml:"Nominal"`
	Name     string `xml:"Name"`
	Value    string `xml:"Value"`
	// VunitRate is ignored: the unit rate is always derived from Value and Nominal.
	VunitRate string `xml:"VunitRate"`
}

// Fetch returns the rate table published for date. On failure the table is empty and
// the error is a *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, date time.Time) (domain.RateTable, error) {
	date = domain.Day(date)
	empty := domain.RateTable{Date: date}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return empty, fetchErr(date, domain.FetchNetwork, fmt.Errorf("failed to parse base URL: %w", err))
	}
	q := u.Query()
	q.Set("date_req", date.Format(requestDateLayout))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return empty, fetchErr(date, domain.FetchNetwork, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return empty, fetchErr(date, domain.FetchNetwork, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return empty, fetchErr(date, domain.FetchStatus, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, resp.Status))
	}

	var body valCurs
	dec := xml.NewDecoder(resp.Body)
	dec.CharsetReader = charset.NewReaderLabel
	if err = dec.Decode(&body); err != nil {
		return empty, fetchErr(date, domain.FetchDecode, fmt.Errorf("failed to decode response: %w", err))
	}

	records, err := toRecords(date, body.Valutes)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			return empty, fetchErr(date, domain.FetchNoData, err)
		}
		return empty, fetchErr(date, domain.FetchTransform, err)
	}
	return domain.RateTable{Date: date, Records: records}, nil
}

// toRecords converts provider entries into canonical records; a single bad entry fails the whole day.
func toRecords(date time.Time, valutes []valute) ([]domain.RateRecord, error) {
	if len(valutes) == 0 {
		return nil, domain.ErrNoData
	}

	records := make([]domain.RateRecord, 0, len(valutes))
	for _, v := range valutes {
		code := strings.TrimSpace(v.CharCode)
		if code == "" {
			return nil, fmt.Errorf("entry %q has no currency code", v.ID)
		}

		nominal, err := strconv.Atoi(strings.TrimSpace(v.Nominal))
		if err != nil {
			return nil, fmt.Errorf("invalid nominal %q for %s: %w", v.Nominal, code, err)
		}

		faceValue, err := ParseValue(v.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s: %w", v.Value, code, err)
		}

		rec, err := domain.NewRateRecord(date, code, strings.TrimSpace(v.Name), nominal, faceValue)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseValue parses a provider number that uses a comma as decimal separator ("90,50").
func ParseValue(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return decimal.Decimal{}, errors.New("empty value")
	}
	return decimal.NewFromString(s)
}

func fetchErr(date time.Time, kind domain.FetchErrorKind, err error) *domain.FetchError {
	return &domain.FetchError{Date: date, Kind: kind, Err: err}
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: baseURL}
}
