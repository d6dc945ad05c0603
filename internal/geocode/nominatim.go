// Package geocode ищет города через Nominatim-совместимый HTTP API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"tripplanner/internal/model"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "tripplanner/1.0"

	searchCacheDuration  = 12 * time.Hour
	reverseCacheDuration = 24 * time.Hour
	cacheCleanupInterval = 48 * time.Hour
)

// ErrNotFound возвращается, если по координатам не найдено ни одного места.
var ErrNotFound = errors.New("место не найдено")

// Client - клиент геокодера. Результаты кэшируются в памяти процесса.
type Client struct {
	baseURL    string
	userAgent  string
	language   string
	httpClient *http.Client
	cache      *cache.Cache
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент (например, в тестах).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLanguage задает предпочитаемый язык названий (Accept-Language).
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// NewClient создает клиент геокодера. Пустые baseURL и userAgent заменяются значениями по умолчанию.
func NewClient(baseURL, userAgent string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: cache.New(searchCacheDuration, cacheCleanupInterval),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
	Country      string `json:"country"`
}

func (p nominatimPlace) toPlace() (model.Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return model.Place{}, fmt.Errorf("некорректная широта %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return model.Place{}, fmt.Errorf("некорректная долгота %q: %w", p.Lon, err)
	}
	return model.Place{
		Name:      p.cityName(),
		Country:   p.Address.Country,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// cityName выбирает наиболее подходящее название населенного пункта.
func (p nominatimPlace) cityName() string {
	for _, name := range []string{p.Address.City, p.Address.Town, p.Address.Village, p.Address.Municipality, p.Name} {
		if name != "" {
			return name
		}
	}
	if i := strings.Index(p.DisplayName, ","); i > 0 {
		return strings.TrimSpace(p.DisplayName[:i])
	}
	return p.DisplayName
}

// Search ищет до maxResults мест по текстовому запросу.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]model.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	key := cacheKey("search", strings.ToLower(query), maxResults, c.language)
	if cached, ok := c.cache.Get(key); ok {
		return append([]model.Place(nil), cached.([]model.Place)...), nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(maxResults))

	var raw []nominatimPlace
	if err := c.get(ctx, "/search", params, &raw); err != nil {
		return nil, err
	}
	places := make([]model.Place, 0, len(raw))
	for _, r := range raw {
		p, err := r.toPlace()
		if err != nil {
			continue
		}
		places = append(places, p)
	}
	c.cache.Set(key, places, searchCacheDuration)
	return append([]model.Place(nil), places...), nil
}

// Reverse определяет место по координатам.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (model.Place, error) {
	// ~100 м точности достаточно для определения города.
	key := cacheKey("reverse", strconv.FormatFloat(lat, 'f', 3, 64), strconv.FormatFloat(lon, 'f', 3, 64), c.language)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(model.Place), nil
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("zoom", "10")

	var raw nominatimPlace
	if err := c.get(ctx, "/reverse", params, &raw); err != nil {
		return model.Place{}, err
	}
	if raw.Error != "" {
		return model.Place{}, ErrNotFound
	}
	p, err := raw.toPlace()
	if err != nil {
		return model.Place{}, err
	}
	c.cache.Set(key, p, reverseCacheDuration)
	return p, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("не удалось сформировать запрос к геокодеру: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка запроса к геокодеру: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("геокодер вернул статус: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("не удалось разобрать ответ геокодера: %w", err)
	}
	return nil
}

func cacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += ":" + fmt.Sprintf("%v", param)
	}
	return key
}
