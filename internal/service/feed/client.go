package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"StructScan/internal/domain/models"
	drepo "StructScan/internal/domain/repository"
	xhttp "StructScan/pkg/http"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by a WebSocket bar feed.
// The upstream pushes completed OHLC bars per subscribed symbol; the
// same provider serves recent history over REST for backfill.
type Client struct {
	apiKey         string
	websocketURL   string
	restURL        string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	backfillBars   int

	rest      *xhttp.Client
	conn      *websocket.Conn
	connected bool
}

// New creates a new WebSocket MarketStream.
func New(apiKey, websocketURL, restURL string, symbols []string, reconnectDelay, pingInterval time.Duration, backfillBars int) drepo.MarketStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		restURL:        restURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		backfillBars:   backfillBars,
		rest:           xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("feed: connected")
	return nil
}

// Subscribe subscribes to configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("feed not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		log.Printf("feed: subscribed %s", s)
	}
	return nil
}

type wsBar struct {
	S string  `json:"s"`
	T int64   `json:"t"` // ms
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type wsMessage struct {
	Type string  `json:"type"`
	Data []wsBar `json:"data"`
}

// Read streams Bar events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Bar, <-chan error) {
	bars := make(chan *models.Bar, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(bars)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("feed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("feed read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-bar frames
					continue
				}
				if m.Type != "bar" {
					continue
				}
				for _, d := range m.Data {
					bar := &models.Bar{
						Symbol:    d.S,
						Timestamp: time.Unix(d.T/1000, 0),
						Open:      d.O,
						High:      d.H,
						Low:       d.L,
						Close:     d.C,
						Volume:    d.V,
					}
					select {
					case bars <- bar:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return bars, errs
}

// restCandles is the provider's columnar candle response. Status is
// "ok" or "no_data".
type restCandles struct {
	Status string    `json:"s"`
	Times  []int64   `json:"t"`
	Opens  []float64 `json:"o"`
	Highs  []float64 `json:"h"`
	Lows   []float64 `json:"l"`
	Closes []float64 `json:"c"`
	Vols   []float64 `json:"v"`
}

// Backfill fetches the most recent bars for every configured symbol
// over REST, ordered ascending per symbol. Returns nil when no REST
// endpoint is configured.
func (c *Client) Backfill(ctx context.Context) ([]*models.Bar, error) {
	if c.restURL == "" || c.backfillBars <= 0 {
		return nil, nil
	}

	var out []*models.Bar
	now := time.Now()
	from := now.Add(-time.Duration(c.backfillBars) * time.Minute)

	for _, s := range c.symbols {
		var res restCandles
		err := c.rest.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    c.restURL + "/candle",
			QueryParams: map[string][]string{
				"symbol":     {s},
				"resolution": {"1"},
				"from":       {fmt.Sprintf("%d", from.Unix())},
				"to":         {fmt.Sprintf("%d", now.Unix())},
				"token":      {c.apiKey},
			},
		}, &res)
		if err != nil {
			return nil, fmt.Errorf("backfill %s: %w", s, err)
		}
		if res.Status != "ok" {
			continue
		}
		for i := range res.Times {
			out = append(out, &models.Bar{
				Symbol:    s,
				Timestamp: time.Unix(res.Times[i], 0),
				Open:      res.Opens[i],
				High:      res.Highs[i],
				Low:       res.Lows[i],
				Close:     res.Closes[i],
				Volume:    res.Vols[i],
			})
		}
		log.Printf("feed: backfilled %d bars for %s", len(res.Times), s)
	}
	return out, nil
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
