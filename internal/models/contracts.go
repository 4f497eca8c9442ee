package models

type Insight struct {
	Sentiment string `json:"sentiment"`
	Insight   string `json:"insight"`
}

// TimelineRecord holds the insights produced for one point in time. Datetime
// is a fixed-width ISO-8601 string and is compared as text.
type TimelineRecord struct {
	Datetime string    `json:"datetime"`
	Insights []Insight `json:"insights"`
}

type InsightsResponse struct {
	Count int              `json:"count"`
	Items []TimelineRecord `json:"items"`
}

type OHLCUpstream struct {
	Datetime  *string  `json:"datetime"`
	Timestamp *int64   `json:"timestamp"`
	Ticker    *string  `json:"ticker"`
	Name      *string  `json:"name"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

type OHLCUpstreamResponse struct {
	Count int            `json:"count"`
	Items []OHLCUpstream `json:"items"`
}

type OHLC struct {
	Datetime  *string  `json:"datetime"`
	Timestamp *int64   `json:"timestamp"`
	Ticker    *string  `json:"ticker"`
	Company   *string  `json:"company"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

type OHLCResponse struct {
	Count int    `json:"count"`
	Items []OHLC `json:"items"`
}

type Profile struct {
	Ticker    *string  `json:"ticker"`
	Name      *string  `json:"name"`
	Website   *string  `json:"website"`
	Country   *string  `json:"country"`
	Logo      *string  `json:"logo"`
	Industry  *string  `json:"industry"`
	Exchange  *string  `json:"exchange"`
	Phone     *string  `json:"phone"`
	MarketCap *float64 `json:"market_cap"`
	NumShares *float64 `json:"num_shares"`
}

type Metrics struct {
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

type Mover struct {
	Profile        Profile `json:"profile"`
	CurrentMetrics Metrics `json:"current_metrics"`
	MetricDeltas   Metrics `json:"metric_deltas"`
}

type MoversResponse struct {
	Count int     `json:"count"`
	Items []Mover `json:"items"`
}

type DepStatus struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type HealthResponse struct {
	Ok          bool                 `json:"ok"`
	TsISO       string               `json:"tsISO"`
	Service     string               `json:"service"`
	Version     string               `json:"version"`
	CacheMode   string               `json:"cache_mode"`
	DepsStatus  map[string]DepStatus `json:"deps_status"`
	DataMissing []string             `json:"data_missing"`
	Timeline    int                  `json:"timeline_days"`
	Env         map[string]bool      `json:"env"`
}
