package observability

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Metrics tracks ledger operation outcomes. Exposition is plain Prometheus
// text over the service's /metrics route.
type Metrics struct {
	deposits        *CounterVec
	withdrawals     *CounterVec
	packsCreated    *Counter
	rebalances      *Counter
	pauses          *CounterVec
	depositVolume   *Counter
	priceDeviations *CounterVec
	opErrors        *CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		deposits:        NewCounterVec("pv_deposits_total", "Deposits by status.", []string{"status"}),
		withdrawals:     NewCounterVec("pv_withdrawals_total", "Withdrawals by status.", []string{"status"}),
		packsCreated:    NewCounter("pv_packs_created_total", "Packs created."),
		rebalances:      NewCounter("pv_rebalances_total", "Rebalances applied."),
		pauses:          NewCounterVec("pv_pause_transitions_total", "Pause switch transitions by action.", []string{"action"}),
		depositVolume:   NewCounter("pv_deposit_volume_settlement_total", "Cumulative deposited settlement volume."),
		priceDeviations: NewCounterVec("pv_price_deviation_total", "Execution prices outside the oracle deviation threshold.", []string{"asset"}),
		opErrors:        NewCounterVec("pv_op_errors_total", "Rejected ledger operations by error kind.", []string{"kind"}),
	}
}

func (m *Metrics) IncDeposit(status string) {
	if m == nil {
		return
	}
	m.deposits.Inc(status)
}

func (m *Metrics) IncWithdrawal(status string) {
	if m == nil {
		return
	}
	m.withdrawals.Inc(status)
}

func (m *Metrics) IncPackCreated() {
	if m == nil {
		return
	}
	m.packsCreated.Inc()
}

func (m *Metrics) IncRebalance() {
	if m == nil {
		return
	}
	m.rebalances.Inc()
}

func (m *Metrics) IncPause(action string) {
	if m == nil {
		return
	}
	m.pauses.Inc(action)
}

func (m *Metrics) AddDepositVolume(amount float64) {
	if m == nil {
		return
	}
	m.depositVolume.Add(amount)
}

func (m *Metrics) IncPriceDeviation(asset string) {
	if m == nil {
		return
	}
	m.priceDeviations.Inc(asset)
}

func (m *Metrics) IncOpError(kind string) {
	if m == nil {
		return
	}
	m.opErrors.Inc(kind)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.deposits,
		m.withdrawals,
		m.packsCreated,
		m.rebalances,
		m.pauses,
		m.depositVolume,
		m.priceDeviations,
		m.opErrors,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	lbl := labelString(c.labelNames, values)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[lbl]
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, c.values[k]); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, 0, len(names))
	for i, name := range names {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
