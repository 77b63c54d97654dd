package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dicekv/dicekv/server/internal/config"
	"github.com/dicekv/dicekv/server/internal/store"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert is one fire/resolve cycle of a rule.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Condition  string     `json:"condition"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// Engine evaluates rules against store statistics. Safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	active   map[string]*Alert    // by rule name
	lastFire map[string]time.Time // by rule name
	history  []*Alert

	client *http.Client
	now    func() time.Time
}

// New creates an Engine. With no rules Evaluate does nothing.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Reload swaps rules and webhooks. Firing alerts whose rule disappeared are
// dropped without a resolve notification.
func (e *Engine) Reload(cfg config.AlertsConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = cfg.Rules
	e.webhooks = cfg.Webhooks

	keep := make(map[string]bool, len(cfg.Rules))
	for _, r := range cfg.Rules {
		keep[r.Name] = true
	}
	for name := range e.active {
		if !keep[name] {
			delete(e.active, name)
			delete(e.lastFire, name)
		}
	}
}

// Evaluate tests every rule against s. Rules that start firing (outside
// their cooldown) and firing rules that stop matching are delivered to the
// webhooks asynchronously.
func (e *Engine) Evaluate(s store.Stats) {
	e.mu.Lock()
	now := e.now()
	var notify []Alert
	for _, rule := range e.rules {
		fires, v := evalCondition(rule.Condition, s)
		if a := e.transition(rule, fires, v, now); a != nil {
			notify = append(notify, *a)
		}
	}
	webhooks := e.webhooks
	e.mu.Unlock()

	for i := range notify {
		a := &notify[i]
		if a.State == StateFiring {
			slog.Warn("alert fired", "rule", a.RuleName, "value", a.Value, "severity", a.Severity)
		} else {
			slog.Info("alert resolved", "rule", a.RuleName)
		}
		if len(webhooks) > 0 {
			go e.deliver(webhooks, a)
		}
	}
}

// transition applies one rule result and returns the alert to announce, if
// any. e.mu must be held.
func (e *Engine) transition(rule config.AlertRule, fires bool, v float64, now time.Time) *Alert {
	key := rule.Name
	a, firing := e.active[key]

	if !fires {
		if !firing {
			return nil
		}
		resolved := now
		a.State = StateResolved
		a.ResolvedAt = &resolved
		delete(e.active, key)
		e.history = append(e.history, a)
		if len(e.history) > maxHistoryLen {
			e.history = e.history[len(e.history)-maxHistoryLen:]
		}
		return a
	}

	if firing {
		a.Value = v
		return nil
	}
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if last, ok := e.lastFire[key]; ok && now.Sub(last) < cooldown {
		return nil
	}

	sev := rule.Severity
	if sev == "" {
		sev = "warning"
	}
	a = &Alert{
		ID:        fmt.Sprintf("%s:%d", rule.Name, now.UnixNano()),
		RuleName:  rule.Name,
		Condition: rule.Condition,
		Severity:  sev,
		Value:     v,
		Message:   fmt.Sprintf("[%s] %s: %s (value %.2f)", sev, rule.Name, rule.Condition, v),
		FiredAt:   now,
		State:     StateFiring,
	}
	e.active[key] = a
	e.lastFire[key] = now
	return a
}

// Active returns copies of the firing alerts plus alerts resolved within the
// last hour, newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, len(e.active))
	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}
