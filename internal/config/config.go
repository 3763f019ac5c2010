package config

import "time"

// Config is the root configuration for Reflex.
type Config struct {
	TickInterval Duration        `json:"tick_interval"` // controller tick period
	PauseWarn    Duration        `json:"pause_warn"`    // log a warning after a mode stays paused this long
	World        WorldConfig     `json:"world"`
	Gateway      GatewayConfig   `json:"gateway"`
	Events       EventsConfig    `json:"events"`
	Journal      JournalConfig   `json:"journal"`
	EventLog     EventLogConfig  `json:"event_log"`
	Heartbeat    HeartbeatConfig `json:"heartbeat"`
	Modes        ModesConfig     `json:"modes"`
}

// WorldConfig configures the simulated world the daemon runs against.
type WorldConfig struct {
	Scenario     string   `json:"scenario"`      // scenario YAML path (default: $REFLEX_PATH/scenario.yaml)
	StepInterval Duration `json:"step_interval"` // world physics step period
	Seed         uint64   `json:"seed"`          // 0 = time-seeded
	Speed        float64  `json:"speed"`         // agent movement speed, blocks per second
}

// GatewayConfig holds the gateway server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int    `json:"buffer_size"`
	LogLevel   string `json:"log_level"` // debug, info, warn, error
}

// JournalConfig configures the action outcome journal.
type JournalConfig struct {
	Path string `json:"path"` // sqlite file (default: $REFLEX_PATH/reflex.db)
}

// EventLogConfig configures the on-disk event log.
type EventLogConfig struct {
	Path      string `json:"path"`        // JSONL file (default: $REFLEX_PATH/events.jsonl)
	MaxSizeMB int    `json:"max_size_mb"` // rotate when the file grows past this
}

// HeartbeatConfig configures the daemon liveness file.
type HeartbeatConfig struct {
	Path     string   `json:"path"` // default: $REFLEX_PATH/heartbeat.json
	Interval Duration `json:"interval"`
}

// ModesConfig tunes the built-in behavior modes. The Enabled map overrides
// each mode's default enablement by name; unknown names are rejected when the
// registry is built.
type ModesConfig struct {
	Enabled map[string]bool `json:"enabled,omitempty"`

	SelfPreservation SelfPreservationConfig `json:"self_preservation"`
	Unstuck          UnstuckConfig          `json:"unstuck"`
	Cowardice        CowardiceConfig        `json:"cowardice"`
	SelfDefense      SelfDefenseConfig      `json:"self_defense"`
	Hunting          HuntingConfig          `json:"hunting"`
	ItemCollecting   ItemCollectingConfig   `json:"item_collecting"`
	TorchPlacing     TorchPlacingConfig     `json:"torch_placing"`
	IdleStaring      IdleStaringConfig      `json:"idle_staring"`
}

// SelfPreservationConfig tunes hazard escape.
type SelfPreservationConfig struct {
	HazardKinds []string `json:"hazard_kinds,omitempty"`
	Radius      float64  `json:"radius,omitempty"`
	EscapeDist  float64  `json:"escape_dist,omitempty"`
	Timeout     Duration `json:"timeout,omitempty"`
}

// UnstuckConfig tunes stall detection.
type UnstuckConfig struct {
	Epsilon float64  `json:"epsilon,omitempty"`
	Window  Duration `json:"window,omitempty"`
	Timeout Duration `json:"timeout,omitempty"`
}

// CowardiceConfig tunes fleeing.
type CowardiceConfig struct {
	Patterns  []string `json:"patterns,omitempty"`
	Radius    float64  `json:"radius,omitempty"`
	MinHealth float64  `json:"min_health,omitempty"`
	Timeout   Duration `json:"timeout,omitempty"`
}

// SelfDefenseConfig tunes fighting back.
type SelfDefenseConfig struct {
	Patterns []string `json:"patterns,omitempty"`
	Radius   float64  `json:"radius,omitempty"`
	Timeout  Duration `json:"timeout,omitempty"`
}

// HuntingConfig tunes idle hunting.
type HuntingConfig struct {
	Patterns []string `json:"patterns,omitempty"`
	Radius   float64  `json:"radius,omitempty"`
	Timeout  Duration `json:"timeout,omitempty"`
}

// ItemCollectingConfig tunes idle item pickup.
type ItemCollectingConfig struct {
	Patterns []string `json:"patterns,omitempty"`
	Radius   float64  `json:"radius,omitempty"`
	Dwell    Duration `json:"dwell,omitempty"`
	Timeout  Duration `json:"timeout,omitempty"`
}

// TorchPlacingConfig tunes area lighting.
type TorchPlacingConfig struct {
	Radius   float64  `json:"radius,omitempty"`
	Interval Duration `json:"interval,omitempty"`
	Timeout  Duration `json:"timeout,omitempty"`
}

// IdleStaringConfig tunes the cosmetic gaze mode.
type IdleStaringConfig struct {
	Radius       float64  `json:"radius,omitempty"`
	SwitchChance float64  `json:"switch_chance,omitempty"`
	MinDwell     Duration `json:"min_dwell,omitempty"`
	MaxDwell     Duration `json:"max_dwell,omitempty"`
	Seed         uint64   `json:"seed,omitempty"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
