package config

// ControlPolicy declares the off-path thresholds the FMEA/watchdog
// subsystems run against: thermal and current limits, the windows
// used to detect USB stalls and timing violations, the soft-stop ramp
// duration, and the default per-plugin execution budget. It is loaded
// and reloaded the same way as the filter pipeline configuration, and
// validated with the same reject-don't-clamp policy.
type ControlPolicy struct {
	ThermalLimitC         float32 `yaml:"thermal_limit_c" json:"thermalLimitC"`
	OvercurrentA          float32 `yaml:"overcurrent_a" json:"overcurrentA"`
	UsbStallWindowMs      int     `yaml:"usb_stall_window_ms" json:"usbStallWindowMs"`
	UsbStallCount         uint32  `yaml:"usb_stall_count" json:"usbStallCount"`
	DeadlineMissWindowMs  int     `yaml:"deadline_miss_window_ms" json:"deadlineMissWindowMs"`
	DeadlineMissThreshold uint32  `yaml:"deadline_miss_threshold" json:"deadlineMissThreshold"`
	SoftStopDurationMs    int     `yaml:"soft_stop_duration_ms" json:"softStopDurationMs"`
	PluginBudgetUS        uint64  `yaml:"plugin_budget_us" json:"pluginBudgetUS"`
}

// DefaultControlPolicy returns the factory-default policy.
func DefaultControlPolicy() ControlPolicy {
	return ControlPolicy{
		ThermalLimitC:         85.0,
		OvercurrentA:          15.0,
		UsbStallWindowMs:      50,
		UsbStallCount:         3,
		DeadlineMissWindowMs:  1000,
		DeadlineMissThreshold: 10,
		SoftStopDurationMs:    75,
		PluginBudgetUS:        200,
	}
}

// Validate rejects nonsensical policy values rather than clamping them.
func (p *ControlPolicy) Validate() error {
	if p.ThermalLimitC <= 0 {
		return configErr("thermal_limit_c", "must be positive")
	}
	if p.OvercurrentA <= 0 {
		return configErr("overcurrent_a", "must be positive")
	}
	if p.UsbStallCount == 0 {
		return configErr("usb_stall_count", "must be >= 1")
	}
	if p.DeadlineMissThreshold == 0 {
		return configErr("deadline_miss_threshold", "must be >= 1")
	}
	if p.SoftStopDurationMs <= 0 {
		return configErr("soft_stop_duration_ms", "must be positive")
	}
	if p.PluginBudgetUS == 0 {
		return configErr("plugin_budget_us", "must be >= 1")
	}
	return nil
}

// ValidationError names the policy field that failed and why.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return "control policy: " + e.Field + ": " + e.Msg
}

func configErr(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
