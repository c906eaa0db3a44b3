package domain

// SimulationSettings is the immutable configuration bundle sent with
// every simulation submission. Field names and JSON tags match the
// remote service's settings object; values are passed through
// unchanged and validated only by the service itself.
type SimulationSettings struct {
	InstrumentType string  `json:"instrumentType" yaml:"instrument_type"`
	Region         string  `json:"region" yaml:"region"`
	Universe       string  `json:"universe" yaml:"universe"`
	Delay          int     `json:"delay" yaml:"delay"`
	Decay          int     `json:"decay" yaml:"decay"`
	Neutralization string  `json:"neutralization" yaml:"neutralization"`
	Truncation     float64 `json:"truncation" yaml:"truncation"`
	Pasteurization string  `json:"pasteurization" yaml:"pasteurization"`
	UnitHandling   string  `json:"unitHandling" yaml:"unit_handling"`
	NanHandling    string  `json:"nanHandling" yaml:"nan_handling"`
	MaxTrade       string  `json:"maxTrade" yaml:"max_trade"`
	Language       string  `json:"language" yaml:"language"`
	Visualization  bool    `json:"visualization" yaml:"visualization"`
	TestPeriod     string  `json:"testPeriod,omitempty" yaml:"test_period"`
}

// DefaultSettings returns the service defaults for US equities.
func DefaultSettings() SimulationSettings {
	return SimulationSettings{
		InstrumentType: "EQUITY",
		Region:         "USA",
		Universe:       "TOP3000",
		Delay:          1,
		Decay:          0,
		Neutralization: "SUBINDUSTRY",
		Truncation:     0.08,
		Pasteurization: "ON",
		UnitHandling:   "VERIFY",
		NanHandling:    "OFF",
		MaxTrade:       "OFF",
		Language:       "FASTEXPR",
		Visualization:  false,
		TestPeriod:     "P5Y0M0D",
	}
}
