package consumption

// Config holds model coefficients.
// Units:
//   - PIdle/PMax: Watts
//   - Gamma: dimensionless (CPU nonlinearity)
//   - Alpha: fraction of idle power charged to a workload [0..1]
type Config struct {
	PIdle float64
	PMax  float64
	Gamma float64
	Alpha float64
}

// _defaultConfig returns a Config pre-filled with the reference laptop
// coefficients.
func _defaultConfig() *Config {
	return &Config{
		PIdle: 5.0,  // W at idle
		PMax:  20.0, // W at full utilization
		Gamma: 1.3,  // CPU curve exponent
		Alpha: 0.0,  // fraction of idle to distribute
	}
}

// Sample is one finished workload as seen by the executor.
type Sample struct {
	WallSec float64
	CPUSec  float64
	NumCPU  int
}

// Result is the power breakdown for one sample.
type Result struct {
	U          float64 // utilization in [0,1]
	PCPU       float64 // W
	PIdleShare float64 // W
	PTotal     float64 // W
	EnergyJ    float64 // J over the sample's wall time
}
