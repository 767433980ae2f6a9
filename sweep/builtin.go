package sweep

// Statistic keys printed by the simulator.
const (
	MetricWriteBackTraffic    = "B_written_cache_to_bus_wb"
	MetricWriteThroughTraffic = "B_written_cache_to_bus_wt"
	MetricMissRate            = "miss_rate"
)

// Exp2 sweeps capacity for three associativities and reports write-back bus
// traffic.
func Exp2() *Experiment {
	return &Experiment{
		Name:        "exp2",
		Description: "bus write traffic vs cache size for write-back caches",
		Figure:      "graph2.png",
		Title:       "Graph #2: Bus Write Traffic vs Cache Size for Write-Back Caches",
		XLabel:      "Capacity (Bytes)",
		YLabel:      "Traffic (Bytes)",
		Protocol:    ProtocolNone,
		Series:      []Axis{AxisAssoc},
		X:           AxisCapacity,
		Dimensions: map[Axis][]int{
			AxisAssoc:     {1, 2, 4},
			AxisBlockSize: {6},
			AxisCapacity:  Range(11, 20),
			AxisCores:     {1},
		},
		Metrics:      []Metric{{Key: MetricWriteBackTraffic, Label: "WB traffic"}},
		LegendFormat: "assoc %d",
		XScale:       ScaleLog2,
		YScale:       ScaleLog2,
	}
}

// Exp3 sweeps block size at a fixed 64KB 4-way cache and compares write-back
// and write-through traffic.
func Exp3() *Experiment {
	return &Experiment{
		Name:        "exp3",
		Description: "write-back vs write-through traffic vs block size",
		Figure:      "graph3.png",
		Title:       "Graph #3: Traffic in Bytes vs Block Size",
		XLabel:      "Block Size (Bytes)",
		YLabel:      "Traffic (Bytes)",
		Protocol:    ProtocolNone,
		Series:      []Axis{AxisAssoc},
		X:           AxisBlockSize,
		Dimensions: map[Axis][]int{
			AxisAssoc:     {4},
			AxisBlockSize: Range(1, 13),
			AxisCapacity:  {16},
			AxisCores:     {1},
		},
		Metrics: []Metric{
			{Key: MetricWriteBackTraffic, Label: "WB traffic"},
			{Key: MetricWriteThroughTraffic, Label: "WT traffic"},
		},
		XScale: ScaleLog2,
		YScale: ScaleLog2,
	}
}

// Exp4 sweeps block size (4B to 16KB) for one, two and four cores under the
// VI protocol and reports the miss rate.
func Exp4() *Experiment {
	return &Experiment{
		Name:        "exp4",
		Description: "miss rate vs block size for 1, 2 and 4 cores (VI)",
		Figure:      "graph4.png",
		Title:       "Graph #4: Miss Rate vs Block Size",
		XLabel:      "Block Size",
		YLabel:      "Miss Rate",
		Protocol:    ProtocolVI,
		Series:      []Axis{AxisCores},
		X:           AxisBlockSize,
		Dimensions: map[Axis][]int{
			AxisAssoc:     {4},
			AxisBlockSize: Range(2, 14),
			AxisCapacity:  {16},
			AxisCores:     {1, 2, 4},
		},
		Metrics:      []Metric{{Key: MetricMissRate, Label: "miss rate", Scale: 0.01}},
		LegendFormat: "core %d",
		XScale:       ScaleLog2,
		YScale:       ScaleLinear,
	}
}

// Builtin returns fresh copies of the built-in experiments keyed by name.
func Builtin() map[string]*Experiment {
	exps := map[string]*Experiment{}
	for _, e := range []*Experiment{Exp2(), Exp3(), Exp4()} {
		exps[e.Name] = e
	}
	return exps
}
