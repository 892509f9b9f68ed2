package sweep

// SquareGrid lists the values swept for square inputs and filters.
// Every combination is visited, with the invalid ones skipped.
type SquareGrid struct {
	BatchSizes     []int `yaml:"batch_sizes" json:"batch_sizes"`
	InputSizes     []int `yaml:"input_sizes" json:"input_sizes"`
	FilterSizes    []int `yaml:"filter_sizes" json:"filter_sizes"`
	InputChannels  []int `yaml:"input_channels" json:"input_channels"`
	OutputChannels []int `yaml:"output_channels" json:"output_channels"`
	Strides        []int `yaml:"strides" json:"strides"`
	Paddings       []int `yaml:"paddings" json:"paddings"`
}

// DefaultSquareGrid returns the full square grid.
func DefaultSquareGrid() SquareGrid {
	return SquareGrid{
		BatchSizes:     []int{1, 32},
		InputSizes:     []int{7, 14, 54},
		FilterSizes:    []int{1, 3, 5},
		InputChannels:  []int{3, 64},
		OutputChannels: []int{3, 64},
		Strides:        []int{1, 2},
		Paddings:       []int{0, 1},
	}
}

// ReducedSquareGrid keeps every skip rule and kernel path of the default
// grid reachable with far fewer and smaller cases.
func ReducedSquareGrid() SquareGrid {
	return SquareGrid{
		BatchSizes:     []int{1, 2},
		InputSizes:     []int{7, 14},
		FilterSizes:    []int{1, 3, 5},
		InputChannels:  []int{3, 6},
		OutputChannels: []int{3, 6},
		Strides:        []int{1, 2},
		Paddings:       []int{0, 1},
	}
}

// RectGrid lists the values swept for inputs and filters whose height and
// width differ.
type RectGrid struct {
	BatchSizes     []int `yaml:"batch_sizes" json:"batch_sizes"`
	InputHeights   []int `yaml:"input_heights" json:"input_heights"`
	InputWidths    []int `yaml:"input_widths" json:"input_widths"`
	FilterHeights  []int `yaml:"filter_heights" json:"filter_heights"`
	FilterWidths   []int `yaml:"filter_widths" json:"filter_widths"`
	InputChannels  []int `yaml:"input_channels" json:"input_channels"`
	OutputChannels []int `yaml:"output_channels" json:"output_channels"`
	Strides        []int `yaml:"strides" json:"strides"`
	Paddings       []int `yaml:"paddings" json:"paddings"`
}

// DefaultRectGrid returns the full rectangular grid.
func DefaultRectGrid() RectGrid {
	return RectGrid{
		BatchSizes:     []int{16},
		InputHeights:   []int{7, 31},
		InputWidths:    []int{10, 54},
		FilterHeights:  []int{1, 5},
		FilterWidths:   []int{3, 7},
		InputChannels:  []int{7},
		OutputChannels: []int{7},
		Strides:        []int{1},
		Paddings:       []int{0},
	}
}

// ReducedRectGrid is the rectangular counterpart of ReducedSquareGrid.
func ReducedRectGrid() RectGrid {
	return RectGrid{
		BatchSizes:     []int{2},
		InputHeights:   []int{7, 11},
		InputWidths:    []int{10, 13},
		FilterHeights:  []int{1, 5},
		FilterWidths:   []int{3, 7},
		InputChannels:  []int{7},
		OutputChannels: []int{7},
		Strides:        []int{1},
		Paddings:       []int{0},
	}
}
