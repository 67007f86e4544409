package dx7

// Operator holds the parameters of one operator.
type Operator struct {
	Rates          [4]int `json:"eg_rates"`
	Levels         [4]int `json:"eg_levels"`
	BreakPoint     int    `json:"break_point"`
	LeftDepth      int    `json:"left_depth"`
	RightDepth     int    `json:"right_depth"`
	RightCurve     int    `json:"right_curve"`
	LeftCurve      int    `json:"left_curve"`
	RateScaling    int    `json:"rate_scaling"`
	VelocitySens   int    `json:"velocity_sens"`
	AmpModSens     int    `json:"amp_mod_sens"`
	OutputLevel    int    `json:"output_level"`
	FixedFrequency bool   `json:"fixed_frequency"`
	Coarse         int    `json:"coarse"`
	Fine           int    `json:"fine"`
	Detune         int    `json:"detune"`
}

// LFO holds the voice LFO settings.
type LFO struct {
	Speed    int  `json:"speed"`
	Delay    int  `json:"delay"`
	PitchMod int  `json:"pitch_mod_depth"`
	AmpMod   int  `json:"amp_mod_depth"`
	KeySync  bool `json:"key_sync"`
	Waveform int  `json:"waveform"`
}

// Patch is a named view of Params.
type Patch struct {
	Name string `json:"name"`

	// Operators in transmission order: OP6 first.
	Operators [numOps]Operator `json:"operators"`

	PitchRates  [4]int `json:"pitch_eg_rates"`
	PitchLevels [4]int `json:"pitch_eg_levels"`

	Algorithm      int  `json:"algorithm"` // 0-based
	Feedback       int  `json:"feedback"`
	OscKeySync     bool `json:"osc_key_sync"`
	LFO            LFO  `json:"lfo"`
	PitchModSens   int  `json:"pitch_mod_sens"`
	Transpose      int  `json:"transpose"` // 24 = C3
	OperatorEnable int  `json:"operator_enable"`
}

// Patch returns the named view of the parameters.
func (p *Params) Patch() *Patch {
	pt := new(Patch)
	for op := range pt.Operators {
		s := p[op*unpackedOpSize:]
		o := &pt.Operators[op]
		copy(o.Rates[:], s[0:4])
		copy(o.Levels[:], s[4:8])
		o.BreakPoint = s[8]
		o.LeftDepth = s[9]
		o.RightDepth = s[10]
		o.RightCurve = s[11]
		o.LeftCurve = s[12]
		o.RateScaling = s[13]
		o.VelocitySens = s[14]
		o.AmpModSens = s[15]
		o.OutputLevel = s[16]
		o.FixedFrequency = s[17] != 0
		o.Coarse = s[18]
		o.Fine = s[19]
		o.Detune = s[20]
	}
	copy(pt.PitchRates[:], p[126:130])
	copy(pt.PitchLevels[:], p[130:134])
	pt.Algorithm = p[134]
	pt.Feedback = p[135]
	pt.OscKeySync = p[136] != 0
	pt.LFO = LFO{
		Speed:    p[137],
		Delay:    p[138],
		PitchMod: p[139],
		AmpMod:   p[140],
		KeySync:  p[141] != 0,
		Waveform: p[142],
	}
	pt.PitchModSens = p[143]
	pt.Transpose = p[144]
	var name [NameSize]byte
	for i, c := range p.NameBytes() {
		name[i] = byte(c)
	}
	pt.Name = string(name[:])
	pt.OperatorEnable = p[155]
	return pt
}

// Params converts the patch back to parameter slots, clamped.
func (pt *Patch) Params() Params {
	var p Params
	for op := range pt.Operators {
		d := p[op*unpackedOpSize:]
		o := &pt.Operators[op]
		copy(d[0:4], o.Rates[:])
		copy(d[4:8], o.Levels[:])
		d[8] = o.BreakPoint
		d[9] = o.LeftDepth
		d[10] = o.RightDepth
		d[11] = o.RightCurve
		d[12] = o.LeftCurve
		d[13] = o.RateScaling
		d[14] = o.VelocitySens
		d[15] = o.AmpModSens
		d[16] = o.OutputLevel
		d[17] = boolParam(o.FixedFrequency)
		d[18] = o.Coarse
		d[19] = o.Fine
		d[20] = o.Detune
	}
	copy(p[126:130], pt.PitchRates[:])
	copy(p[130:134], pt.PitchLevels[:])
	p[134] = pt.Algorithm
	p[135] = pt.Feedback
	p[136] = boolParam(pt.OscKeySync)
	p[137] = pt.LFO.Speed
	p[138] = pt.LFO.Delay
	p[139] = pt.LFO.PitchMod
	p[140] = pt.LFO.AmpMod
	p[141] = boolParam(pt.LFO.KeySync)
	p[142] = pt.LFO.Waveform
	p[143] = pt.PitchModSens
	p[144] = pt.Transpose
	for i := 0; i < NameSize; i++ {
		c := ' '
		if i < len(pt.Name) {
			c = rune(pt.Name[i])
		}
		p[FeatureCount+i] = int(c)
	}
	p[155] = pt.OperatorEnable
	p.Clamp()
	return p
}

func boolParam(b bool) int {
	if b {
		return 1
	}
	return 0
}
