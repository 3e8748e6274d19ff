package sensors

import (
	"math/rand"

	"lowpower-go/errcode"
	"lowpower-go/types"
	"lowpower-go/x/mathx"
	"lowpower-go/x/timex"
)

// Sim produces a slowly drifting temperature and humidity walk.
type Sim struct {
	rnd    *rand.Rand
	deciC  int16
	rhx100 uint16
	begun  bool
}

func NewSim(seed int64) *Sim {
	return &Sim{rnd: rand.New(rand.NewSource(seed)), deciC: 215, rhx100: 4500}
}

func (s *Sim) Begin() error {
	s.begun = true
	return nil
}

func (s *Sim) Finish() (types.EnvReading, error) {
	if !s.begun {
		return types.EnvReading{}, &errcode.E{C: errcode.NotReady, Op: "sim", Msg: "finish without begin"}
	}
	s.begun = false
	s.deciC = mathx.Clamp(s.deciC+int16(s.rnd.Intn(5)-2), -400, 850)
	s.rhx100 = uint16(mathx.Clamp(int(s.rhx100)+s.rnd.Intn(41)-20, 0, 10000))
	return types.EnvReading{Sensor: "sim", DeciC: s.deciC, RHx100: s.rhx100, TsMs: timex.NowMs()}, nil
}
