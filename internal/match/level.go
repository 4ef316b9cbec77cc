package match

// Level is the relaxation state of the selector. Levels form a total order:
// the selector walks them from Exact down and stops at the first level with
// any candidate passing that level's hard gates.
type Level int

const (
	LevelExact Level = iota
	LevelRelaxEnzyme
	LevelRelaxOrganism
	LevelRelaxTempPH
	LevelECOnly
	LevelNoMatch
)

var levelNames = [...]string{
	"exact",
	"relax_enzyme",
	"relax_organism",
	"relax_temp_ph",
	"ec_only",
	"no_match",
}

func (l Level) String() string {
	if l < LevelExact || l > LevelNoMatch {
		return "invalid"
	}
	return levelNames[l]
}

// gates describes which dimensions are hard requirements at a level and
// whether temperature still contributes a soft penalty. Enzyme, organism,
// substrate and pH act as gates; once the pH gate is relaxed its graded
// penalty still counts toward the score. Temperature never gates a level
// (an out-of-range measurement degrades the score or triggers a
// correction, never a rejection), and variant is always soft.
type gates struct {
	enzyme, organism, substrate, ph bool

	tempScored bool // temperature penalty applied
}

var levelGates = map[Level]gates{
	LevelExact:         {enzyme: true, organism: true, substrate: true, ph: true, tempScored: true},
	LevelRelaxEnzyme:   {organism: true, substrate: true, ph: true, tempScored: true},
	LevelRelaxOrganism: {substrate: true, ph: true, tempScored: true},
	LevelRelaxTempPH:   {enzyme: true, organism: true, substrate: true},
	LevelECOnly:        {},
}

// searchOrder is the relaxation sequence the selector walks.
var searchOrder = [...]Level{
	LevelExact,
	LevelRelaxEnzyme,
	LevelRelaxOrganism,
	LevelRelaxTempPH,
	LevelECOnly,
}
