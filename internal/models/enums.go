// ABOUTME: Enumerations for swim workout steps: kind, stroke, effort, equipment.
// ABOUTME: Unknown values are kept as-is and render as empty labels.
package models

// StepKind classifies a step within a workout.
type StepKind string

const (
	KindWarmup   StepKind = "warmup"
	KindMain     StepKind = "main"
	KindCooldown StepKind = "cooldown"
	KindRest     StepKind = "rest"
)

// AllStepKinds returns all valid step kinds.
var AllStepKinds = []StepKind{KindWarmup, KindMain, KindCooldown, KindRest}

var stepKindLabels = map[StepKind]string{
	KindWarmup:   "Warm-up",
	KindMain:     "Main set",
	KindCooldown: "Cool-down",
	KindRest:     "Rest",
}

// Label returns the display label, or "" for unknown kinds.
func (k StepKind) Label() string {
	return stepKindLabels[k]
}

// Stroke is the swimming stroke for a step.
type Stroke string

const (
	StrokeFreestyle    Stroke = "freestyle"
	StrokeBackstroke   Stroke = "backstroke"
	StrokeBreaststroke Stroke = "breaststroke"
	StrokeButterfly    Stroke = "butterfly"
	StrokeChoice       Stroke = "choice"
	StrokeIM           Stroke = "im"
	StrokeIMByRound    Stroke = "im_by_round"
	StrokeReverseIM    Stroke = "reverse_im"
	StrokeMixed        Stroke = "mixed"
)

// AllStrokes returns all valid strokes.
var AllStrokes = []Stroke{
	StrokeFreestyle, StrokeBackstroke, StrokeBreaststroke, StrokeButterfly,
	StrokeChoice, StrokeIM, StrokeIMByRound, StrokeReverseIM, StrokeMixed,
}

// StrokeShortCodes maps strokes to the codes used in workout notation.
var StrokeShortCodes = map[Stroke]string{
	StrokeFreestyle:    "Fr",
	StrokeBackstroke:   "Bk",
	StrokeBreaststroke: "Br",
	StrokeButterfly:    "Fly",
	StrokeChoice:       "Ch",
	StrokeIM:           "IM",
	StrokeIMByRound:    "IMr",
	StrokeReverseIM:    "RIM",
	StrokeMixed:        "Mix",
}

var strokeLabels = map[Stroke]string{
	StrokeFreestyle:    "Freestyle",
	StrokeBackstroke:   "Backstroke",
	StrokeBreaststroke: "Breaststroke",
	StrokeButterfly:    "Butterfly",
	StrokeChoice:       "Choice",
	StrokeIM:           "IM",
	StrokeIMByRound:    "IM by round",
	StrokeReverseIM:    "Reverse IM",
	StrokeMixed:        "Mixed",
}

// Short returns the notation code, or "" for unknown strokes.
func (s Stroke) Short() string {
	return StrokeShortCodes[s]
}

// Label returns the display label, or "" for unknown strokes.
func (s Stroke) Label() string {
	return strokeLabels[s]
}

// Effort describes the intensity or focus of a swim step.
type Effort string

const (
	EffortEasy     Effort = "easy"
	EffortModerate Effort = "moderate"
	EffortHard     Effort = "hard"
	EffortSprint   Effort = "sprint"
	EffortDrill    Effort = "drill"
	EffortKick     Effort = "kick"
	EffortPull     Effort = "pull"
	EffortBuild    Effort = "build"
	EffortDescend  Effort = "descend"
)

var effortLabels = map[Effort]string{
	EffortEasy:     "Easy",
	EffortModerate: "Moderate",
	EffortHard:     "Hard",
	EffortSprint:   "Sprint",
	EffortDrill:    "Drill",
	EffortKick:     "Kick",
	EffortPull:     "Pull",
	EffortBuild:    "Build",
	EffortDescend:  "Descend",
}

// Label returns the display label, or "" for unknown efforts.
func (e Effort) Label() string {
	return effortLabels[e]
}

// Equipment is a piece of gear used during a step.
type Equipment string

const (
	EquipmentFins      Equipment = "fins"
	EquipmentPaddles   Equipment = "paddles"
	EquipmentPullBuoy  Equipment = "pull_buoy"
	EquipmentKickboard Equipment = "kickboard"
	EquipmentSnorkel   Equipment = "snorkel"
)

var equipmentLabels = map[Equipment]string{
	EquipmentFins:      "Fins",
	EquipmentPaddles:   "Paddles",
	EquipmentPullBuoy:  "Pull buoy",
	EquipmentKickboard: "Kickboard",
	EquipmentSnorkel:   "Snorkel",
}

// Label returns the display label, or "" for unknown equipment.
func (e Equipment) Label() string {
	return equipmentLabels[e]
}

// IsValidStroke checks if a string is a known stroke.
func IsValidStroke(s string) bool {
	for _, st := range AllStrokes {
		if string(st) == s {
			return true
		}
	}
	return false
}
