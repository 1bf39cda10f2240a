package rule

// RequirementKind 阶段子要求的种类
type RequirementKind int

const (
	Set        RequirementKind = iota // 同面值组
	Run                               // 连续数字组
	ColorGroup                        // 同色组
)

// kindNames 种类名称映射表
var kindNames = map[RequirementKind]string{
	Set:        "Set",
	Run:        "Run",
	ColorGroup: "Color",
}

func (k RequirementKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Requirement 阶段的一个子要求
type Requirement struct {
	Kind  RequirementKind
	Count int
}

// phases 标准十个阶段的要求表
var phases = map[int][]Requirement{
	1:  {{Set, 3}, {Set, 3}},
	2:  {{Set, 3}, {Run, 4}},
	3:  {{Set, 4}, {Run, 4}},
	4:  {{Run, 7}},
	5:  {{Run, 8}},
	6:  {{Run, 9}},
	7:  {{Set, 4}, {Set, 4}},
	8:  {{ColorGroup, 7}},
	9:  {{Set, 5}, {Set, 2}},
	10: {{Set, 5}, {Set, 3}},
}

// MaxPhase 最后一个阶段
const MaxPhase = 10

// Requirements 返回指定阶段的子要求列表
func Requirements(phase int) ([]Requirement, bool) {
	reqs, ok := phases[phase]
	return reqs, ok
}
