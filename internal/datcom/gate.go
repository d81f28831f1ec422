package datcom

import "strings"

// gateChineseNames maps a missing-field key to its Chinese display name,
// in the order Gate checks them.
var gateChineseNames = map[string]string{
	"wing.S":     "机翼面积 (S)",
	"wing.A":     "展弦比 (A)",
	"wing.Taper": "梢根比 (λ)",
	"wing.Sweep": "后掠角 (sweep)",
	"flight.Mach": "马赫数 (Mach)",
	"flight.Alt":  "高度 (altitude)",
	"flight.Alpha": "迎角范围 (α range)",
}

// Gate checks that the wing block and flight conditions are complete
// enough to proceed. Returns the missing field keys in a fixed order;
// an empty slice means the gate passes.
func Gate(p Params) []string {
	var missing []string

	if !p.Wing.Specified || p.Wing.Area == 0 {
		missing = append(missing, "wing.S")
	}
	if !p.Wing.Specified || p.Wing.AR == 0 {
		missing = append(missing, "wing.A")
	}
	if !p.Wing.Specified || p.Wing.Taper == 0 {
		missing = append(missing, "wing.Taper")
	}
	if !p.Wing.Specified || p.Wing.Sweep == 0 {
		missing = append(missing, "wing.Sweep")
	}
	if !p.Flight.Specified || len(p.Flight.Machs) == 0 {
		missing = append(missing, "flight.Mach")
	}
	if !p.Flight.Specified || len(p.Flight.Altitudes) == 0 {
		missing = append(missing, "flight.Alt")
	}
	if !p.Flight.Specified || p.Flight.AlphaStep == 0 {
		missing = append(missing, "flight.Alpha")
	}

	return missing
}

// ClarificationMessage renders the Chinese-language clarification
// naming exactly which fields are missing.
func ClarificationMessage(missing []string) string {
	names := make([]string, len(missing))
	for i, key := range missing {
		name, ok := gateChineseNames[key]
		if !ok {
			name = key
		}
		names[i] = name
	}
	return "缺少必要参数，无法生成 DATCOM 输入文件。请补充以下信息：" + strings.Join(names, "、") + "。"
}
