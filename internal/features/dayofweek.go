package features

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 星期表:英文/西文全称与常用缩写,周一=0..周日=6。
// 查表前统一小写并去掉重音,"VIERNES" 和 "miércoles" 都能命中。
var dayOfWeekTable = map[string]int{
	"monday": 0, "mon": 0, "lunes": 0, "lun": 0,
	"tuesday": 1, "tue": 1, "tues": 1, "martes": 1, "mar": 1,
	"wednesday": 2, "wed": 2, "miercoles": 2, "mie": 2,
	"thursday": 3, "thu": 3, "thur": 3, "jueves": 3, "jue": 3,
	"friday": 4, "fri": 4, "viernes": 4, "vie": 4,
	"saturday": 5, "sat": 5, "sabado": 5, "sab": 5,
	"sunday": 6, "sun": 6, "domingo": 6, "dom": 6,
}

// 月份表:西文月名 -> 1..12（航班/语音指令用）。
var monthTable = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "setiembre": 9, "octubre": 10,
	"noviembre": 11, "diciembre": 12,
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold 小写 + 去重音,指令解析和查表共用的归一化。
func Fold(s string) string {
	return foldKey(s)
}

// foldKey 小写 + 去重音,作为查表键。
func foldKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// DayOfWeek 把任意形态的星期值转成 0..6:字符串先查表,查不到再按整数解析。
func DayOfWeek(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("缺少星期值")
	case string:
		if idx, ok := dayOfWeekTable[foldKey(v)]; ok {
			return idx, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("无法识别的星期: %q", v)
		}
		return n, nil
	default:
		f, err := toFloat(value)
		if err != nil {
			return 0, fmt.Errorf("无法识别的星期: %v", value)
		}
		return int(f), nil
	}
}

// MonthNumber 把月份值转成 1..12,支持西文月名。
func MonthNumber(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("缺少月份值")
	case string:
		if n, ok := monthTable[foldKey(v)]; ok {
			return n, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("无法识别的月份: %q", v)
		}
		return n, nil
	default:
		f, err := toFloat(value)
		if err != nil {
			return 0, fmt.Errorf("无法识别的月份: %v", value)
		}
		return int(f), nil
	}
}

// ToFloat 宽松数值转换:数字直接收,数字字符串解析。
func ToFloat(value any) (float64, error) {
	return toFloat(value)
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("不是数值: %q", v)
		}
		return f, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("不是数值: %v", value)
	}
}
